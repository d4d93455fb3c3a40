package protocol

import "testing"

type sampleMessage struct {
	name string
	msg  Message
}

func sampleMessages() []sampleMessage {
	ns := NewTuple("moq", "live", "room-1")
	auth := SubscribeParameters{AuthInfo: []byte("token")}
	return []sampleMessage{
		{"object_stream", &ObjectStream{SubscribeID: 1, TrackAlias: 2, GroupID: 300, SendOrder: 4, ObjectStatus: 0}},
		{"object_datagram", &ObjectDatagram{SubscribeID: 70000, TrackAlias: 2, GroupID: 3, SendOrder: 1 << 40, ObjectStatus: 3}},
		{"subscribe_update", &SubscribeUpdate{SubscribeID: 9, Start: Location{1, 2}, End: Location{3, 4}, Params: auth}},
		{"subscribe_latest_group", &Subscribe{SubscribeID: 31, TrackAlias: 17, Namespace: NewTuple("path"), TrackName: StringBits("track"), FilterType: FilterLatestGroup}},
		{"subscribe_latest_object", &Subscribe{SubscribeID: 1, TrackAlias: 1, Namespace: ns, TrackName: StringBits("video"), FilterType: FilterLatestObject, Params: auth}},
		{"subscribe_absolute_start", &Subscribe{SubscribeID: 2, TrackAlias: 3, Namespace: ns, TrackName: StringBits("audio"), FilterType: FilterAbsoluteStart, Start: Location{100, 5}}},
		{"subscribe_absolute_range", &Subscribe{SubscribeID: 4, TrackAlias: 5, Namespace: ns, TrackName: StringBits("audio"), FilterType: FilterAbsoluteRange, Start: Location{100, 5}, End: Location{16384, 0}, Params: auth}},
		{"subscribe_empty_namespace", &Subscribe{SubscribeID: 6, TrackAlias: 7, Namespace: Tuple{}, TrackName: BitString{Bits: 3, Data: []byte{0xa0}}, FilterType: FilterLatestGroup}},
		{"subscribe_ok", &SubscribeOk{SubscribeID: 65, Expires: 0}},
		{"subscribe_ok_content", &SubscribeOk{SubscribeID: 65, Expires: 1000, ContentExists: true, Largest: Location{31, 27}}},
		{"subscribe_error", &SubscribeError{SubscribeID: 8, ErrorCode: 404, Reason: StringBits("no such track"), TrackAlias: 12}},
		{"announce", &Announce{Namespace: ns, Params: auth}},
		{"announce_ok", &AnnounceOk{Namespace: ns}},
		{"announce_error", &AnnounceError{Namespace: ns, ErrorCode: 1, Reason: StringBits("denied")}},
		{"unannounce", &Unannounce{Namespace: ns}},
		{"unsubscribe", &Unsubscribe{SubscribeID: MaxVarint}},
		{"subscribe_done", &SubscribeDone{SubscribeID: 1, StatusCode: 2, Reason: StringBits("ended")}},
		{"subscribe_done_content", &SubscribeDone{SubscribeID: 1, StatusCode: 2, Reason: StringBits(""), ContentExists: true, Final: Location{7, 8}}},
		{"announce_cancel", &AnnounceCancel{Namespace: ns, ErrorCode: 3, Reason: StringBits("gone")}},
		{"track_status_request", &TrackStatusRequest{Namespace: ns, TrackName: StringBits("video")}},
		{"track_status_in_progress", &TrackStatus{Namespace: ns, TrackName: StringBits("video"), StatusCode: TrackStatusInProgress, Last: Location{44, 2}}},
		{"track_status_finished", &TrackStatus{Namespace: ns, TrackName: StringBits("video"), StatusCode: TrackStatusFinished}},
		{"goaway", &Goaway{NewSessionURI: StringBits("https://relay.example/moq")}},
		{"subscribe_namespace", &SubscribeNamespace{Prefix: NewTuple("moq"), Params: auth}},
		{"subscribe_namespace_ok", &SubscribeNamespaceOk{Prefix: NewTuple("moq")}},
		{"subscribe_namespace_error", &SubscribeNamespaceError{Prefix: NewTuple("moq"), ErrorCode: 2, Reason: StringBits("nope")}},
		{"unsubscribe_namespace", &UnsubscribeNamespace{Prefix: NewTuple("moq")}},
		{"max_subscribe_id", &MaxSubscribeID{SubscribeID: 128}},
		{"client_setup", &ClientSetup{Versions: []uint32{1, 2}, Params: SetupParameters{Role: RoleSubscriber, Path: []byte("path")}}},
		{"client_setup_drafts", &ClientSetup{Versions: []uint32{VersionDraft05, VersionDraft06, MaxVersion}, Params: SetupParameters{Role: RolePubSub}}},
		{"server_setup", &ServerSetup{SelectedVersion: VersionDraft06, Params: SetupParameters{Role: RolePublisher}}},
		{"stream_header_track", &StreamHeaderTrack{SubscribeID: 1, TrackAlias: 2, SendOrder: 3}},
		{"stream_header_group", &StreamHeaderGroup{SubscribeID: 1, TrackAlias: 2, GroupID: 3, SendOrder: 4}},
	}
}

func mustAppend(t testing.TB, m Message) []byte {
	t.Helper()
	b, err := Append(nil, m)
	if err != nil {
		t.Fatalf("Append(%s) error = %v", m.Type(), err)
	}
	return b
}

func mustParse(t testing.TB, b []byte) Message {
	t.Helper()
	m, n, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse(%x) error = %v", b, err)
	}
	if n != len(b) {
		t.Fatalf("Parse(%x) consumed %d bytes, want %d", b, n, len(b))
	}
	return m
}
