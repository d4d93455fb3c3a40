package inspect

import (
	"testing"

	"github.com/vango-dev/moqwire/pkg/protocol"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{
			&protocol.ClientSetup{
				Versions: []uint32{protocol.VersionDraft05, protocol.VersionDraft06},
				Params:   protocol.SetupParameters{Role: protocol.RolePubSub, Path: []byte("/moq")},
			},
			"client_setup versions=[0xff000005,0xff000006] params.role=PubSub params.path=/moq",
		},
		{
			&protocol.ServerSetup{SelectedVersion: protocol.VersionDraft05, Params: protocol.SetupParameters{Role: protocol.RoleSubscriber}},
			"server_setup selectedVersion=0xff000005 params.role=Subscriber",
		},
		{
			&protocol.Unsubscribe{SubscribeID: 42},
			"unsubscribe subscribeId=42",
		},
		{
			&protocol.SubscribeError{SubscribeID: 1, ErrorCode: 2, Reason: protocol.StringBits("no such track"), TrackAlias: 3},
			`subscribe_error subscribeId=1 errorCode=2 reason="no such track" trackAlias=3`,
		},
		{
			&protocol.Goaway{},
			`goaway newSessionUri=""`,
		},
		{
			&protocol.Announce{Namespace: protocol.NewTuple("a", "b"), Params: protocol.SubscribeParameters{AuthInfo: []byte{0xff}}},
			"announce namespace=a/b params.authInfo=0xff",
		},
		{
			&protocol.HeaderSubgroup{SubscribeID: 1, TrackAlias: 2, GroupID: 3, SubgroupID: 0, PublisherPriority: 128},
			"header_subgroup subscribeId=1 trackAlias=2 groupId=3 subgroupId=0 publisherPriority=128",
		},
		{
			&protocol.SubgroupObject{ObjectID: 5, PayloadLength: 10},
			"subgroup_object objectId=5 payloadLength=10 status=0",
		},
		{
			"plain",
			"plain",
		},
	}
	for _, tt := range tests {
		if got := Summary(tt.in); got != tt.want {
			t.Errorf("Summary(%T) =\n  %s\nwant\n  %s", tt.in, got, tt.want)
		}
	}
}

func TestSummaryCoversEveryMessage(t *testing.T) {
	for _, name := range []string{
		"object_stream", "object_datagram", "subscribe_update", "subscribe", "subscribe_ok",
		"subscribe_error", "announce", "announce_ok", "announce_error", "unannounce",
		"unsubscribe", "subscribe_done", "announce_cancel", "track_status_request",
		"track_status", "goaway", "subscribe_namespace", "subscribe_namespace_ok",
		"subscribe_namespace_error", "unsubscribe_namespace", "max_subscribe_id",
		"client_setup", "server_setup", "stream_header_track", "stream_header_group",
	} {
		var mt protocol.MessageType
		if err := mt.UnmarshalText([]byte(name)); err != nil {
			t.Fatalf("UnmarshalText(%s) error = %v", name, err)
		}
		m, err := protocol.NewMessage(mt)
		if err != nil {
			t.Fatalf("NewMessage(%s) error = %v", name, err)
		}
		if got := Summary(m); len(got) < len(name) || got[:len(name)] != name {
			t.Errorf("Summary(%s) = %q", name, got)
		}
	}
}
