package inspect

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/vango-dev/moqwire/pkg/protocol"
	"github.com/vango-dev/moqwire/pkg/transport"
)

type eventLog []transport.ParseEvent

func (l *eventLog) ObserveParse(_ context.Context, ev transport.ParseEvent) {
	*l = append(*l, ev)
}

func controlBytes(t *testing.T, msgs ...protocol.Message) []byte {
	t.Helper()
	var b []byte
	for _, m := range msgs {
		var err error
		if b, err = protocol.Append(b, m); err != nil {
			t.Fatalf("Append(%s) error = %v", m.Type(), err)
		}
	}
	return b
}

func TestDecodeControl(t *testing.T) {
	msgs := envelopeMessages()
	data := controlBytes(t, msgs...)

	var events eventLog
	rep := DecodeControl(context.Background(), data, &events)
	if !rep.Complete() || rep.Consumed != len(data) {
		t.Fatalf("DecodeControl() = consumed %d needed %d err %v", rep.Consumed, rep.Needed, rep.Err)
	}
	if len(rep.Items) != len(msgs) || len(events) != len(msgs) {
		t.Fatalf("items = %d, events = %d, want %d", len(rep.Items), len(events), len(msgs))
	}
	sum := 0
	for i, env := range rep.Items {
		if env.Type != msgs[i].Type().String() {
			t.Errorf("item %d type = %s", i, env.Type)
		}
		if events[i].Bytes != env.Consumed || events[i].Type != env.Type {
			t.Errorf("event %d = %+v, item consumed %d", i, events[i], env.Consumed)
		}
		sum += env.Consumed
	}
	if sum != len(data) {
		t.Errorf("item sizes sum to %d, want %d", sum, len(data))
	}
}

func TestDecodeControlTruncated(t *testing.T) {
	first := controlBytes(t, &protocol.Unsubscribe{SubscribeID: 1})
	data := controlBytes(t, &protocol.Unsubscribe{SubscribeID: 1}, &protocol.Goaway{NewSessionURI: protocol.StringBits("https://x")})

	var events eventLog
	rep := DecodeControl(context.Background(), data[:len(data)-2], &events)
	if rep.Err != nil || rep.Needed != 2 || rep.Consumed != len(first) || len(rep.Items) != 1 {
		t.Errorf("DecodeControl(truncated) = items %d consumed %d needed %d err %v", len(rep.Items), rep.Consumed, rep.Needed, rep.Err)
	}
	if last := events[len(events)-1]; last.Err != io.ErrUnexpectedEOF {
		t.Errorf("last event = %+v, want io.ErrUnexpectedEOF", last)
	}
}

func TestDecodeControlMalformed(t *testing.T) {
	data := append(controlBytes(t, &protocol.MaxSubscribeID{SubscribeID: 9}), 0x3f)
	rep := DecodeControl(context.Background(), data, nil)
	if !errors.Is(rep.Err, protocol.ErrUnknownMessageType) || rep.Consumed != 2 || rep.Complete() {
		t.Errorf("DecodeControl(malformed) = consumed %d err %v", rep.Consumed, rep.Err)
	}
}

func dataStream(t *testing.T, header protocol.StreamFrame, records func(b []byte) []byte) []byte {
	t.Helper()
	b, err := protocol.AppendStreamFrame(nil, header)
	if err != nil {
		t.Fatalf("AppendStreamFrame() error = %v", err)
	}
	return records(b)
}

func TestDecodeDataSubgroup(t *testing.T) {
	data := dataStream(t, &protocol.HeaderSubgroup{SubscribeID: 1, TrackAlias: 2, GroupID: 5}, func(b []byte) []byte {
		b, _ = protocol.AppendSubgroupObject(b, &protocol.SubgroupObject{ObjectID: 0, PayloadLength: 5})
		b = append(b, "hello"...)
		b, _ = protocol.AppendSubgroupObject(b, &protocol.SubgroupObject{ObjectID: 1, Status: protocol.ObjectStatusEndOfGroup})
		return b
	})

	var events eventLog
	rep := DecodeData(context.Background(), data, &events, 64)
	if !rep.Complete() || len(rep.Items) != 3 {
		t.Fatalf("DecodeData() = items %d needed %d err %v", len(rep.Items), rep.Needed, rep.Err)
	}
	if rep.Items[0].Type != "header_subgroup" || rep.Items[1].Type != TypeObject {
		t.Errorf("item types = %s, %s", rep.Items[0].Type, rep.Items[1].Type)
	}
	if string(rep.Items[1].Object) != `{"groupId":5,"objectId":0,"payloadLength":5,"payload":"hello"}` {
		t.Errorf("object = %s", rep.Items[1].Object)
	}
	if string(rep.Items[2].Object) != `{"groupId":5,"objectId":1,"status":3,"payloadLength":0}` {
		t.Errorf("status object = %s", rep.Items[2].Object)
	}
	if events[1].Kind != transport.KindObject || events[1].Type != "subgroup_object" {
		t.Errorf("object event = %+v", events[1])
	}
}

func TestDecodeDataTrack(t *testing.T) {
	data := dataStream(t, &protocol.HeaderTrack{SubscribeID: 1, TrackAlias: 2}, func(b []byte) []byte {
		b, _ = protocol.AppendTrackObject(b, &protocol.TrackObject{GroupID: 3, ObjectID: 4, PayloadLength: 4})
		return append(b, "data"...)
	})

	rep := DecodeData(context.Background(), data, nil, 2)
	if !rep.Complete() || len(rep.Items) != 2 {
		t.Fatalf("DecodeData() = items %d err %v", len(rep.Items), rep.Err)
	}
	if string(rep.Items[1].Object) != `{"groupId":3,"objectId":4,"payloadLength":4,"payload":"da"}` {
		t.Errorf("object = %s", rep.Items[1].Object)
	}

	// Cut the payload: the shortfall is the missing payload bytes.
	rep = DecodeData(context.Background(), data[:len(data)-3], nil, 2)
	if rep.Needed != 3 || rep.Err != nil || len(rep.Items) != 1 {
		t.Errorf("DecodeData(short payload) = needed %d err %v items %d", rep.Needed, rep.Err, len(rep.Items))
	}
}

func TestDecodeDataRejectsDatagram(t *testing.T) {
	b, _ := protocol.AppendStreamFrame(nil, &protocol.Datagram{PayloadLength: 1})
	rep := DecodeData(context.Background(), append(b, 'x'), nil, 0)
	if !errors.Is(rep.Err, transport.ErrUnexpectedFrame) {
		t.Errorf("DecodeData(datagram) error = %v, want ErrUnexpectedFrame", rep.Err)
	}

	if rep := DecodeData(context.Background(), nil, nil, 0); !rep.Complete() || len(rep.Items) != 0 {
		t.Errorf("DecodeData(nil) = %+v", rep)
	}
}

func TestDecodeDatagram(t *testing.T) {
	b, _ := protocol.AppendStreamFrame(nil, &protocol.Datagram{SubscribeID: 1, GroupID: 2, ObjectID: 3, PayloadLength: 2})
	data := append(b, "hi"...)

	rep := DecodeDatagram(context.Background(), data, nil, 16)
	if !rep.Complete() || len(rep.Items) != 2 || rep.Consumed != len(data) {
		t.Fatalf("DecodeDatagram() = items %d consumed %d err %v", len(rep.Items), rep.Consumed, rep.Err)
	}
	if rep.Items[0].Type != "datagram" || string(rep.Items[1].Object) != `{"groupId":2,"objectId":3,"payloadLength":2,"payload":"hi"}` {
		t.Errorf("items = %s %s", rep.Items[0].Type, rep.Items[1].Object)
	}

	rep = DecodeDatagram(context.Background(), data[:2], nil, 16)
	if rep.Needed == 0 || rep.Err != nil {
		t.Errorf("DecodeDatagram(truncated) = needed %d err %v", rep.Needed, rep.Err)
	}
	rep = DecodeDatagram(context.Background(), append(data, 'x'), nil, 16)
	if !errors.Is(rep.Err, transport.ErrPayloadLength) {
		t.Errorf("DecodeDatagram(long payload) error = %v, want ErrPayloadLength", rep.Err)
	}
}
