package orch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/protocol"
)

func TestSignalingRoundTrip(t *testing.T) {
	o := startOrch(t)
	alice := connect(t, o, "c1", "alice")
	bob := connect(t, o, "c2", "bob")

	offer := `{"to":"bob","from":"mallory","offer":{"type":"offer","sdp":"v=0"}}`
	o.Relay(alice.id, protocol.EventCallOffer, "bob", json.RawMessage(offer))
	flush(t, o)

	got := bob.take()
	if len(got) != 1 || got[0].Type != protocol.EventCallOffer {
		t.Fatalf("Expected exactly one call_offer, got %+v", got)
	}
	if got[0].From == nil || got[0].From.ID != "alice" {
		t.Errorf("Expected server-side sender alice, got %+v", got[0].From)
	}
	if string(got[0].Data) != offer {
		t.Errorf("Expected payload relayed untouched, got %s", got[0].Data)
	}

	calls, _ := o.ActiveCalls(context.Background())
	if len(calls) != 1 || calls[0].State != app.CallRinging {
		t.Fatalf("Expected a ringing call, got %+v", calls)
	}

	answer := `{"to":"alice","answer":{"type":"answer","sdp":"v=0"}}`
	o.Relay(bob.id, protocol.EventCallAnswer, "alice", json.RawMessage(answer))
	o.Relay(bob.id, protocol.EventICECandidate, "alice", json.RawMessage(`{"to":"alice","candidate":{}}`))
	flush(t, o)

	got = alice.take()
	if len(got) != 2 || got[0].Type != protocol.EventCallAnswer || got[1].Type != protocol.EventICECandidate {
		t.Fatalf("Expected answer then candidate in order, got %+v", got)
	}
	if got[0].From.ID != "bob" || string(got[0].Data) != answer {
		t.Errorf("Unexpected answer frame %+v", got[0])
	}
	calls, _ = o.ActiveCalls(context.Background())
	if len(calls) != 1 || calls[0].State != app.CallAnswered {
		t.Errorf("Expected an answered call, got %+v", calls)
	}

	o.Disconnect(bob.id)
	flush(t, o)
	calls, _ = o.ActiveCalls(context.Background())
	if len(calls) != 0 {
		t.Errorf("Expected disconnect to end the call, got %+v", calls)
	}
}

func TestSignalingUnreachableTarget(t *testing.T) {
	o := startOrch(t)
	alice := connect(t, o, "c1", "alice")
	bob := connect(t, o, "c2", "bob")

	o.Relay(alice.id, protocol.EventCallOffer, "ghost", json.RawMessage(`{"to":"ghost"}`))
	o.Relay(alice.id, protocol.EventCallOffer, "", json.RawMessage(`{}`))
	flush(t, o)

	if n := len(alice.take()); n != 0 {
		t.Errorf("Expected no feedback to the sender, got %d frames", n)
	}
	if n := len(bob.take()); n != 0 {
		t.Errorf("Expected bystanders to get nothing, got %d frames", n)
	}
	calls, _ := o.ActiveCalls(context.Background())
	if len(calls) != 0 {
		t.Errorf("Expected no call kept for an unreachable target, got %+v", calls)
	}
}

func TestSignalingDecline(t *testing.T) {
	o := startOrch(t)
	alice := connect(t, o, "c1", "alice")
	bob := connect(t, o, "c2", "bob")

	o.Relay(alice.id, protocol.EventCallOffer, "bob", json.RawMessage(`{"to":"bob"}`))
	o.Relay(bob.id, protocol.EventCallDeclined, "alice", json.RawMessage(`{"to":"alice"}`))
	flush(t, o)

	if got := ofType(alice.take(), protocol.EventCallDeclined); len(got) != 1 {
		t.Errorf("Expected alice to see the decline, got %d", len(got))
	}
	bob.take()
	calls, _ := o.ActiveCalls(context.Background())
	if len(calls) != 0 {
		t.Errorf("Expected declined call removed, got %+v", calls)
	}
}

func TestGroupSignalingIsUnicast(t *testing.T) {
	o := startOrch(t)
	a := connect(t, o, "c1", "a")
	b := connect(t, o, "c2", "b")
	c := connect(t, o, "c3", "c")
	for _, conn := range []*recConn{a, b, c} {
		o.JoinGroupCall(conn.id, "g")
	}
	flush(t, o)
	a.take()
	b.take()
	c.take()

	o.Relay(a.id, protocol.EventGroupCallOffer, "b", json.RawMessage(`{"to":"b","groupId":"g"}`))
	flush(t, o)
	if n := len(ofType(b.take(), protocol.EventGroupCallOffer)); n != 1 {
		t.Errorf("Expected b to get the group offer, got %d", n)
	}
	if n := len(c.take()); n != 0 {
		t.Errorf("Expected c to get nothing, got %d", n)
	}
}

func TestRelayRejectsNonSignalKinds(t *testing.T) {
	o := startOrch(t)
	a := connect(t, o, "c1", "a")
	b := connect(t, o, "c2", "b")
	o.Relay(a.id, protocol.EventReceiveMessage, "b", json.RawMessage(`{"to":"b"}`))
	flush(t, o)
	if n := len(b.take()); n != 0 {
		t.Errorf("Expected non-signal kind to be dropped, got %d", n)
	}
}

func TestWhoAmI(t *testing.T) {
	o := startOrch(t)
	a := connect(t, o, "c1", "alice")
	o.JoinRoom(a.id, protocol.RoomRef{RoomID: "lobby"})
	o.JoinGroupCall(a.id, "g")
	flush(t, o)
	a.take()

	o.WhoAmI(a.id)
	flush(t, o)
	got := ofType(a.take(), protocol.EventWhoAmI)
	if len(got) != 1 {
		t.Fatalf("Expected whoami reply, got %d", len(got))
	}
	var who protocol.WhoAmI
	if err := json.Unmarshal(got[0].Data, &who); err != nil {
		t.Fatal(err)
	}
	if who.ID != "alice" || !who.Identified || len(who.Rooms) != 2 || who.Rooms[0] != "call:g" {
		t.Errorf("Unexpected whoami %+v", who)
	}
}
