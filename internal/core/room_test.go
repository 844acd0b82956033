package core

import (
	"testing"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

func member(id string) domain.Member {
	return domain.Member{UserID: domain.UserID(id), Username: id, Conn: domain.ConnID("c-" + id)}
}

func ids(members []domain.Member) []domain.UserID {
	out := make([]domain.UserID, len(members))
	for i, m := range members {
		out[i] = m.UserID
	}
	return out
}

func TestRoomAddIsIdempotent(t *testing.T) {
	r := NewRoom(domain.ChatRoomKey("lobby"))
	if added, _ := r.Add(member("a")); !added {
		t.Fatal("Expected first add to report added")
	}
	added, changed := r.Add(member("a"))
	if added || changed {
		t.Errorf("Expected duplicate add to be a no-op, got added=%v changed=%v", added, changed)
	}
	if r.Len() != 1 {
		t.Errorf("Expected 1 member, got %d", r.Len())
	}
}

func TestRoomAddRefreshesMetadata(t *testing.T) {
	r := NewRoom(domain.ChatRoomKey("lobby"))
	r.Add(member("a"))
	r.Add(member("b"))

	m := member("a")
	m.Conn = "c-new"
	added, changed := r.Add(m)
	if added || !changed {
		t.Fatalf("Expected refresh, got added=%v changed=%v", added, changed)
	}
	snap := r.Snapshot()
	if snap[0].Conn != "c-new" {
		t.Errorf("Expected refreshed conn in place, got %+v", snap[0])
	}
	if got := ids(snap); got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected join order a,b, got %v", got)
	}
}

func TestRoomRemoveKeepsOrder(t *testing.T) {
	r := NewRoom(domain.CallRoomKey("g"))
	for _, id := range []string{"a", "b", "c", "d"} {
		r.Add(member(id))
	}
	if _, ok := r.Remove("b"); !ok {
		t.Fatal("Expected b to be removed")
	}
	if _, ok := r.Remove("b"); ok {
		t.Error("Expected second remove to report absence")
	}
	got := ids(r.Snapshot())
	want := []domain.UserID{"a", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
	if !r.Has("d") || r.Has("b") {
		t.Error("Index out of sync after remove")
	}
	if _, ok := r.Remove("d"); !ok {
		t.Error("Expected d to be removable after reindex")
	}
}

func TestRoomSnapshotIsCopy(t *testing.T) {
	r := NewRoom(domain.ChatRoomKey("lobby"))
	r.Add(member("a"))
	snap := r.Snapshot()
	snap[0].Username = "mutated"
	if r.Snapshot()[0].Username != "a" {
		t.Error("Expected snapshot mutation not to leak into the room")
	}
	if r.Kind() != domain.RoomKindChat || r.Key() != "chat:lobby" || r.Room().ID != "lobby" {
		t.Errorf("Unexpected room meta %+v", r.Room())
	}
}
