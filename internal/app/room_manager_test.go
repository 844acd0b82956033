package app

import (
	"testing"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

func member(id string) domain.Member {
	return domain.Member{UserID: domain.UserID(id), Username: id, Conn: domain.ConnID("c-" + id)}
}

func TestRoomManagerJoinLeave(t *testing.T) {
	m := NewRoomManager()
	key := domain.ChatRoomKey("lobby")

	res := m.Join(key, member("a"))
	if !res.Added || len(res.Members) != 1 {
		t.Fatalf("Expected a added alone, got %+v", res)
	}
	res = m.Join(key, member("b"))
	if len(res.Members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(res.Members))
	}
	res = m.Join(key, member("a"))
	if res.Added || res.Changed || len(res.Members) != 2 {
		t.Errorf("Expected duplicate join to change nothing, got %+v", res)
	}

	left, ok := m.Leave(key, "a")
	if !ok || left.Member.UserID != "a" || len(left.Members) != 1 {
		t.Fatalf("Unexpected leave result %+v ok=%v", left, ok)
	}
	if _, ok := m.Leave(key, "a"); ok {
		t.Error("Expected redundant leave to be a no-op")
	}
	if _, ok := m.Leave(domain.ChatRoomKey("nowhere"), "a"); ok {
		t.Error("Expected leave of unknown room to be a no-op")
	}
}

func TestRoomManagerDropsEmptyRooms(t *testing.T) {
	m := NewRoomManager()
	key := domain.CallRoomKey("g")
	m.Join(key, member("a"))
	m.Leave(key, "a")
	if len(m.List()) != 0 {
		t.Errorf("Expected no rooms, got %v", m.List())
	}
	if m.MembersOf(key) != nil {
		t.Error("Expected nil members for a dropped room")
	}
}

func TestRoomManagerRemoveUserFromAll(t *testing.T) {
	m := NewRoomManager()
	rooms := []domain.RoomKey{domain.ChatRoomKey("z"), domain.CallRoomKey("g"), domain.ChatRoomKey("a")}
	for _, k := range rooms {
		m.Join(k, member("alice"))
		m.Join(k, member("bob"))
	}
	m.Join(domain.ChatRoomKey("other"), member("bob"))

	results := m.RemoveUserFromAll("alice")
	if len(results) != 3 {
		t.Fatalf("Expected 3 leave results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Room >= results[i].Room {
			t.Errorf("Expected key order, got %s before %s", results[i-1].Room, results[i].Room)
		}
	}
	for _, res := range results {
		if len(res.Members) != 1 || res.Members[0].UserID != "bob" {
			t.Errorf("Expected bob left behind in %s, got %v", res.Room, res.Members)
		}
	}
	if len(m.RoomsOf("alice")) != 0 {
		t.Errorf("Expected alice in no rooms, got %v", m.RoomsOf("alice"))
	}
	if len(m.RoomsOf("bob")) != 4 {
		t.Errorf("Expected bob untouched in 4 rooms, got %v", m.RoomsOf("bob"))
	}
	if again := m.RemoveUserFromAll("alice"); len(again) != 0 {
		t.Errorf("Expected second purge to be empty, got %v", again)
	}
}

func TestRoomManagerList(t *testing.T) {
	m := NewRoomManager()
	m.Join(domain.ChatRoomKey("b"), member("x"))
	m.Join(domain.CallRoomKey("a"), member("x"))
	m.Join(domain.CallRoomKey("a"), member("y"))
	list := m.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(list))
	}
	if list[0].Key != "call:a" || list[0].MemberCount != 2 || list[0].Kind != domain.RoomKindCall {
		t.Errorf("Unexpected first room %+v", list[0])
	}
	if list[1].Key != "chat:b" || list[1].MemberCount != 1 {
		t.Errorf("Unexpected second room %+v", list[1])
	}
}
