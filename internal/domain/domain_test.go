package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		username string
		wantID   UserID
		wantName string
		wantErr  error
	}{
		{name: "full identity", id: "u1", username: "alice", wantID: "u1", wantName: "alice"},
		{name: "trimmed", id: "  u1 ", username: " alice ", wantID: "u1", wantName: "alice"},
		{name: "username falls back to id", id: "u1", wantID: "u1", wantName: "u1"},
		{name: "anonymous", wantName: "guest"},
		{name: "anonymous with name", username: "bob", wantName: "bob"},
		{name: "id too long", id: strings.Repeat("x", MaxUserIDLen+1), wantErr: ErrUserIDTooLong},
		{name: "reserved anonymous id", id: "anon:c1", wantErr: ErrReservedUserID},
		{name: "name too long", id: "u1", username: strings.Repeat("x", MaxUsernameLen+1), wantErr: ErrUsernameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.id, tt.username)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if u.ID != tt.wantID || u.Username != tt.wantName {
				t.Errorf("Expected %q/%q, got %q/%q", tt.wantID, tt.wantName, u.ID, u.Username)
			}
		})
	}
}

func TestNewMemberAnonymous(t *testing.T) {
	u := &User{Username: "guest"}
	m := NewMember(u, "c1")
	if !m.Anonymous {
		t.Fatal("Expected anonymous member")
	}
	if m.UserID != AnonymousID("c1") || !m.UserID.IsAnonymous() {
		t.Errorf("Expected anonymous id for c1, got %q", m.UserID)
	}

	m = NewMember(&User{ID: "u1", Username: "alice"}, "c2")
	if m.Anonymous || m.UserID != "u1" || m.Conn != "c2" {
		t.Errorf("Unexpected member %+v", m)
	}
}

func TestDirectRoomIDIsSymmetric(t *testing.T) {
	if DirectRoomID("b", "a") != "a-b" {
		t.Errorf("Expected a-b, got %s", DirectRoomID("b", "a"))
	}
	if DirectRoomID("a", "b") != DirectRoomID("b", "a") {
		t.Error("Expected the same room for both orders")
	}
}

func TestRoomKeys(t *testing.T) {
	k := ChatRoomKey("lobby")
	if k != "chat:lobby" || k.Kind() != RoomKindChat || k.ID() != "lobby" {
		t.Errorf("Unexpected chat key %q kind=%q id=%q", k, k.Kind(), k.ID())
	}
	k = CallRoomKey("g1")
	if k != "call:g1" || k.Kind() != RoomKindCall || k.ID() != "g1" {
		t.Errorf("Unexpected call key %q", k)
	}
	if ChatRoomKey("x") == CallRoomKey("x") {
		t.Error("Expected chat and call rooms with the same id to differ")
	}
}

func TestParseRoomKey(t *testing.T) {
	good := []string{"chat:lobby", "call:g1", "chat:a-b", "chat:with:colon"}
	for _, s := range good {
		if _, err := ParseRoomKey(s); err != nil {
			t.Errorf("Expected %q to parse, got %v", s, err)
		}
	}
	bad := []string{"", "lobby", "chat:", "voice:x", ":x"}
	for _, s := range bad {
		if _, err := ParseRoomKey(s); !errors.Is(err, ErrBadRoomKey) {
			t.Errorf("Expected ErrBadRoomKey for %q, got %v", s, err)
		}
	}
}
