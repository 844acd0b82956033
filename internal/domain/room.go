package domain

import (
	"errors"
	"sort"
	"strings"
)

type RoomKind string

const (
	RoomKindChat RoomKind = "chat"
	RoomKindCall RoomKind = "call"
)

// RoomKey is "<kind>:<id>". Every room in the process is addressed this way.
type RoomKey string

var ErrBadRoomKey = errors.New("bad room key")

func ChatRoomKey(id string) RoomKey { return RoomKey(string(RoomKindChat) + ":" + id) }
func CallRoomKey(id string) RoomKey { return RoomKey(string(RoomKindCall) + ":" + id) }

// DirectRoomID names the 1:1 chat room of two users: sorted ids joined by "-".
func DirectRoomID(a, b UserID) string {
	ids := []string{string(a), string(b)}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}

func ParseRoomKey(s string) (RoomKey, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return "", ErrBadRoomKey
	}
	switch RoomKind(kind) {
	case RoomKindChat, RoomKindCall:
		return RoomKey(s), nil
	}
	return "", ErrBadRoomKey
}

func (k RoomKey) Kind() RoomKind {
	kind, _, _ := strings.Cut(string(k), ":")
	return RoomKind(kind)
}

func (k RoomKey) ID() string {
	_, id, _ := strings.Cut(string(k), ":")
	return id
}

type Room struct {
	Key  RoomKey
	Kind RoomKind
	ID   string
}
