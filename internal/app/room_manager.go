package app

import (
	"sort"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

type RoomInfo struct {
	Key         domain.RoomKey  `json:"key"`
	Kind        domain.RoomKind `json:"kind"`
	MemberCount int             `json:"member_count"`
}

// JoinResult describes what a Join changed.
type JoinResult struct {
	Room    domain.RoomKey
	Member  domain.Member
	Added   bool
	Changed bool
	Members []domain.Member
}

// LeaveResult carries the removed member and who is left behind.
type LeaveResult struct {
	Room    domain.RoomKey
	Member  domain.Member
	Members []domain.Member
}

// RoomManager tracks room membership for chat and call rooms.
// It is not safe for concurrent use: the orchestrator loop owns it.
type RoomManager struct {
	rooms  map[domain.RoomKey]*core.Room
	byUser map[domain.UserID]map[domain.RoomKey]struct{}
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		rooms:  make(map[domain.RoomKey]*core.Room),
		byUser: make(map[domain.UserID]map[domain.RoomKey]struct{}),
	}
}

func (m *RoomManager) getOrCreate(key domain.RoomKey) *core.Room {
	room, ok := m.rooms[key]
	if !ok {
		room = core.NewRoom(key)
		m.rooms[key] = room
		log.Debug().Str("module", "app.rooms").Str("room", string(key)).Msg("room created")
	}
	return room
}

// Join is idempotent; a repeated join only refreshes member metadata.
func (m *RoomManager) Join(key domain.RoomKey, member domain.Member) JoinResult {
	room := m.getOrCreate(key)
	added, changed := room.Add(member)
	if added {
		rooms, ok := m.byUser[member.UserID]
		if !ok {
			rooms = make(map[domain.RoomKey]struct{})
			m.byUser[member.UserID] = rooms
		}
		rooms[key] = struct{}{}
		log.Info().Str("module", "app.rooms").Str("room", string(key)).Str("user", string(member.UserID)).Int("members", room.Len()).Msg("member joined")
	}
	return JoinResult{
		Room:    key,
		Member:  member,
		Added:   added,
		Changed: changed,
		Members: room.Snapshot(),
	}
}

// Leave is a no-op when user is not in the room. Empty rooms are dropped.
func (m *RoomManager) Leave(key domain.RoomKey, user domain.UserID) (LeaveResult, bool) {
	room, ok := m.rooms[key]
	if !ok {
		return LeaveResult{}, false
	}
	member, ok := room.Remove(user)
	if !ok {
		return LeaveResult{}, false
	}
	if rooms, ok := m.byUser[user]; ok {
		delete(rooms, key)
		if len(rooms) == 0 {
			delete(m.byUser, user)
		}
	}
	if room.Len() == 0 {
		delete(m.rooms, key)
		log.Debug().Str("module", "app.rooms").Str("room", string(key)).Msg("room dropped")
	}
	log.Info().Str("module", "app.rooms").Str("room", string(key)).Str("user", string(user)).Int("members", room.Len()).Msg("member left")
	return LeaveResult{Room: key, Member: member, Members: room.Snapshot()}, true
}

// MembersOf returns the members of key in join order, or nil.
func (m *RoomManager) MembersOf(key domain.RoomKey) []domain.Member {
	room, ok := m.rooms[key]
	if !ok {
		return nil
	}
	return room.Snapshot()
}

// RoomsOf returns the rooms user is in, sorted.
func (m *RoomManager) RoomsOf(user domain.UserID) []domain.RoomKey {
	rooms := m.byUser[user]
	out := make([]domain.RoomKey, 0, len(rooms))
	for k := range rooms {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RemoveUserFromAll leaves every room user is in, once each, in key order.
func (m *RoomManager) RemoveUserFromAll(user domain.UserID) []LeaveResult {
	keys := m.RoomsOf(user)
	out := make([]LeaveResult, 0, len(keys))
	for _, key := range keys {
		if res, ok := m.Leave(key, user); ok {
			out = append(out, res)
		}
	}
	return out
}

func (m *RoomManager) List() []RoomInfo {
	out := make([]RoomInfo, 0, len(m.rooms))
	for key, r := range m.rooms {
		out = append(out, RoomInfo{Key: key, Kind: r.Kind(), MemberCount: r.Len()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
