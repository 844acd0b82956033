package core

import (
	"github.com/dkeye/VoiceRelay/internal/domain"
)

// Room is the membership list of one room, kept in join order.
// It is not safe for concurrent use: the orchestrator loop owns it.
type Room struct {
	room    *domain.Room
	members []domain.Member
	index   map[domain.UserID]int
}

func NewRoom(key domain.RoomKey) *Room {
	return &Room{
		room:  &domain.Room{Key: key, Kind: key.Kind(), ID: key.ID()},
		index: make(map[domain.UserID]int),
	}
}

func (r *Room) Room() *domain.Room    { return r.room }
func (r *Room) Key() domain.RoomKey   { return r.room.Key }
func (r *Room) Kind() domain.RoomKind { return r.room.Kind }
func (r *Room) Len() int              { return len(r.members) }

func (r *Room) Has(u domain.UserID) bool {
	_, ok := r.index[u]
	return ok
}

// Add inserts m or refreshes the metadata of an existing member in place.
// added reports a new member; changed reports refreshed metadata.
func (r *Room) Add(m domain.Member) (added, changed bool) {
	if i, ok := r.index[m.UserID]; ok {
		if r.members[i] == m {
			return false, false
		}
		r.members[i] = m
		return false, true
	}
	r.index[m.UserID] = len(r.members)
	r.members = append(r.members, m)
	return true, false
}

// Remove drops u, keeping the order of the remaining members.
func (r *Room) Remove(u domain.UserID) (domain.Member, bool) {
	i, ok := r.index[u]
	if !ok {
		return domain.Member{}, false
	}
	m := r.members[i]
	r.members = append(r.members[:i], r.members[i+1:]...)
	delete(r.index, u)
	for j := i; j < len(r.members); j++ {
		r.index[r.members[j].UserID] = j
	}
	return m, true
}

// Snapshot returns a copy callers may keep.
func (r *Room) Snapshot() []domain.Member {
	out := make([]domain.Member, len(r.members))
	copy(out, r.members)
	return out
}
