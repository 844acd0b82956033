package protocol

import (
	"github.com/dkeye/VoiceRelay/internal/domain"
)

// RoomRef addresses a chat room either by id or by the peer of a 1:1 chat.
type RoomRef struct {
	RoomID string        `json:"roomId"`
	With   domain.UserID `json:"with,omitempty"`
}

type GroupRef struct {
	GroupID string `json:"groupId"`
}

// Addressed is the envelope part of every relayed signaling payload.
type Addressed struct {
	To domain.UserID `json:"to"`
}

type ParticipantJoined struct {
	GroupID  string        `json:"groupId"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

type ParticipantLeft struct {
	GroupID string        `json:"groupId"`
	UserID  domain.UserID `json:"userId"`
}

type ParticipantsUpdate struct {
	GroupID      string `json:"groupId"`
	Participants []Peer `json:"participants"`
}

type MembersUpdate struct {
	RoomID  string          `json:"roomId"`
	Members []domain.Member `json:"members"`
}

type WhoAmI struct {
	ID         domain.UserID    `json:"id"`
	Username   string           `json:"username"`
	Identified bool             `json:"identified"`
	Rooms      []domain.RoomKey `json:"rooms"`
}

type Error struct {
	Error string `json:"error"`
}

func PeerOf(m domain.Member) Peer { return Peer{ID: m.UserID, Username: m.Username} }

func PeersOf(members []domain.Member) []Peer {
	out := make([]Peer, 0, len(members))
	for _, m := range members {
		out = append(out, PeerOf(m))
	}
	return out
}
