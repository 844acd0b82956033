// Package protocol defines the JSON frames exchanged over the signaling socket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

// EventType names every frame kind, inbound and outbound.
type EventType string

const (
	EventJoinRoom       EventType = "join_room"
	EventLeaveRoom      EventType = "leave_room"
	EventSendMessage    EventType = "send_message"
	EventJoinGroupCall  EventType = "join_group_call"
	EventLeaveGroupCall EventType = "leave_group_call"
	EventGroupMessage   EventType = "group_message"

	EventCallOffer         EventType = "call_offer"
	EventCallAnswer        EventType = "call_answer"
	EventICECandidate      EventType = "ice_candidate"
	EventCallDeclined      EventType = "call_declined"
	EventGroupCallOffer    EventType = "group_call_offer"
	EventGroupCallAnswer   EventType = "group_call_answer"
	EventGroupICECandidate EventType = "group_ice_candidate"

	EventReceiveMessage          EventType = "receive_message"
	EventRoomMembersUpdate       EventType = "room_members_update"
	EventGroupParticipantJoined  EventType = "group_participant_joined"
	EventGroupParticipantLeft    EventType = "group_participant_left"
	EventGroupParticipantsUpdate EventType = "group_participants_update"

	EventPing   EventType = "ping"
	EventPong   EventType = "pong"
	EventWhoAmI EventType = "whoami"
	EventError  EventType = "error"
)

// IsSignal reports the kinds relayed unicast to a single target.
func (t EventType) IsSignal() bool {
	switch t {
	case EventCallOffer, EventCallAnswer, EventICECandidate, EventCallDeclined,
		EventGroupCallOffer, EventGroupCallAnswer, EventGroupICECandidate:
		return true
	}
	return false
}

var ErrNoType = errors.New("frame without type")

// Envelope is an inbound frame. Data stays raw so relayed payloads pass
// through untouched.
type Envelope struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Peer identifies the sender of an outbound frame.
type Peer struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}

// Outbound is every frame the server writes. From is set whenever the frame
// originates from another user.
type Outbound struct {
	Type EventType `json:"type"`
	From *Peer     `json:"from,omitempty"`
	Data any       `json:"data,omitempty"`
}

func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrNoType
	}
	return env, nil
}

// DecodeData unmarshals the payload of env into v. An absent payload
// leaves v untouched.
func DecodeData(env Envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return nil
}

func Encode(o Outbound) ([]byte, error) {
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", o.Type, err)
	}
	return b, nil
}
