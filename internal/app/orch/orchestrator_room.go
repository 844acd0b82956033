package orch

import (
	"encoding/json"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/protocol"
	"github.com/rs/zerolog/log"
)

// chatRoomID picks the room a RoomRef points at. A 1:1 reference needs an
// identified caller.
func chatRoomID(s *session, ref protocol.RoomRef) (string, bool) {
	if ref.With != "" {
		if !s.user.Identified() {
			return "", false
		}
		return domain.DirectRoomID(s.user.ID, ref.With), true
	}
	return ref.RoomID, ref.RoomID != ""
}

// JoinRoom adds the connection's user to a chat room and sends the new
// member list to everyone in it.
func (o *Orchestrator) JoinRoom(sid domain.ConnID, ref protocol.RoomRef) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok {
			return
		}
		roomID, ok := chatRoomID(s, ref)
		if !ok {
			o.reject(s, "bad_room")
			return
		}
		key := domain.ChatRoomKey(roomID)
		res := o.rooms.Join(key, s.member())
		if !res.Added && !res.Changed {
			log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room", string(key)).Msg("duplicate join")
			return
		}
		o.notifyChat(key, res.Members)
	})
}

func (o *Orchestrator) LeaveRoom(sid domain.ConnID, ref protocol.RoomRef) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok {
			return
		}
		roomID, ok := chatRoomID(s, ref)
		if !ok {
			return
		}
		o.leave(s, domain.ChatRoomKey(roomID))
	})
}

// SendMessage relays a chat message to every member of the room, sender
// included. The payload is not inspected beyond the room reference.
func (o *Orchestrator) SendMessage(sid domain.ConnID, ref protocol.RoomRef, payload json.RawMessage) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok {
			return
		}
		roomID, ok := chatRoomID(s, ref)
		if !ok {
			o.reject(s, "bad_room")
			return
		}
		o.broadcast(domain.ChatRoomKey(roomID), protocol.Outbound{
			Type: protocol.EventReceiveMessage,
			From: s.peer(),
			Data: payload,
		})
	})
}

// JoinGroupCall announces the joiner to the whole call room and hands the
// joiner the current participant list.
func (o *Orchestrator) JoinGroupCall(sid domain.ConnID, groupID string) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok {
			return
		}
		if !s.user.Identified() {
			o.reject(s, "identity_required")
			return
		}
		if groupID == "" {
			o.reject(s, "bad_group")
			return
		}
		key := domain.CallRoomKey(groupID)
		res := o.rooms.Join(key, s.member())
		o.send(key, s.conn, protocol.Outbound{
			Type: protocol.EventGroupParticipantsUpdate,
			Data: protocol.ParticipantsUpdate{GroupID: groupID, Participants: protocol.PeersOf(res.Members)},
		})
		if !res.Added {
			return
		}
		o.broadcast(key, protocol.Outbound{
			Type: protocol.EventGroupParticipantJoined,
			Data: protocol.ParticipantJoined{GroupID: groupID, UserID: s.user.ID, Username: s.user.Username},
		})
	})
}

func (o *Orchestrator) LeaveGroupCall(sid domain.ConnID, groupID string) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok || groupID == "" {
			return
		}
		o.leave(s, domain.CallRoomKey(groupID))
	})
}

// GroupMessage relays a chat message to every participant of a group call.
func (o *Orchestrator) GroupMessage(sid domain.ConnID, groupID string, payload json.RawMessage) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok || groupID == "" {
			return
		}
		o.broadcast(domain.CallRoomKey(groupID), protocol.Outbound{
			Type: protocol.EventGroupMessage,
			From: s.peer(),
			Data: payload,
		})
	})
}

func (o *Orchestrator) leave(s *session, key domain.RoomKey) {
	res, ok := o.rooms.Leave(key, s.member().UserID)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(s.conn.ID())).Str("room", string(key)).Msg("redundant leave")
		return
	}
	o.notifyLeave(res)
}

// notifyLeave tells the remaining members of a room that someone left:
// a full snapshot for chat rooms, a delta for call rooms.
func (o *Orchestrator) notifyLeave(res app.LeaveResult) {
	switch res.Room.Kind() {
	case domain.RoomKindChat:
		o.notifyChat(res.Room, res.Members)
	case domain.RoomKindCall:
		o.broadcast(res.Room, protocol.Outbound{
			Type: protocol.EventGroupParticipantLeft,
			Data: protocol.ParticipantLeft{GroupID: res.Room.ID(), UserID: res.Member.UserID},
		})
	}
}

func (o *Orchestrator) notifyChat(key domain.RoomKey, members []domain.Member) {
	o.broadcast(key, protocol.Outbound{
		Type: protocol.EventRoomMembersUpdate,
		Data: protocol.MembersUpdate{RoomID: key.ID(), Members: members},
	})
}
