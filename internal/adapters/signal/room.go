package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/protocol"
)

func (ctl *SignalWSController) decodeRoom(cl *client, env protocol.Envelope) (protocol.RoomRef, bool) {
	var ref protocol.RoomRef
	if err := decodeRoomRef(env, &ref); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.conn.id)).Msg("bad room payload")
		ctl.sendError(cl.conn, "bad_payload")
		return ref, false
	}
	if ref.RoomID == "" && ref.With == "" {
		log.Warn().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("type", string(env.Type)).Msg("room payload without room")
		return ref, false
	}
	return ref, true
}

// decodeRoomRef accepts both {"roomId": ...} and a bare room id string.
func decodeRoomRef(env protocol.Envelope, ref *protocol.RoomRef) error {
	var id string
	if protocol.DecodeData(env, &id) == nil && id != "" {
		ref.RoomID = id
		return nil
	}
	return protocol.DecodeData(env, ref)
}

func (ctl *SignalWSController) decodeGroup(cl *client, env protocol.Envelope) (string, bool) {
	var id string
	if protocol.DecodeData(env, &id) == nil && id != "" {
		return id, true
	}
	var ref protocol.GroupRef
	if err := protocol.DecodeData(env, &ref); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.conn.id)).Msg("bad group payload")
		ctl.sendError(cl.conn, "bad_payload")
		return "", false
	}
	if ref.GroupID == "" {
		log.Warn().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("type", string(env.Type)).Msg("group payload without group")
		return "", false
	}
	return ref.GroupID, true
}

func (ctl *SignalWSController) handleJoinRoom(cl *client, env protocol.Envelope) {
	ref, ok := ctl.decodeRoom(cl, env)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("room_id", ref.RoomID).Str("with", string(ref.With)).Msg("join")
	ctl.Orch.JoinRoom(cl.conn.id, ref)
}

// handleLeaveRoom leaves a chat room; the socket stays open.
func (ctl *SignalWSController) handleLeaveRoom(cl *client, env protocol.Envelope) {
	ref, ok := ctl.decodeRoom(cl, env)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("room_id", ref.RoomID).Msg("leave")
	ctl.Orch.LeaveRoom(cl.conn.id, ref)
}

func (ctl *SignalWSController) handleSendMessage(cl *client, env protocol.Envelope) {
	if !ctl.allow(cl) {
		return
	}
	ref, ok := ctl.decodeRoom(cl, env)
	if !ok {
		return
	}
	ctl.Orch.SendMessage(cl.conn.id, ref, env.Data)
}

func (ctl *SignalWSController) handleJoinGroupCall(cl *client, env protocol.Envelope) {
	groupID, ok := ctl.decodeGroup(cl, env)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("group", groupID).Msg("join group call")
	ctl.Orch.JoinGroupCall(cl.conn.id, groupID)
}

func (ctl *SignalWSController) handleLeaveGroupCall(cl *client, env protocol.Envelope) {
	groupID, ok := ctl.decodeGroup(cl, env)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("group", groupID).Msg("leave group call")
	ctl.Orch.LeaveGroupCall(cl.conn.id, groupID)
}

func (ctl *SignalWSController) handleGroupMessage(cl *client, env protocol.Envelope) {
	if !ctl.allow(cl) {
		return
	}
	groupID, ok := ctl.decodeGroup(cl, env)
	if !ok {
		return
	}
	ctl.Orch.GroupMessage(cl.conn.id, groupID, env.Data)
}

func (ctl *SignalWSController) allow(cl *client) bool {
	if ctl.Limiter == nil || ctl.Limiter.Allow(cl.limitKey()) {
		return true
	}
	log.Warn().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("user", string(cl.user.ID)).Msg("rate limit exceeded, message discarded")
	ctl.sendError(cl.conn, "rate_limited")
	return false
}
