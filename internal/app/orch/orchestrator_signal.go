package orch

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Relay forwards a signaling payload to the one connection currently bound
// to `to`, stamped with the sender's identity. Unknown targets are dropped
// without telling the sender.
func (o *Orchestrator) Relay(sid domain.ConnID, kind protocol.EventType, to domain.UserID, payload json.RawMessage) {
	o.enqueue(func() {
		s, ok := o.live(sid)
		if !ok {
			return
		}
		logger := log.With().Str("module", "orch.signal").Str("sid", string(sid)).Str("type", string(kind)).Str("to", string(to)).Logger()
		if !kind.IsSignal() {
			logger.Warn().Msg("not a signaling event")
			return
		}
		if !s.user.Identified() {
			logger.Warn().Msg("signaling from anonymous connection dropped")
			return
		}
		if to == "" {
			logger.Warn().Msg("signaling without target dropped")
			return
		}
		target, ok := o.registry.Resolve(to)
		o.trackCall(kind, s.user.ID, to, ok)
		if !ok {
			logger.Debug().Msg("target unreachable")
			return
		}
		o.send("", target, protocol.Outbound{Type: kind, From: s.peer(), Data: payload})
	})
}

func (o *Orchestrator) trackCall(kind protocol.EventType, from, to domain.UserID, delivered bool) {
	var err error
	switch kind {
	case protocol.EventCallOffer:
		o.calls.Offer(from, to, delivered)
	case protocol.EventCallAnswer:
		_, err = o.calls.Answer(from, to)
	case protocol.EventCallDeclined:
		_, err = o.calls.Decline(from, to)
	}
	if err != nil && errors.Is(err, app.ErrInvalidTransition) {
		log.Debug().Err(err).Str("module", "orch.signal").Msg("call state unchanged")
	}
}

// WhoAmI answers the connection with its identity and rooms.
func (o *Orchestrator) WhoAmI(sid domain.ConnID) {
	o.enqueue(func() {
		s, ok := o.sessions[sid]
		if !ok {
			return
		}
		m := s.member()
		o.send("", s.conn, protocol.Outbound{
			Type: protocol.EventWhoAmI,
			Data: protocol.WhoAmI{
				ID:         m.UserID,
				Username:   m.Username,
				Identified: s.user.Identified(),
				Rooms:      o.rooms.RoomsOf(m.UserID),
			},
		})
	})
}
