package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/protocol"
)

// handleRelay forwards offer/answer/candidate/decline frames. Only the
// target is read; the SDP and candidate blobs stay opaque.
func (ctl *SignalWSController) handleRelay(cl *client, env protocol.Envelope) {
	var p protocol.Addressed
	if err := protocol.DecodeData(env, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.conn.id)).Str("type", string(env.Type)).Msg("bad signaling payload")
		return
	}
	if p.To == "" {
		log.Warn().Str("module", "signal").Str("sid", string(cl.conn.id)).Str("type", string(env.Type)).Msg("signaling payload without target")
		return
	}
	ctl.Orch.Relay(cl.conn.id, env.Type, p.To, env.Data)
}
