package signal

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/protocol"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump set deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.Opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cl *client) {
	c := cl.conn
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump closing")
		ctl.Orch.Disconnect(c.id)
		if ctl.Limiter != nil && !cl.user.Identified() {
			ctl.Limiter.Forget(cl.limitKey())
		}
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	})

	for {
		if ctx.Err() != nil {
			log.Info().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump ctx done")
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			logReadError(c.id, err)
			return
		}
		ctl.handleSignal(cl, data)
	}
}

func logReadError(sid domain.ConnID, err error) {
	ev := log.Debug()
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		ev = log.Warn()
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
	case errors.Is(err, io.EOF):
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
		ev = log.Error()
	}
	ev.Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
}

func (ctl *SignalWSController) handleSignal(cl *client, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.conn.id)).Msg("bad json")
		ctl.sendError(cl.conn, "bad_payload")
		return
	}

	switch {
	case env.Type == protocol.EventJoinRoom:
		ctl.handleJoinRoom(cl, env)
	case env.Type == protocol.EventLeaveRoom:
		ctl.handleLeaveRoom(cl, env)
	case env.Type == protocol.EventSendMessage:
		ctl.handleSendMessage(cl, env)
	case env.Type == protocol.EventJoinGroupCall:
		ctl.handleJoinGroupCall(cl, env)
	case env.Type == protocol.EventLeaveGroupCall:
		ctl.handleLeaveGroupCall(cl, env)
	case env.Type == protocol.EventGroupMessage:
		ctl.handleGroupMessage(cl, env)
	case env.Type.IsSignal():
		ctl.handleRelay(cl, env)
	case env.Type == protocol.EventPing:
		ctl.handlePing(cl.conn)
	case env.Type == protocol.EventWhoAmI:
		ctl.handleWhoAmI(cl)
	default:
		log.Warn().Str("module", "signal").Str("type", string(env.Type)).Msg("unknown signal")
		ctl.sendError(cl.conn, "unknown_type")
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, out protocol.Outbound) {
	b, err := protocol.Encode(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, reason string) {
	ctl.sendJSON(c, protocol.Outbound{Type: protocol.EventError, Data: protocol.Error{Error: reason}})
}
