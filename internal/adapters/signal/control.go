package signal

import (
	"github.com/dkeye/VoiceRelay/internal/protocol"
)

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, protocol.Outbound{Type: protocol.EventPong})
}

func (ctl *SignalWSController) handleWhoAmI(cl *client) {
	ctl.Orch.WhoAmI(cl.conn.id)
}
