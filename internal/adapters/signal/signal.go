package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRelay/internal/app/orch"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
)

// Options tunes every signaling socket.
type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
	SendBuffer int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 65536
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Opts    Options
	Limiter *RoomRateLimiter
}

func NewSignalWSController(o *orch.Orchestrator, opts Options, limiter *RoomRateLimiter) *SignalWSController {
	return &SignalWSController{
		Orch:    o,
		Opts:    opts.withDefaults(),
		Limiter: limiter,
	}
}

// WsSignalConn implements core.SignalConnection over a WebSocket.
type WsSignalConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		id:   domain.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) ID() domain.ConnID { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// client is the per-socket state the read loop works with.
type client struct {
	conn *WsSignalConn
	user domain.User
}

// limitKey is what the rate limiter counts against.
func (cl *client) limitKey() string {
	if cl.user.Identified() {
		return string(cl.user.ID)
	}
	return string(domain.AnonymousID(cl.conn.id))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and hands the connection to the
// orchestrator under user. An empty user id makes an anonymous connection.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, user domain.User) {
	// The handshake response bypasses c.Writer, so carry the session cookie over.
	var hdr http.Header
	if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
		hdr = http.Header{"Set-Cookie": cookies}
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, hdr)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.Opts.SendBuffer)
	log.Info().Str("module", "signal").Str("sid", string(conn.id)).Str("user", string(user.ID)).Msg("new WS connection")

	ctl.Orch.Connect(conn, user)

	cl := &client{conn: conn, user: user}
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cl)
}
