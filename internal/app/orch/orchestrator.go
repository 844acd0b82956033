// Package orch owns all presence state and serializes every mutation of it
// on a single goroutine.
package orch

import (
	"context"
	"errors"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/protocol"
	"github.com/rs/zerolog/log"
)

const DefaultQueueSize = 1024

var ErrStopped = errors.New("orchestrator stopped")

type session struct {
	conn core.SignalConnection
	user domain.User
}

func (s *session) member() domain.Member { return domain.NewMember(&s.user, s.conn.ID()) }

func (s *session) peer() *protocol.Peer {
	p := protocol.PeerOf(s.member())
	return &p
}

// Orchestrator is the single owner of the registry, rooms and calls. Public
// methods enqueue work for Run; each one is applied atomically. Only the
// loop goroutine touches the unexported state.
type Orchestrator struct {
	Policy app.Policy

	registry *app.Registry
	rooms    *app.RoomManager
	calls    *app.CallTable

	sessions map[domain.ConnID]*session
	ops      chan func()
	done     chan struct{}
}

func New(policy app.Policy, queueSize int) *Orchestrator {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Orchestrator{
		Policy:   policy,
		registry: app.NewRegistry(),
		rooms:    app.NewRoomManager(),
		calls:    app.NewCallTable(),
		sessions: make(map[domain.ConnID]*session),
		ops:      make(chan func(), queueSize),
		done:     make(chan struct{}),
	}
}

// Run processes queued operations until ctx is done, then closes every
// connection it still knows about.
func (o *Orchestrator) Run(ctx context.Context) {
	log.Info().Str("module", "orch").Msg("event loop started")
	defer o.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-o.ops:
			o.exec(op)
		}
	}
}

// Done is closed once Run has returned.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

func (o *Orchestrator) shutdown() {
	close(o.done)
	for sid, s := range o.sessions {
		s.conn.Close()
		delete(o.sessions, sid)
	}
	log.Info().Str("module", "orch").Msg("event loop stopped")
}

func (o *Orchestrator) exec(op func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch").Interface("panic", r).Msg("handler panicked")
		}
	}()
	op()
}

func (o *Orchestrator) enqueue(op func()) bool {
	select {
	case o.ops <- op:
		return true
	case <-o.done:
		return false
	}
}

// query runs fn on the loop and waits for it to finish.
func (o *Orchestrator) query(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	op := func() {
		defer close(reply)
		fn()
	}
	select {
	case o.ops <- op:
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Connect records a new connection and, for identified users, binds it in
// the registry. Rooms the user is already in are rebound to conn.
func (o *Orchestrator) Connect(conn core.SignalConnection, user domain.User) {
	o.enqueue(func() {
		if user.Identified() && user.ID.IsAnonymous() {
			log.Warn().Str("module", "orch").Str("sid", string(conn.ID())).Str("user", string(user.ID)).Msg("reserved user id refused")
			conn.Close()
			return
		}
		s := &session{conn: conn, user: user}
		o.sessions[conn.ID()] = s
		if !user.Identified() {
			log.Info().Str("module", "orch").Str("sid", string(conn.ID())).Msg("anonymous connection")
			return
		}
		o.registry.Register(user.ID, conn)
		for _, key := range o.rooms.RoomsOf(user.ID) {
			res := o.rooms.Join(key, s.member())
			if res.Changed && key.Kind() == domain.RoomKindChat {
				o.notifyChat(key, res.Members)
			}
		}
	})
}

// Disconnect purges everything the connection owns. A connection that was
// superseded by a newer one for the same user owns nothing.
func (o *Orchestrator) Disconnect(sid domain.ConnID) {
	o.enqueue(func() {
		s, ok := o.sessions[sid]
		if !ok {
			return
		}
		delete(o.sessions, sid)
		if !s.user.Identified() {
			o.leaveAll(domain.AnonymousID(sid))
			log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("anonymous connection closed")
			return
		}
		user, live := o.registry.Unregister(sid)
		if !live {
			log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(s.user.ID)).Msg("superseded connection closed")
			return
		}
		o.leaveAll(user)
		o.calls.EndAll(user)
	})
}

// live returns the session behind sid, unless sid is an identified
// connection that a newer one for the same user has superseded.
func (o *Orchestrator) live(sid domain.ConnID) (*session, bool) {
	s, ok := o.sessions[sid]
	if !ok {
		return nil, false
	}
	if !s.user.Identified() {
		return s, true
	}
	if user, ok := o.registry.UserOf(sid); !ok || user != s.user.ID {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("user", string(s.user.ID)).Msg("event from superseded connection dropped")
		return nil, false
	}
	return s, true
}

func (o *Orchestrator) leaveAll(user domain.UserID) {
	for _, res := range o.rooms.RemoveUserFromAll(user) {
		o.notifyLeave(res)
	}
}

// send delivers out to a single connection.
func (o *Orchestrator) send(room domain.RoomKey, conn core.SignalConnection, out protocol.Outbound) {
	frame, err := protocol.Encode(out)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return
	}
	o.deliver(room, conn, frame)
}

// broadcast delivers out to every member of key, resolving each member's
// connection at dispatch time. Unreachable members are skipped.
func (o *Orchestrator) broadcast(key domain.RoomKey, out protocol.Outbound) int {
	members := o.rooms.MembersOf(key)
	if len(members) == 0 {
		return 0
	}
	frame, err := protocol.Encode(out)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode")
		return 0
	}
	sent := 0
	for _, m := range members {
		conn, ok := o.resolve(m)
		if !ok {
			continue
		}
		if o.deliver(key, conn, frame) {
			sent++
		}
	}
	log.Debug().Str("module", "orch").Str("room", string(key)).Str("type", string(out.Type)).Int("sent_to", sent).Int("members", len(members)).Msg("broadcast result")
	return sent
}

func (o *Orchestrator) resolve(m domain.Member) (core.SignalConnection, bool) {
	if m.Anonymous {
		s, ok := o.sessions[m.Conn]
		if !ok {
			return nil, false
		}
		return s.conn, true
	}
	return o.registry.Resolve(m.UserID)
}

func (o *Orchestrator) deliver(room domain.RoomKey, conn core.SignalConnection, frame core.Frame) bool {
	err := conn.TrySend(frame)
	if err == nil {
		return true
	}
	if o.Policy == nil {
		return false
	}
	switch o.Policy.OnBackPressure(room, conn, err) {
	case app.KickMember:
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(conn.ID())).Str("room", string(room)).Msg("kicking slow connection")
		conn.Close()
	case app.DropFrame, app.NoAction:
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(conn.ID())).Msg("frame dropped")
	}
	return false
}

func (o *Orchestrator) reject(s *session, reason string) {
	o.send("", s.conn, protocol.Outbound{Type: protocol.EventError, Data: protocol.Error{Error: reason}})
}

// Members returns the members of key in join order.
func (o *Orchestrator) Members(ctx context.Context, key domain.RoomKey) ([]domain.Member, error) {
	var out []domain.Member
	err := o.query(ctx, func() { out = o.rooms.MembersOf(key) })
	return out, err
}

// ListRooms returns every non-empty room.
func (o *Orchestrator) ListRooms(ctx context.Context) ([]app.RoomInfo, error) {
	var out []app.RoomInfo
	err := o.query(ctx, func() { out = o.rooms.List() })
	return out, err
}

// Online returns the users with a live registered connection.
func (o *Orchestrator) Online(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := o.query(ctx, func() {
		ids := o.registry.Users()
		out = make([]domain.User, 0, len(ids))
		for _, id := range ids {
			user := domain.User{ID: id, Username: string(id)}
			if conn, ok := o.registry.Resolve(id); ok {
				if s, ok := o.sessions[conn.ID()]; ok {
					user = s.user
				}
			}
			out = append(out, user)
		}
	})
	return out, err
}

func (o *Orchestrator) ActiveCalls(ctx context.Context) ([]app.CallAttempt, error) {
	var out []app.CallAttempt
	err := o.query(ctx, func() { out = o.calls.Active() })
	return out, err
}

// Sync returns once every operation queued before it has been applied.
func (o *Orchestrator) Sync(ctx context.Context) error {
	return o.query(ctx, func() {})
}
