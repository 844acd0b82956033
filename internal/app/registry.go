package app

import (
	"sort"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry maps a user to the one connection currently serving it.
// A reverse index by connection keeps Unregister O(1).
// It is not safe for concurrent use: the orchestrator loop owns it.
type Registry struct {
	byUser map[domain.UserID]core.SignalConnection
	byConn map[domain.ConnID]domain.UserID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]core.SignalConnection),
		byConn: make(map[domain.ConnID]domain.UserID),
	}
}

// Register binds user to conn, last writer wins. The superseded connection,
// if any, is returned but not closed.
func (r *Registry) Register(user domain.UserID, conn core.SignalConnection) (core.SignalConnection, bool) {
	prev, replaced := r.byUser[user]
	if replaced {
		delete(r.byConn, prev.ID())
	}
	r.byUser[user] = conn
	r.byConn[conn.ID()] = user
	ev := log.Info().Str("module", "app.registry").Str("user", string(user)).Str("sid", string(conn.ID()))
	if replaced {
		ev = ev.Str("superseded", string(prev.ID()))
	}
	ev.Msg("registered connection")
	return prev, replaced
}

func (r *Registry) Resolve(user domain.UserID) (core.SignalConnection, bool) {
	conn, ok := r.byUser[user]
	return conn, ok
}

// UserOf reports the user a live connection is registered for.
func (r *Registry) UserOf(sid domain.ConnID) (domain.UserID, bool) {
	u, ok := r.byConn[sid]
	return u, ok
}

// Unregister removes the entry held by sid. It is a no-op for unknown or
// superseded connections.
func (r *Registry) Unregister(sid domain.ConnID) (domain.UserID, bool) {
	user, ok := r.byConn[sid]
	if !ok {
		return "", false
	}
	delete(r.byConn, sid)
	delete(r.byUser, user)
	log.Info().Str("module", "app.registry").Str("user", string(user)).Str("sid", string(sid)).Msg("unregistered connection")
	return user, true
}

func (r *Registry) Len() int { return len(r.byUser) }

// Users returns the online users sorted by id.
func (r *Registry) Users() []domain.UserID {
	out := make([]domain.UserID, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
