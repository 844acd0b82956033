package orch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/protocol"
)

// frame is an outbound frame as a client would read it.
type frame struct {
	Type protocol.EventType `json:"type"`
	From *protocol.Peer     `json:"from"`
	Data json.RawMessage    `json:"data"`
}

type recConn struct {
	id domain.ConnID

	mu     sync.Mutex
	frames []frame
	full   bool
	closed bool
}

func newConn(id string) *recConn { return &recConn{id: domain.ConnID(id)} }

func (c *recConn) ID() domain.ConnID { return c.id }

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	var fr frame
	if err := json.Unmarshal(f, &fr); err != nil {
		return err
	}
	c.frames = append(c.frames, fr)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// take returns and forgets everything received so far.
func (c *recConn) take() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.frames
	c.frames = nil
	return out
}

func ofType(frames []frame, t protocol.EventType) []frame {
	var out []frame
	for _, f := range frames {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func startOrch(t *testing.T) *Orchestrator {
	t.Helper()
	o := New(app.SimplePolicy{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go o.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-o.Done()
	})
	return o
}

func flush(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := o.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}
}

func connect(t *testing.T, o *Orchestrator, connID, userID string) *recConn {
	t.Helper()
	c := newConn(connID)
	o.Connect(c, domain.User{ID: domain.UserID(userID), Username: userID})
	return c
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func membersOf(t *testing.T, f frame) []domain.Member {
	t.Helper()
	var mu protocol.MembersUpdate
	if err := json.Unmarshal(f.Data, &mu); err != nil {
		t.Fatalf("members update: %v", err)
	}
	return mu.Members
}
