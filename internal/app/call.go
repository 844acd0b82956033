package app

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

type CallState int

const (
	CallRinging CallState = iota
	CallAnswered
	CallDeclined
	CallUnreachable
	CallEnded
)

var callStateNames = [...]string{"ringing", "answered", "declined", "unreachable", "ended"}

func (s CallState) String() string {
	if int(s) < len(callStateNames) {
		return callStateNames[s]
	}
	return fmt.Sprintf("CallState(%d)", int(s))
}

func (s CallState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal states are never left again.
func (s CallState) Terminal() bool {
	return s == CallDeclined || s == CallUnreachable || s == CallEnded
}

var ErrInvalidTransition = errors.New("invalid call state transition")

var callTransitions = map[CallState][]CallState{
	CallRinging:  {CallAnswered, CallDeclined, CallEnded},
	CallAnswered: {CallEnded},
}

func canTransition(from, to CallState) bool {
	for _, s := range callTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CallAttempt is one 1:1 call from Caller to Callee.
type CallAttempt struct {
	Caller  domain.UserID `json:"caller"`
	Callee  domain.UserID `json:"callee"`
	State   CallState     `json:"state"`
	Started time.Time     `json:"started"`
	Updated time.Time     `json:"updated"`
}

func (a *CallAttempt) transition(to CallState, now time.Time) error {
	if !canTransition(a.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.State, to)
	}
	a.State = to
	a.Updated = now
	return nil
}

func (a *CallAttempt) involves(u domain.UserID) bool { return a.Caller == u || a.Callee == u }

type callKey struct{ a, b domain.UserID }

func pairKey(x, y domain.UserID) callKey {
	if x > y {
		x, y = y, x
	}
	return callKey{a: x, b: y}
}

// CallTable holds the non-terminal call attempts, one per user pair.
// It is not safe for concurrent use: the orchestrator loop owns it.
type CallTable struct {
	attempts map[callKey]*CallAttempt
	now      func() time.Time
}

func NewCallTable() *CallTable {
	return &CallTable{attempts: make(map[callKey]*CallAttempt), now: time.Now}
}

// Offer starts a new attempt, ending any live attempt between the same pair.
// An undelivered offer is born terminal and not kept.
func (t *CallTable) Offer(caller, callee domain.UserID, delivered bool) CallAttempt {
	now := t.now()
	key := pairKey(caller, callee)
	if old, ok := t.attempts[key]; ok {
		t.finish(key, old, CallEnded, now)
	}
	a := &CallAttempt{Caller: caller, Callee: callee, State: CallRinging, Started: now, Updated: now}
	if !delivered {
		a.State = CallUnreachable
		t.logAttempt(a)
		return *a
	}
	t.attempts[key] = a
	t.logAttempt(a)
	return *a
}

// Answer moves the ringing attempt placed by caller to answerer forward.
func (t *CallTable) Answer(answerer, caller domain.UserID) (CallAttempt, error) {
	return t.step(answerer, caller, CallAnswered)
}

// Decline ends the ringing attempt placed by caller to decliner.
func (t *CallTable) Decline(decliner, caller domain.UserID) (CallAttempt, error) {
	return t.step(decliner, caller, CallDeclined)
}

func (t *CallTable) step(callee, caller domain.UserID, to CallState) (CallAttempt, error) {
	key := pairKey(callee, caller)
	a, ok := t.attempts[key]
	if !ok || a.Callee != callee {
		return CallAttempt{}, fmt.Errorf("%w: no call from %s to %s", ErrInvalidTransition, caller, callee)
	}
	if to.Terminal() {
		if err := t.finish(key, a, to, t.now()); err != nil {
			return *a, err
		}
		return *a, nil
	}
	if err := a.transition(to, t.now()); err != nil {
		return *a, err
	}
	t.logAttempt(a)
	return *a, nil
}

// EndAll ends every live attempt involving user.
func (t *CallTable) EndAll(user domain.UserID) []CallAttempt {
	now := t.now()
	var out []CallAttempt
	for key, a := range t.attempts {
		if !a.involves(user) {
			continue
		}
		if err := t.finish(key, a, CallEnded, now); err == nil {
			out = append(out, *a)
		}
	}
	sortAttempts(out)
	return out
}

func (t *CallTable) finish(key callKey, a *CallAttempt, to CallState, now time.Time) error {
	if err := a.transition(to, now); err != nil {
		return err
	}
	delete(t.attempts, key)
	t.logAttempt(a)
	return nil
}

// Active returns the live attempts ordered by start time.
func (t *CallTable) Active() []CallAttempt {
	out := make([]CallAttempt, 0, len(t.attempts))
	for _, a := range t.attempts {
		out = append(out, *a)
	}
	sortAttempts(out)
	return out
}

func sortAttempts(out []CallAttempt) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.Before(out[j].Started)
		}
		return out[i].Caller < out[j].Caller
	})
}

func (t *CallTable) logAttempt(a *CallAttempt) {
	log.Info().
		Str("module", "app.call").
		Str("caller", string(a.Caller)).
		Str("callee", string(a.Callee)).
		Str("state", a.State.String()).
		Msg("call state")
}
