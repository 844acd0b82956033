package core

import (
	"errors"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

// Frame is one encoded outbound message.
type Frame []byte

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() domain.ConnID
	// TrySend queues f without blocking. It returns ErrBackpressure when the
	// queue is full and ErrConnClosed after Close.
	TrySend(f Frame) error
	Close()
}
