package app

import (
	"errors"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection that could not take a frame.
type Policy interface {
	OnBackPressure(room domain.RoomKey, conn core.SignalConnection, err error) BackpressureAction
}

// SimplePolicy kicks connections whose send queue is full and drops frames
// for connections that are already closing.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(_ domain.RoomKey, _ core.SignalConnection, err error) BackpressureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return KickMember
	}
	return DropFrame
}
