package app

import (
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
)

type fakeConn struct{ id domain.ConnID }

func (f *fakeConn) ID() domain.ConnID        { return f.id }
func (f *fakeConn) TrySend(core.Frame) error { return nil }
func (f *fakeConn) Close()                   {}

func conn(id string) *fakeConn { return &fakeConn{id: domain.ConnID(id)} }
