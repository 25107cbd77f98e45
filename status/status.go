// Package status publishes the coordinator phase and errors to the shell.
package status

import (
	"sync"

	"go.aimuz.me/voxtype/internal/types"
)

// Event names seen by the frontend.
const (
	EventStatusChanged = "status-changed"
	EventError         = "error"
)

// Emitter delivers a named event to the shell.
type Emitter interface {
	Emit(name string, data any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(name string, data any)

func (f EmitterFunc) Emit(name string, data any) { f(name, data) }

// Channel holds the current phase. The coordinator is its only writer; any
// goroutine may read it.
type Channel struct {
	mu    sync.RWMutex
	phase types.Phase
	emit  Emitter
}

// New returns a Channel in PhaseIdle. A nil emitter drops events.
func New(emit Emitter) *Channel {
	if emit == nil {
		emit = EmitterFunc(func(string, any) {})
	}
	return &Channel{phase: types.PhaseIdle, emit: emit}
}

// Phase returns the current phase.
func (c *Channel) Phase() types.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Set records a transition and publishes it.
func (c *Channel) Set(p types.Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()

	c.emit.Emit(EventStatusChanged, p)
}

// Error publishes a human-readable error.
func (c *Channel) Error(msg string) {
	c.emit.Emit(EventError, msg)
}
