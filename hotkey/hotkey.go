// Package hotkey listens for a global double-Alt tap and turns it into a
// toggle callback.
package hotkey

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// libuiohook virtual key codes.
const (
	keyAltL  uint16 = 0x0038
	keyAltR  uint16 = 0x0E38 // AltGr on most layouts
	keyAltGr uint16 = 0xE038
)

var ErrAlreadyRunning = errors.New("hotkey listener already running")

// HotkeyManager delivers double-Alt taps from the global keyboard hook.
type HotkeyManager struct {
	onToggle func()

	mu      sync.Mutex
	tap     DoubleTap
	running bool
	stop    chan struct{}
}

// NewHotkeyManager creates a manager that calls onToggle on every double tap.
// onToggle runs on the listener goroutine and must not block.
func NewHotkeyManager(window time.Duration, onToggle func()) *HotkeyManager {
	return &HotkeyManager{
		onToggle: onToggle,
		tap:      DoubleTap{Window: window},
	}
}

// Start installs the global hook.
func (m *HotkeyManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrAlreadyRunning
	}

	events := hook.Start()
	m.running = true
	m.stop = make(chan struct{})
	go m.listen(events, m.stop)

	slog.Info("hotkey listener started", "window", m.tap.Window)
	return nil
}

// Stop removes the hook. It is safe to call when not running.
func (m *HotkeyManager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	hook.End()
	slog.Info("hotkey listener stopped")
}

func (m *HotkeyManager) listen(events chan hook.Event, stop chan struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handle(ev)
		case <-stop:
			return
		}
	}
}

func (m *HotkeyManager) handle(ev hook.Event) {
	when := ev.When
	if when.IsZero() {
		when = time.Now()
	}

	switch ev.Kind {
	case hook.KeyUp:
		if ev.Keycode != keyAltL {
			return
		}
		m.mu.Lock()
		fired := m.tap.Release(when)
		m.mu.Unlock()
		if fired {
			slog.Debug("double alt")
			m.onToggle()
		}
	case hook.KeyHold:
		// KeyHold is the raw press; KeyDown only carries typed characters.
		if isAlt(ev.Keycode) {
			return
		}
		m.mu.Lock()
		m.tap.OtherKey()
		m.mu.Unlock()
	}
}

func isAlt(code uint16) bool {
	return code == keyAltL || code == keyAltR || code == keyAltGr
}
