package app

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

const notifyTitle = "Voxtype"

// notifier shows desktop notifications for errors, dropping repeats of the
// same message within a short interval.
type notifier struct {
	send func(title, message string) error

	mu       sync.Mutex
	last     string
	lastSent time.Time
	interval time.Duration
	now      func() time.Time
}

func newNotifier() *notifier {
	return &notifier{
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
		interval: 10 * time.Second,
		now:      time.Now,
	}
}

func (n *notifier) notify(message string) {
	n.mu.Lock()
	now := n.now()
	if message == n.last && now.Sub(n.lastSent) < n.interval {
		n.mu.Unlock()
		return
	}
	n.last = message
	n.lastSent = now
	n.mu.Unlock()

	if err := n.send(notifyTitle, message); err != nil {
		slog.Warn("desktop notification", "error", err)
	}
}
