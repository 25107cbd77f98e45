package hotkey

import "time"

// DefaultWindow is the longest gap between two Alt releases that still
// counts as a double tap.
const DefaultWindow = 400 * time.Millisecond

// DoubleTap detects two releases of the modifier within a window with no
// other key pressed in between. The zero value uses DefaultWindow.
type DoubleTap struct {
	Window time.Duration

	armed       bool
	lastRelease time.Time
}

// Release records a modifier release at now and reports whether it completes
// a double tap. A completed tap disarms the detector.
func (d *DoubleTap) Release(now time.Time) bool {
	window := d.Window
	if window <= 0 {
		window = DefaultWindow
	}

	fired := d.armed && now.Sub(d.lastRelease) < window
	d.armed = !fired
	d.lastRelease = now
	return fired
}

// OtherKey disarms the detector.
func (d *DoubleTap) OtherKey() {
	d.armed = false
}
