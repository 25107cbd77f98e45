// Package clipboard reads and writes the system text clipboard.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

var clipboardLock sync.Mutex

// GetText returns the current clipboard text.
func GetText() (string, error) {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()
	return clipboard.ReadAll()
}

// SetText replaces the clipboard text.
func SetText(text string) error {
	clipboardLock.Lock()
	defer clipboardLock.Unlock()
	return clipboard.WriteAll(text)
}

// Unsupported reports whether no clipboard backend is available
// (e.g. neither xclip, xsel nor wl-clipboard on Linux).
func Unsupported() bool {
	return clipboard.Unsupported
}
