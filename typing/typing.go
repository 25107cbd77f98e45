// Package typing appends text to the focused window.
package typing

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"

	"go.aimuz.me/voxtype/clipboard"
)

const (
	MethodPaste   = "paste"
	MethodXdotool = "xdotool"
)

var (
	ErrTypingFailed  = errors.New("typing failed")
	ErrUnknownMethod = errors.New("unknown typing method")
)

// Typer appends text to whatever window has focus. Text, once typed, cannot
// be taken back.
type Typer interface {
	TypeText(text string) error
}

// New returns the Typer for method.
func New(method string) (Typer, error) {
	switch method {
	case MethodPaste, "":
		return NewPasteTyper()
	case MethodXdotool:
		return &XdotoolTyper{bin: "xdotool"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

type clipboardRW interface {
	GetText() (string, error)
	SetText(text string) error
}

type systemClipboard struct{}

func (systemClipboard) GetText() (string, error) { return clipboard.GetText() }
func (systemClipboard) SetText(text string) error { return clipboard.SetText(text) }

// PasteTyper puts text on the clipboard and synthesises Ctrl+V, restoring the
// previous clipboard afterwards. It handles any Unicode the target accepts.
type PasteTyper struct {
	clip    clipboardRW
	paste   func() error
	sleep   func(time.Duration)
	settle  time.Duration // between clipboard write and paste
	restore time.Duration // between paste and clipboard restore
}

// NewPasteTyper creates the virtual keyboard used for Ctrl+V.
func NewPasteTyper() (*PasteTyper, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	// uinput needs a moment before the new device receives events.
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}

	return &PasteTyper{
		clip: systemClipboard{},
		paste: func() error {
			kb.Clear()
			kb.HasCTRL(true)
			kb.SetKeys(keybd_event.VK_V)
			return kb.Launching()
		},
		sleep:   time.Sleep,
		settle:  50 * time.Millisecond,
		restore: 100 * time.Millisecond,
	}, nil
}

func (p *PasteTyper) TypeText(text string) error {
	if text == "" {
		return nil
	}

	old, readErr := p.clip.GetText()
	if err := p.clip.SetText(text); err != nil {
		return fmt.Errorf("%w: set clipboard: %v", ErrTypingFailed, err)
	}
	p.sleep(p.settle)

	if err := p.paste(); err != nil {
		return fmt.Errorf("%w: paste: %v", ErrTypingFailed, err)
	}
	p.sleep(p.restore)

	if readErr == nil {
		if err := p.clip.SetText(old); err != nil {
			slog.Warn("restore clipboard", "error", err)
		}
	}
	return nil
}

// XdotoolTyper types text with `xdotool type`.
type XdotoolTyper struct {
	bin string
}

func (x *XdotoolTyper) TypeText(text string) error {
	if text == "" {
		return nil
	}

	out, err := exec.Command(x.bin, "type", "--clearmodifiers", "--delay", "0", "--", text).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: xdotool: %v: %s", ErrTypingFailed, err, out)
	}
	return nil
}
