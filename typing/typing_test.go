package typing

import (
	"errors"
	"os/exec"
	"testing"
	"time"
)

type fakeClipboard struct {
	content string
	readErr error
	setErr  error
	writes  []string
}

func (c *fakeClipboard) GetText() (string, error) { return c.content, c.readErr }
func (c *fakeClipboard) SetText(text string) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.writes = append(c.writes, text)
	c.content = text
	return nil
}

func newTestPaster(clip *fakeClipboard, pasteErr error) (*PasteTyper, *[]string) {
	var pasted []string
	p := &PasteTyper{
		clip: clip,
		paste: func() error {
			if pasteErr != nil {
				return pasteErr
			}
			pasted = append(pasted, clip.content)
			return nil
		},
		sleep: func(time.Duration) {},
	}
	return p, &pasted
}

func TestPasteTyperRestoresClipboard(t *testing.T) {
	clip := &fakeClipboard{content: "previous"}
	p, pasted := newTestPaster(clip, nil)

	if err := p.TypeText("Cześć "); err != nil {
		t.Fatalf("TypeText: %v", err)
	}
	if len(*pasted) != 1 || (*pasted)[0] != "Cześć " {
		t.Errorf("pasted = %q, want [\"Cześć \"]", *pasted)
	}
	if clip.content != "previous" {
		t.Errorf("clipboard = %q, want restored %q", clip.content, "previous")
	}
}

func TestPasteTyperEmptyIsNoop(t *testing.T) {
	clip := &fakeClipboard{content: "keep"}
	p, pasted := newTestPaster(clip, nil)

	if err := p.TypeText(""); err != nil {
		t.Fatalf("TypeText: %v", err)
	}
	if len(*pasted) != 0 || len(clip.writes) != 0 {
		t.Errorf("expected no clipboard activity, got writes=%v pasted=%v", clip.writes, *pasted)
	}
}

func TestPasteTyperErrors(t *testing.T) {
	t.Run("paste fails", func(t *testing.T) {
		p, _ := newTestPaster(&fakeClipboard{}, errors.New("uinput denied"))
		if err := p.TypeText("x"); !errors.Is(err, ErrTypingFailed) {
			t.Errorf("expected ErrTypingFailed, got %v", err)
		}
	})
	t.Run("clipboard write fails", func(t *testing.T) {
		p, _ := newTestPaster(&fakeClipboard{setErr: errors.New("no xclip")}, nil)
		if err := p.TypeText("x"); !errors.Is(err, ErrTypingFailed) {
			t.Errorf("expected ErrTypingFailed, got %v", err)
		}
	})
	t.Run("unreadable clipboard is not restored", func(t *testing.T) {
		clip := &fakeClipboard{readErr: errors.New("empty")}
		p, _ := newTestPaster(clip, nil)
		if err := p.TypeText("x"); err != nil {
			t.Fatalf("TypeText: %v", err)
		}
		if len(clip.writes) != 1 {
			t.Errorf("writes = %v, want only the typed text", clip.writes)
		}
	})
}

func TestXdotoolTyper(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	if err := (&XdotoolTyper{bin: "true"}).TypeText("hello"); err != nil {
		t.Errorf("TypeText: %v", err)
	}
	if err := (&XdotoolTyper{bin: "false"}).TypeText("hello"); !errors.Is(err, ErrTypingFailed) {
		t.Errorf("expected ErrTypingFailed, got %v", err)
	}
	if err := (&XdotoolTyper{bin: "false"}).TypeText(""); err != nil {
		t.Errorf("empty text should be a no-op, got %v", err)
	}
}

func TestNewUnknownMethod(t *testing.T) {
	if _, err := New("morse"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
	typer, err := New(MethodXdotool)
	if err != nil {
		t.Fatalf("New(xdotool): %v", err)
	}
	if _, ok := typer.(*XdotoolTyper); !ok {
		t.Errorf("New(xdotool) = %T, want *XdotoolTyper", typer)
	}
}
