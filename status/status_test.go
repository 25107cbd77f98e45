package status

import (
	"sync"
	"testing"

	"go.aimuz.me/voxtype/internal/types"
)

type event struct {
	name string
	data any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) Emit(name string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name, data})
}

func TestChannelStartsIdle(t *testing.T) {
	c := New(nil)
	if got := c.Phase(); got != types.PhaseIdle {
		t.Errorf("Phase() = %q, want %q", got, types.PhaseIdle)
	}
	c.Set(types.PhaseRecording)
	c.Error("dropped")
}

func TestChannelPublishes(t *testing.T) {
	rec := &recorder{}
	c := New(rec)

	c.Set(types.PhaseRecording)
	c.Set(types.PhaseTranscribing)
	c.Error("No input audio device found")
	c.Set(types.PhaseIdle)

	want := []event{
		{EventStatusChanged, types.PhaseRecording},
		{EventStatusChanged, types.PhaseTranscribing},
		{EventError, "No input audio device found"},
		{EventStatusChanged, types.PhaseIdle},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(rec.events), len(want), rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, rec.events[i], want[i])
		}
	}
	if got := c.Phase(); got != types.PhaseIdle {
		t.Errorf("Phase() = %q, want idle", got)
	}
}

func TestPhaseWireNames(t *testing.T) {
	tests := []struct {
		phase types.Phase
		want  string
	}{
		{types.PhaseIdle, "idle"},
		{types.PhaseRecording, "recording"},
		{types.PhaseTranscribing, "transcribing"},
	}
	for _, tt := range tests {
		if string(tt.phase) != tt.want {
			t.Errorf("phase %q, want %q", tt.phase, tt.want)
		}
	}
}
