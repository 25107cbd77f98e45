// Package streaming runs the dictation state machine: it owns the recorder
// and the transcriber, transcribes the growing recording on a fixed cadence
// and types only the part of the transcript that two consecutive passes agree
// on.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"go.aimuz.me/voxtype/audiocapture"
	"go.aimuz.me/voxtype/internal/types"
	"go.aimuz.me/voxtype/status"
	"go.aimuz.me/voxtype/stt"
	"go.aimuz.me/voxtype/typing"
)

const (
	// DefaultInterval is the time between streaming passes while recording.
	DefaultInterval = 3 * time.Second

	// MinSamples is the shortest snapshot worth transcribing (1 s at 16 kHz).
	MinSamples = audiocapture.TargetSampleRate

	// failureThreshold consecutive streaming failures raise one error event.
	failureThreshold = 3
)

// Recorder is the capture side of a session. *audiocapture.Recorder
// implements it.
type Recorder interface {
	Start() error
	Snapshot() []float32
	Stop() []float32
	Close() error
}

// CommandKind identifies a coordinator command.
type CommandKind int

const (
	CmdToggle CommandKind = iota
	CmdUpdateSettings
)

func (k CommandKind) String() string {
	switch k {
	case CmdToggle:
		return "toggle"
	case CmdUpdateSettings:
		return "update_settings"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a message to the coordinator goroutine.
type Command struct {
	Kind     CommandKind
	Settings types.Settings // CmdUpdateSettings only
}

// SessionReport describes a finished session.
type SessionReport struct {
	ID      string
	Started time.Time
	Ended   time.Time
	Audio   []float32 // 16 kHz mono, as seen by the final pass
	Final   string    // final transcript, empty if none was produced
	Typed   string    // everything handed to the typing sink
}

// Options configures a Coordinator.
type Options struct {
	// NewRecorder creates a recorder for a new session. Required.
	NewRecorder func() (Recorder, error)

	// OpenTranscriber loads a model. Defaults to stt.Open.
	OpenTranscriber func(stt.Config) (stt.Transcriber, error)

	// Typer receives stable text. Required.
	Typer typing.Typer

	// Status receives phase transitions and errors. Defaults to a
	// Channel that drops events.
	Status *status.Channel

	// Settings returns the current settings. It is called on every use.
	Settings func() types.Settings

	// OnSessionEnd, if set, is called on the coordinator goroutine at the
	// end of every session that reached the final pass.
	OnSessionEnd func(SessionReport)

	Interval         time.Duration // default DefaultInterval
	MinSamples       int           // default MinSamples
	SilenceThreshold float32       // per-frame RMS gate, 0 disables
}

// Coordinator serialises toggles, settings updates and streaming ticks on a
// single goroutine. The recorder and the transcriber never leave it.
type Coordinator struct {
	newRecorder func() (Recorder, error)
	open        func(stt.Config) (stt.Transcriber, error)
	typer       typing.Typer
	status      *status.Channel
	settings    func() types.Settings
	onEnd       func(SessionReport)
	interval    time.Duration
	minSamples  int
	silence     float32
	metrics     *metrics
	now         func() time.Time

	cmds   chan Command
	loaded atomic.Bool

	// Owned by the Run goroutine.
	phase       types.Phase
	transcriber stt.Transcriber
	modelKey    string
	rec         Recorder
	prevText    string
	typedLen    int
	committed   string // prevText[:typedLen] at the time it was typed
	typed       strings.Builder
	failures    int
	modelWarned bool
	sessionID   string
	started     time.Time
}

// New returns a Coordinator. Call Run to start it.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		newRecorder: opts.NewRecorder,
		open:        opts.OpenTranscriber,
		typer:       opts.Typer,
		status:      opts.Status,
		settings:    opts.Settings,
		onEnd:       opts.OnSessionEnd,
		interval:    opts.Interval,
		minSamples:  opts.MinSamples,
		silence:     opts.SilenceThreshold,
		metrics:     newMetrics(),
		now:         time.Now,
		cmds:        make(chan Command, 16),
		phase:       types.PhaseIdle,
	}
	if c.open == nil {
		c.open = stt.Open
	}
	if c.status == nil {
		c.status = status.New(nil)
	}
	if c.settings == nil {
		c.settings = func() types.Settings { return types.Settings{} }
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	if c.minSamples <= 0 {
		c.minSamples = MinSamples
	}
	return c
}

// Send queues cmd. Commands are handled in FIFO order.
func (c *Coordinator) Send(ctx context.Context, cmd Command) error {
	select {
	case c.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Toggle starts a session when idle and finishes it when recording.
func (c *Coordinator) Toggle(ctx context.Context) error {
	return c.Send(ctx, Command{Kind: CmdToggle})
}

// UpdateSettings asks the coordinator to reload the model if it changed.
func (c *Coordinator) UpdateSettings(ctx context.Context, s types.Settings) error {
	return c.Send(ctx, Command{Kind: CmdUpdateSettings, Settings: s})
}

// Run loads the configured model and processes commands until ctx is done.
// The streaming tick fires only while recording, Interval after the previous
// command or tick finished.
func (c *Coordinator) Run(ctx context.Context) error {
	c.loadModel(c.settings())
	defer c.shutdown()

	timer := time.NewTimer(c.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		var tick <-chan time.Time
		if c.phase == types.PhaseRecording {
			timer.Reset(c.interval)
			tick = timer.C
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		case <-tick:
			c.tick(ctx)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, cmd Command) {
	slog.Debug("coordinator command", "command", cmd.Kind, "phase", c.phase)

	switch cmd.Kind {
	case CmdToggle:
		switch c.phase {
		case types.PhaseIdle:
			c.startSession(ctx)
		case types.PhaseRecording:
			c.finishSession(ctx)
		case types.PhaseTranscribing:
			slog.Debug("toggle ignored while transcribing")
		}
	case CmdUpdateSettings:
		c.loadModel(cmd.Settings)
	}
}

func (c *Coordinator) setPhase(p types.Phase) {
	c.phase = p
	c.status.Set(p)
}

// ───────────────────────────────────────────────────────────────
// Session
// ───────────────────────────────────────────────────────────────

func (c *Coordinator) startSession(ctx context.Context) {
	if c.newRecorder == nil {
		c.fail("start recording", audiocapture.ErrNoInputDevice)
		return
	}
	rec, err := c.newRecorder()
	if err != nil {
		c.fail("start recording", err)
		return
	}
	if err := rec.Start(); err != nil {
		_ = rec.Close()
		c.fail("start recording", err)
		return
	}

	c.rec = rec
	c.resetSession()
	c.sessionID = uuid.NewString()
	c.started = c.now()
	c.metrics.sessionStarted(ctx)

	slog.Info("session started", "id", c.sessionID)
	c.setPhase(types.PhaseRecording)
}

func (c *Coordinator) finishSession(ctx context.Context) {
	c.setPhase(types.PhaseTranscribing)

	audio := c.rec.Snapshot()
	c.rec.Stop()
	c.rec = nil

	var final string
	if c.speechReady(audio) {
		text, err := c.transcribe(ctx, "final", audio)
		if err != nil {
			c.fail("final transcription", err)
		} else {
			final = text
			if len(final) > c.typedLen {
				c.typeText(ctx, suffixFrom(final, c.typedLen))
			}
		}
	}

	report := SessionReport{
		ID:      c.sessionID,
		Started: c.started,
		Ended:   c.now(),
		Audio:   audio,
		Final:   final,
		Typed:   c.typed.String(),
	}
	slog.Info("session finished", "id", report.ID, "samples", len(audio), "typed_bytes", len(report.Typed))

	c.resetSession()
	c.setPhase(types.PhaseIdle)

	if c.onEnd != nil {
		c.onEnd(report)
	}
}

func (c *Coordinator) resetSession() {
	c.prevText = ""
	c.typedLen = 0
	c.committed = ""
	c.typed.Reset()
	c.failures = 0
	c.modelWarned = false
}

// tick runs one streaming pass over everything recorded so far.
func (c *Coordinator) tick(ctx context.Context) {
	if c.phase != types.PhaseRecording || c.rec == nil {
		return
	}

	audio := c.rec.Snapshot()
	if !c.speechReady(audio) {
		c.metrics.tick(ctx, "skipped")
		return
	}

	curr, err := c.transcribe(ctx, "stream", audio)
	if err != nil {
		c.metrics.tick(ctx, "error")
		c.streamFailed(err)
		return
	}
	c.failures = 0
	c.metrics.tick(ctx, "ok")

	// Only extend what is already on screen; a pass that revised the
	// committed prefix can still agree with its successor.
	stable := StablePrefixLen(c.prevText, curr)
	if stable > c.typedLen && strings.HasPrefix(curr, c.committed) {
		chunk := curr[c.typedLen:stable]
		c.typedLen = stable
		c.committed = curr[:stable]
		c.typeText(ctx, chunk)
	}
	c.prevText = curr
}

func (c *Coordinator) streamFailed(err error) {
	if errors.Is(err, stt.ErrModelNotLoaded) {
		if !c.modelWarned {
			c.modelWarned = true
			c.fail("streaming transcription", err)
		}
		return
	}

	c.failures++
	slog.Error("streaming transcription", "error", err, "consecutive", c.failures)
	if c.failures == failureThreshold {
		c.status.Error(fmt.Sprintf("transcription keeps failing: %v", err))
	}
}

func (c *Coordinator) speechReady(audio []float32) bool {
	if len(audio) < c.minSamples {
		return false
	}
	return c.silence <= 0 || audiocapture.HasSpeech(audio, c.silence)
}

func (c *Coordinator) transcribe(ctx context.Context, pass string, audio []float32) (string, error) {
	if c.transcriber == nil {
		return "", stt.ErrModelNotLoaded
	}

	start := time.Now()
	text, err := c.transcriber.Transcribe(ctx, audio, c.settings().Language)
	c.metrics.transcribed(ctx, pass, time.Since(start), err)
	slog.Debug("transcribed", "pass", pass, "samples", len(audio), "elapsed", time.Since(start), "error", err)
	return text, err
}

// typeText hands text to the sink. A failed chunk is not retried.
func (c *Coordinator) typeText(ctx context.Context, text string) {
	if text == "" {
		return
	}
	slog.Debug("typing", "text", text)
	if err := c.typer.TypeText(text); err != nil {
		c.fail("type text", err)
		return
	}
	c.typed.WriteString(text)
	c.metrics.typed(ctx, len(text))
}

func (c *Coordinator) fail(op string, err error) {
	slog.Error(op, "error", err)
	c.status.Error(fmt.Sprintf("%s: %v", op, err))
}

// ───────────────────────────────────────────────────────────────
// Model
// ───────────────────────────────────────────────────────────────

// ModelLoaded reports whether a transcriber is loaded. Safe for concurrent use.
func (c *Coordinator) ModelLoaded() bool {
	return c.loaded.Load()
}

// loadModel replaces the transcriber when s points at a different, usable
// model. On any failure the current transcriber is kept.
func (c *Coordinator) loadModel(s types.Settings) {
	cfg := stt.ConfigFromSettings(s)
	key := cfg.Key()
	if c.transcriber != nil && key == c.modelKey {
		return
	}
	if err := cfg.Usable(); err != nil {
		slog.Warn("model not usable, keeping current", "backend", cfg.Backend, "path", cfg.ModelPath, "error", err)
		return
	}

	t, err := c.open(cfg)
	if err != nil {
		slog.Error("load model", "error", err)
		return
	}
	if c.transcriber != nil {
		if err := c.transcriber.Close(); err != nil {
			slog.Warn("close previous model", "error", err)
		}
	}
	c.transcriber = t
	c.modelKey = key
	c.loaded.Store(true)
	slog.Info("model loaded", "backend", t.Name(), "path", cfg.ModelPath)
}

func (c *Coordinator) shutdown() {
	if c.rec != nil {
		if err := c.rec.Close(); err != nil {
			slog.Warn("close recorder", "error", err)
		}
		c.rec = nil
		c.resetSession()
		c.setPhase(types.PhaseIdle)
	}
	if c.transcriber != nil {
		if err := c.transcriber.Close(); err != nil {
			slog.Warn("close model", "error", err)
		}
		c.transcriber = nil
		c.loaded.Store(false)
	}
}
