package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/voxtype/audiocapture"
	"go.aimuz.me/voxtype/config"
	"go.aimuz.me/voxtype/history"
	"go.aimuz.me/voxtype/hotkey"
	"go.aimuz.me/voxtype/internal/types"
	"go.aimuz.me/voxtype/logging"
	"go.aimuz.me/voxtype/status"
	"go.aimuz.me/voxtype/streaming"
	"go.aimuz.me/voxtype/stt"
	"go.aimuz.me/voxtype/telemetry"
	"go.aimuz.me/voxtype/typing"
)

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; the dictation state machine lives in
// the streaming coordinator.
type Service struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	status    *status.Channel
	coord     *streaming.Coordinator
	hotkey    *hotkey.HotkeyManager
	sessions  SessionAdapter
	telemetry *telemetry.Provider
	notifier  *notifier

	// UI references - set via Init
	app    *application.App
	window application.Window

	cancel   context.CancelFunc
	done     chan struct{}
	shutdown sync.Once

	// Version info (set by caller)
	version string
}

// New creates a new Service. Call Init() after Wails app is created.
func New(version string) *Service {
	return &Service{
		version:  version,
		notifier: newNotifier(),
	}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config, using defaults", "error", err)
		cfg = config.Default()
	}
	logging.Setup(cfg.LogLevel, os.Stderr)

	dataDir, err := config.DataDir()
	if err != nil {
		slog.Error("get data dir", "error", err)
	}

	s.start(cfg, dataDir, status.EmitterFunc(s.emit))
	s.setupHotkey(cfg.HotkeyWindow())
}

// start wires every component and launches the coordinator.
func (s *Service) start(cfg *config.Config, dataDir string, emit status.Emitter) {
	s.cfg = cfg

	s.setupTelemetry(cfg.MetricsAddr)
	s.setupHistory(cfg, dataDir)

	typer, err := typing.New(cfg.TypingMethod)
	if err != nil {
		slog.Error("init typing", "method", cfg.TypingMethod, "error", err)
		typer = unavailableTyper{err: err}
	}

	s.status = status.New(emit)
	s.coord = streaming.New(streaming.Options{
		NewRecorder:      s.newRecorder,
		Typer:            typer,
		Status:           s.status,
		Settings:         s.settings,
		OnSessionEnd:     s.onSessionEnd,
		Interval:         cfg.StreamInterval(),
		SilenceThreshold: cfg.SilenceThreshold,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := s.coord.Run(ctx); err != nil {
			slog.Error("coordinator stopped", "error", err)
		}
	}()
}

// Shutdown cleans up resources. Calls after the first are no-ops.
func (s *Service) Shutdown() {
	s.shutdown.Do(s.close)
}

func (s *Service) close() {
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	if err := s.sessions.Close(); err != nil {
		slog.Error("close history", "error", err)
	}
	if s.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.telemetry.Shutdown(ctx); err != nil {
			slog.Error("shutdown telemetry", "error", err)
		}
	}
}

func (s *Service) setupTelemetry(addr string) {
	p, err := telemetry.Setup("voxtype", s.version)
	if err != nil {
		slog.Error("init telemetry", "error", err)
		return
	}
	s.telemetry = p
	if err := p.Serve(addr); err != nil {
		slog.Error("serve metrics", "addr", addr, "error", err)
	}
}

func (s *Service) setupHistory(cfg *config.Config, dataDir string) {
	s.sessions.SetDebugDir(cfg.DebugAudioDir)
	if !cfg.History.Enabled || dataDir == "" {
		return
	}

	err := s.sessions.Open(filepath.Join(dataDir, "history"), history.Options{
		Retention: cfg.Retention(),
		KeepAudio: cfg.History.KeepAudio,
	})
	if err != nil {
		slog.Error("init history", "error", err)
	}
}

func (s *Service) setupHotkey(window time.Duration) {
	s.hotkey = hotkey.NewHotkeyManager(window, func() {
		// Never block the hook goroutine on a busy coordinator.
		go func() {
			if err := s.ToggleRecording(); err != nil {
				slog.Error("toggle from hotkey", "error", err)
			}
		}()
	})

	if err := s.hotkey.Start(); err != nil {
		slog.Error("start hotkey", "error", err)
	}
}

func (s *Service) newRecorder() (streaming.Recorder, error) {
	s.cfgMu.RLock()
	format := audiocapture.SampleFormat(s.cfg.SampleFormat)
	s.cfgMu.RUnlock()

	rec, err := audiocapture.New(audiocapture.Config{Format: format})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) settings() types.Settings {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Settings()
}

func (s *Service) onSessionEnd(r streaming.SessionReport) {
	s.sessions.Record(r, func(info types.SessionInfo) {
		s.emit(EventSessionSaved, info)
	})
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
	if name == EventError && s.notificationsEnabled() {
		s.notifier.notify(fmt.Sprint(data))
	}
}

func (s *Service) notificationsEnabled() bool {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg != nil && s.cfg.Notifications && s.notifier != nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Dictation
// ─────────────────────────────────────────────────────────────────────────────

// GetStatus returns the current dictation status.
func (s *Service) GetStatus() types.StatusInfo {
	return types.StatusInfo{
		Phase:       s.status.Phase(),
		ModelLoaded: s.coord.ModelLoaded(),
		Version:     s.version,
	}
}

// ToggleRecording starts or stops a dictation session.
func (s *Service) ToggleRecording() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.coord.Toggle(ctx)
}

// GetSettings returns the transcription settings.
func (s *Service) GetSettings() types.Settings {
	return s.settings()
}

// UpdateSettings validates, persists and applies new settings. A changed
// model is loaded by the coordinator; if that fails the current one stays.
func (s *Service) UpdateSettings(settings types.Settings) error {
	s.cfgMu.Lock()
	prev := *s.cfg
	s.cfg.SetSettings(settings)
	if err := s.cfg.Validate(); err != nil {
		*s.cfg = prev
		s.cfgMu.Unlock()
		return err
	}
	if err := s.cfg.Save(); err != nil {
		*s.cfg = prev
		s.cfgMu.Unlock()
		return fmt.Errorf("save config: %w", err)
	}
	next := s.cfg.Settings()
	s.cfgMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.coord.UpdateSettings(ctx, next)
}

// CheckModel reports whether the configured model can be loaded.
func (s *Service) CheckModel() bool {
	return stt.ConfigFromSettings(s.settings()).Usable() == nil
}

// ─────────────────────────────────────────────────────────────────────────────
// History
// ─────────────────────────────────────────────────────────────────────────────

// GetHistory returns recent sessions, newest first.
func (s *Service) GetHistory(limit int) ([]types.SessionInfo, error) {
	return s.sessions.List(limit)
}

// DeleteHistory removes a session from history.
func (s *Service) DeleteHistory(id string) error {
	return s.sessions.Delete(id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Window
// ─────────────────────────────────────────────────────────────────────────────

// ShowWindow shows and focuses the settings window.
func (s *Service) ShowWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// unavailableTyper reports why typing could not be set up on every use.
type unavailableTyper struct {
	err error
}

func (u unavailableTyper) TypeText(string) error {
	return fmt.Errorf("%w: %v", typing.ErrTypingFailed, u.err)
}
