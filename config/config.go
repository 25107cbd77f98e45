// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.aimuz.me/voxtype/audiocapture"
	"go.aimuz.me/voxtype/internal/types"
	"go.aimuz.me/voxtype/stt"
	"go.aimuz.me/voxtype/typing"
)

const (
	appName        = "voxtype"
	configFileName = "config.json"
)

// Config represents the application configuration.
type Config struct {
	// Transcription
	ModelPath     string `json:"model_path"`
	Language      string `json:"language"`
	Backend       string `json:"backend"`
	OpenAIAPIKey  string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
	OpenAIModel   string `json:"openai_model,omitempty"`

	// Capture and output
	TypingMethod     string  `json:"typing_method"`
	SampleFormat     string  `json:"sample_format"`
	StreamIntervalMS int     `json:"stream_interval_ms"`
	SilenceThreshold float32 `json:"silence_threshold"`
	HotkeyWindowMS   int     `json:"hotkey_window_ms"`

	History HistoryConfig `json:"history"`

	// Diagnostics
	DebugAudioDir string `json:"debug_audio_dir,omitempty"`
	MetricsAddr   string `json:"metrics_addr,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	Notifications bool   `json:"notifications"`

	path string
}

// HistoryConfig controls the session history store.
type HistoryConfig struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retention_days"` // 0 keeps forever
	KeepAudio     bool `json:"keep_audio"`
}

// Load loads configuration from the config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Save persists the configuration to the file it was loaded from, or to the
// default location.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
	}
	return c.SaveTo(path)
}

// SaveTo persists the configuration to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate rejects values no component accepts.
func (c *Config) Validate() error {
	if !slices.Contains([]string{stt.BackendWhisperLocal, stt.BackendOpenAI}, c.Backend) {
		return fmt.Errorf("%w: %s", stt.ErrUnknownBackend, c.Backend)
	}
	if c.Backend == stt.BackendOpenAI && c.OpenAIAPIKey == "" {
		return fmt.Errorf("api key required for openai backend")
	}
	if !slices.Contains([]string{typing.MethodPaste, typing.MethodXdotool}, c.TypingMethod) {
		return fmt.Errorf("%w: %s", typing.ErrUnknownMethod, c.TypingMethod)
	}
	switch audiocapture.SampleFormat(c.SampleFormat) {
	case audiocapture.FormatF32, audiocapture.FormatI16:
	default:
		return fmt.Errorf("%w: %s", audiocapture.ErrUnsupportedFormat, c.SampleFormat)
	}
	if c.StreamIntervalMS < 500 {
		return fmt.Errorf("stream interval must be at least 500ms, got %dms", c.StreamIntervalMS)
	}
	if c.SilenceThreshold < 0 || c.SilenceThreshold >= 1 {
		return fmt.Errorf("silence threshold must be in [0, 1), got %v", c.SilenceThreshold)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("retention days must not be negative")
	}
	return nil
}

// Settings returns the part of the configuration the coordinator observes.
func (c *Config) Settings() types.Settings {
	return types.Settings{
		ModelPath:     c.ModelPath,
		Language:      c.Language,
		Backend:       c.Backend,
		OpenAIAPIKey:  c.OpenAIAPIKey,
		OpenAIBaseURL: c.OpenAIBaseURL,
		OpenAIModel:   c.OpenAIModel,
	}
}

// SetSettings copies s into the configuration. Empty fields fall back to
// defaults.
func (c *Config) SetSettings(s types.Settings) {
	c.ModelPath = s.ModelPath
	c.Language = s.Language
	c.Backend = s.Backend
	c.OpenAIAPIKey = s.OpenAIAPIKey
	c.OpenAIBaseURL = s.OpenAIBaseURL
	c.OpenAIModel = s.OpenAIModel
	c.applyDefaults()
}

// StreamInterval returns the time between streaming passes.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.StreamIntervalMS) * time.Millisecond
}

// HotkeyWindow returns the double-tap window.
func (c *Config) HotkeyWindow() time.Duration {
	return time.Duration(c.HotkeyWindowMS) * time.Millisecond
}

// Retention returns how long history entries are kept. Zero means forever.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// DataDir returns the directory for application data such as history.
func DataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

func configPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{
		History: HistoryConfig{
			Enabled:       true,
			RetentionDays: 30,
		},
		Notifications: true,
	}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ModelPath == "" {
		c.ModelPath = stt.DefaultModelPath()
	}
	if c.Language == "" {
		c.Language = "pl"
	}
	if c.Backend == "" {
		c.Backend = stt.BackendWhisperLocal
	}
	if c.Backend == stt.BackendOpenAI && c.OpenAIModel == "" {
		c.OpenAIModel = "whisper-1"
	}
	if c.TypingMethod == "" {
		c.TypingMethod = typing.MethodPaste
	}
	if c.SampleFormat == "" {
		c.SampleFormat = string(audiocapture.FormatF32)
	}
	if c.StreamIntervalMS == 0 {
		c.StreamIntervalMS = 3000
	}
	if c.HotkeyWindowMS == 0 {
		c.HotkeyWindowMS = 400
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
