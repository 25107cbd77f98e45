// Package stt provides the speech-to-text Transcriber interface and its
// whisper.cpp and OpenAI implementations.
package stt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"go.aimuz.me/voxtype/internal/types"
)

// Backend names accepted in Config.Backend.
const (
	BackendWhisperLocal = "whisper-local"
	BackendOpenAI       = "openai"
)

// DefaultModelFile is the model looked up when no path is configured.
const DefaultModelFile = "ggml-large-v3-turbo.bin"

var (
	ErrModelLoadFailed     = errors.New("model load failed")
	ErrModelNotLoaded      = errors.New("model not loaded")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrUnknownBackend      = errors.New("unknown transcription backend")
)

// Transcriber turns 16 kHz mono samples into text.
//
// Implementations are not safe for concurrent use; a Transcriber is owned by
// a single goroutine for its whole life.
type Transcriber interface {
	// Name returns the backend identifier.
	Name() string

	// Transcribe decodes samples with the given language tag. Each call is
	// independent of previous calls. The result is trimmed and NFC-normalised.
	Transcribe(ctx context.Context, samples []float32, language string) (string, error)

	// Close releases the model.
	Close() error
}

// Config selects and parameterises a backend.
type Config struct {
	Backend   string
	ModelPath string // whisper-local

	APIKey  string // openai
	BaseURL string
	Model   string
}

// ConfigFromSettings extracts the transcriber part of the settings.
func ConfigFromSettings(s types.Settings) Config {
	return Config{
		Backend:   s.Backend,
		ModelPath: s.ModelPath,
		APIKey:    s.OpenAIAPIKey,
		BaseURL:   s.OpenAIBaseURL,
		Model:     s.OpenAIModel,
	}
}

func (c Config) backend() string {
	if c.Backend == "" {
		return BackendWhisperLocal
	}
	return c.Backend
}

// Key identifies the model a Config would load. Two configs with the same
// key load the same model.
func (c Config) Key() string {
	switch c.backend() {
	case BackendWhisperLocal:
		return BackendWhisperLocal + ":" + filepath.Clean(c.ModelPath)
	case BackendOpenAI:
		return BackendOpenAI + ":" + c.BaseURL + ":" + c.Model + ":" + c.APIKey
	default:
		return c.backend()
	}
}

// Usable reports whether the config points at something loadable: an existing
// model file for whisper-local, an API key for openai.
func (c Config) Usable() error {
	switch c.backend() {
	case BackendWhisperLocal:
		if c.ModelPath == "" {
			return errors.New("model path not set")
		}
		info, err := os.Stat(c.ModelPath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", c.ModelPath)
		}
		return nil
	case BackendOpenAI:
		if c.APIKey == "" {
			return errors.New("api key required")
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownBackend, c.Backend)
	}
}

// Open loads the transcriber described by cfg.
func Open(cfg Config) (Transcriber, error) {
	switch cfg.backend() {
	case BackendWhisperLocal:
		return NewWhisperLocal(cfg.ModelPath)
	case BackendOpenAI:
		return NewWhisperAPI(WhisperAPIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// DefaultModelPath returns ~/.voxtype/models/<DefaultModelFile>.
func DefaultModelPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".voxtype", "models", DefaultModelFile)
}

var (
	// regexTimestamp matches timestamps like [00:00:00.000 --> 00:00:04.000]
	regexTimestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s-->\s\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	// regexArtifacts matches whisper non-speech markers
	regexArtifacts = regexp.MustCompile(`(?i)\[(?:blank_audio|no_speech|silence|music|inaudible)\]|\((?:silence|music)\)`)
	regexSpaces    = regexp.MustCompile(`[ \t]{2,}`)
)

// cleanText strips decoder artifacts and normalises the transcript so that
// successive passes over the same speech compare equal.
func cleanText(text string) string {
	text = regexTimestamp.ReplaceAllString(text, "")
	text = regexArtifacts.ReplaceAllString(text, "")
	text = regexSpaces.ReplaceAllString(text, " ")
	text = norm.NFC.String(text)
	return strings.TrimSpace(text)
}
