package stt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/voxtype/audiocapture"
)

const defaultAPIModel = "whisper-1"

// WhisperAPI transcribes through an OpenAI-compatible audio endpoint.
type WhisperAPI struct {
	client openai.Client
	model  string
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey  string
	BaseURL string // Optional, defaults to OpenAI's API
	Model   string // Optional, defaults to "whisper-1"
}

// NewWhisperAPI creates a new WhisperAPI transcriber.
func NewWhisperAPI(cfg WhisperAPIConfig) (*WhisperAPI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key required", ErrModelLoadFailed)
	}
	if cfg.Model == "" {
		cfg.Model = defaultAPIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &WhisperAPI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

func (w *WhisperAPI) Name() string { return BackendOpenAI }

// Transcribe uploads samples as a 16 kHz WAV file.
func (w *WhisperAPI) Transcribe(ctx context.Context, samples []float32, language string) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}

	f, err := os.CreateTemp("", "voxtype-*.wav")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrTranscriptionFailed, err)
	}
	defer func() {
		f.Close()
		os.Remove(f.Name())
	}()

	if err := audiocapture.EncodeWAV(f, samples, audiocapture.TargetSampleRate); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", fmt.Errorf("%w: rewind audio: %v", ErrTranscriptionFailed, err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(w.model),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	return cleanText(resp.Text), nil
}

func (w *WhisperAPI) Close() error {
	return nil
}
