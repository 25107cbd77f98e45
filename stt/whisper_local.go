package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperLocal runs a ggml whisper model in-process through whisper.cpp.
// GPU acceleration is used when the linked library was built with it.
type WhisperLocal struct {
	model     whisper.Model
	modelPath string
	threads   uint
}

// NewWhisperLocal loads the model at modelPath.
func NewWhisperLocal(modelPath string) (*WhisperLocal, error) {
	cfg := Config{Backend: BackendWhisperLocal, ModelPath: modelPath}
	if err := cfg.Usable(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoadFailed, err)
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load whisper model %q: %v", ErrModelLoadFailed, modelPath, err)
	}

	slog.Info("whisper model loaded", "path", modelPath)
	return &WhisperLocal{
		model:     model,
		modelPath: modelPath,
		threads:   uint(max(1, runtime.NumCPU()/2)),
	}, nil
}

func (w *WhisperLocal) Name() string { return BackendWhisperLocal }

// Transcribe runs a greedy decode over samples. No text context is carried
// over from earlier calls.
func (w *WhisperLocal) Transcribe(ctx context.Context, samples []float32, language string) (string, error) {
	if len(samples) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("%w: create context: %v", ErrTranscriptionFailed, err)
	}
	if language != "" {
		if err := wctx.SetLanguage(language); err != nil {
			return "", fmt.Errorf("%w: set language %q: %v", ErrTranscriptionFailed, language, err)
		}
	}
	wctx.SetTranslate(false)
	wctx.SetThreads(w.threads)
	wctx.SetMaxContext(0)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("%w: process: %v", ErrTranscriptionFailed, err)
	}

	var sb strings.Builder
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: next segment: %v", ErrTranscriptionFailed, err)
		}
		sb.WriteString(seg.Text)
	}

	return cleanText(sb.String()), nil
}

// Close releases the whisper model resources.
func (w *WhisperLocal) Close() error {
	if w.model != nil {
		return w.model.Close()
	}
	return nil
}
