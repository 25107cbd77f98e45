// Package audiocapture records the default microphone into an append-only
// buffer of mono float32 samples and hands them out at 16 kHz.
package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// TargetSampleRate is the rate every sample handed out by a Recorder has.
const TargetSampleRate = 16000

var (
	// ErrNoInputDevice is returned when the host has no default input device.
	ErrNoInputDevice = errors.New("no input audio device found")

	// ErrUnsupportedFormat is returned for sample formats other than f32 and i16.
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	// ErrAlreadyCapturing is returned when Start is called on a live recorder.
	ErrAlreadyCapturing = errors.New("already capturing audio")
)

// SampleFormat is the PCM format requested from the device.
type SampleFormat string

const (
	FormatF32 SampleFormat = "f32"
	FormatI16 SampleFormat = "i16"
)

// Config holds configuration for a Recorder.
type Config struct {
	Format      SampleFormat // default f32
	MaxChannels int          // upper bound on channels opened, default 2
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		Format:      FormatF32,
		MaxChannels: 2,
	}
}

// device describes an input device as reported by the driver.
type device struct {
	name       string
	sampleRate int
	channels   int
}

// stream is a live input stream owned by the driver.
type stream interface {
	Start() error
	Stop() error
	Close() error
}

// driver abstracts the host audio API.
type driver interface {
	defaultInput() (device, error)
	openF32(dev device, onData func([]float32)) (stream, error)
	openI16(dev device, onData func([]int16)) (stream, error)
	release() error
}

// Recorder captures from the default input device.
//
// Start, Snapshot and Stop are meant to be called from a single goroutine;
// the device callback only touches the internal Buffer.
type Recorder struct {
	drv  driver
	cfg  Config
	dev  device
	buf  Buffer
	live stream

	released bool
}

// New probes the default input device. It does not start capture.
func New(cfg Config) (*Recorder, error) {
	drv, err := newPortAudio()
	if err != nil {
		return nil, err
	}
	return newRecorder(drv, cfg)
}

func newRecorder(drv driver, cfg Config) (*Recorder, error) {
	if cfg.Format == "" {
		cfg.Format = FormatF32
	}
	if cfg.MaxChannels <= 0 {
		cfg.MaxChannels = 2
	}

	dev, err := drv.defaultInput()
	if err != nil {
		_ = drv.release()
		return nil, err
	}
	if dev.channels > cfg.MaxChannels {
		dev.channels = cfg.MaxChannels
	}

	slog.Info("audio device", "name", dev.name, "sample_rate", dev.sampleRate, "channels", dev.channels)
	return &Recorder{drv: drv, cfg: cfg, dev: dev}, nil
}

// SampleRate returns the native rate of the device being recorded.
func (r *Recorder) SampleRate() int {
	return r.dev.sampleRate
}

// Start opens an input stream and begins capturing. Previously captured
// samples are discarded.
func (r *Recorder) Start() error {
	if r.live != nil {
		return ErrAlreadyCapturing
	}
	r.buf.Reset()

	channels := r.dev.channels
	var (
		s   stream
		err error
	)
	switch r.cfg.Format {
	case FormatF32:
		s, err = r.drv.openF32(r.dev, func(data []float32) {
			r.buf.Append(DownmixF32(data, channels))
		})
	case FormatI16:
		s, err = r.drv.openI16(r.dev, func(data []int16) {
			r.buf.Append(DownmixI16(data, channels))
		})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, r.cfg.Format)
	}
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}

	if err := s.Start(); err != nil {
		_ = s.Close()
		return fmt.Errorf("start input stream: %w", err)
	}

	r.live = s
	slog.Info("recording started")
	return nil
}

// Snapshot returns a copy of everything captured so far at 16 kHz.
func (r *Recorder) Snapshot() []float32 {
	return Resample(r.buf.Snapshot(), r.dev.sampleRate, TargetSampleRate)
}

// Stop stops the stream and returns the captured samples at 16 kHz.
// The buffer is empty afterwards.
func (r *Recorder) Stop() []float32 {
	r.stopStream()
	raw := r.buf.Take()
	slog.Info("recording stopped", "samples", len(raw), "sample_rate", r.dev.sampleRate)
	_ = r.Close()
	return Resample(raw, r.dev.sampleRate, TargetSampleRate)
}

// Close stops capture if needed and releases the driver. It is safe to call
// more than once.
func (r *Recorder) Close() error {
	r.stopStream()
	if r.released {
		return nil
	}
	r.released = true
	return r.drv.release()
}

func (r *Recorder) stopStream() {
	if r.live == nil {
		return
	}
	if err := r.live.Stop(); err != nil {
		slog.Warn("stop input stream", "error", err)
	}
	if err := r.live.Close(); err != nil {
		slog.Warn("close input stream", "error", err)
	}
	r.live = nil
}

// Buffer is an append-only sample buffer shared between the device callback
// and its reader. The zero value is ready to use.
type Buffer struct {
	mu      sync.Mutex
	samples []float32
}

// Append adds samples to the end of the buffer.
func (b *Buffer) Append(samples []float32) {
	b.mu.Lock()
	b.samples = append(b.samples, samples...)
	b.mu.Unlock()
}

// Snapshot returns a copy of the buffered samples.
func (b *Buffer) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Take returns the buffered samples and empties the buffer.
func (b *Buffer) Take() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.samples
	b.samples = nil
	if out == nil {
		out = []float32{}
	}
	return out
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.samples = nil
	b.mu.Unlock()
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
