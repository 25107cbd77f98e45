package streaming

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "go.aimuz.me/voxtype/streaming"

type metrics struct {
	sessions   metric.Int64Counter
	ticks      metric.Int64Counter
	duration   metric.Float64Histogram
	typedBytes metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	m := &metrics{}

	var err error
	if m.sessions, err = meter.Int64Counter("voxtype.sessions",
		metric.WithDescription("Dictation sessions started")); err != nil {
		slog.Warn("failed to initialize metrics", "error", err)
	}
	if m.ticks, err = meter.Int64Counter("voxtype.stream.ticks",
		metric.WithDescription("Streaming ticks by result")); err != nil {
		slog.Warn("failed to initialize metrics", "error", err)
	}
	if m.duration, err = meter.Float64Histogram("voxtype.transcribe.duration",
		metric.WithDescription("Time spent in a single transcription pass"),
		metric.WithUnit("s")); err != nil {
		slog.Warn("failed to initialize metrics", "error", err)
	}
	if m.typedBytes, err = meter.Int64Counter("voxtype.typed.bytes",
		metric.WithDescription("Bytes handed to the typing sink"),
		metric.WithUnit("By")); err != nil {
		slog.Warn("failed to initialize metrics", "error", err)
	}
	return m
}

func (m *metrics) sessionStarted(ctx context.Context) {
	if m.sessions != nil {
		m.sessions.Add(ctx, 1)
	}
}

func (m *metrics) tick(ctx context.Context, result string) {
	if m.ticks != nil {
		m.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (m *metrics) transcribed(ctx context.Context, pass string, d time.Duration, err error) {
	if m.duration != nil {
		m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("pass", pass),
			attribute.Bool("error", err != nil),
		))
	}
}

func (m *metrics) typed(ctx context.Context, n int) {
	if m.typedBytes != nil {
		m.typedBytes.Add(ctx, int64(n))
	}
}
