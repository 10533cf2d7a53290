// Package telemetry carries the thin observability hooks the pipeline
// emits through: structured logs, an in-process metrics registry, and an
// optional Kafka event stream for the external observability collaborator.
package telemetry

import (
	"crypto/rand"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide JSON logger and installs it as the
// slog default.
func NewLogger(level string) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromString(level),
	}))
	slog.SetDefault(log)
	return log
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Sampler decides whether a request's detail log line is emitted.
type Sampler struct {
	rate float64
}

// NewSampler clamps rate into [0,1].
func NewSampler(rate float64) *Sampler {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &Sampler{rate: rate}
}

// Should reports whether this request is in the sample.
func (s *Sampler) Should() bool {
	if s.rate >= 1 {
		return true
	}
	var b [1]byte
	if _, err := rand.Read(b[:]); err != nil {
		return true
	}
	return float64(b[0])/255.0 < s.rate
}
