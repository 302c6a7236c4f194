package notify

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level is the toast kind.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notice is one toast ready for display.
type Notice struct {
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Text      string    `json:"text"`    // Message with the level prefix applied
	Expires   time.Time `json:"expires"` // zero means the notice never goes stale
}

// Stale reports whether the notice outlived its display window at now.
func (n Notice) Stale(now time.Time) bool {
	return !n.Expires.IsZero() && now.After(n.Expires)
}

// Sink receives dispatched notices.
type Sink interface {
	Emit(ctx context.Context, n Notice)
}

// NoOpSink drops notices.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Notice) {}

// ChannelSink writes notices into a buffered channel.
type ChannelSink struct {
	notices chan Notice
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		notices: make(chan Notice, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, n Notice) {
	select {
	case s.notices <- n:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Notices() <-chan Notice {
	return s.notices
}

// WriterSink writes the display text, one notice per line.
type WriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{writer: w}
}

func (s *WriterSink) Emit(_ context.Context, n Notice) {
	if s == nil || s.writer == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = io.WriteString(s.writer, n.Text+"\n")
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, n Notice) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// ZapSink logs notices; error toasts at error level, warnings at warn.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Emit(_ context.Context, n Notice) {
	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.Time("at", n.Timestamp),
	}
	switch n.Level {
	case LevelError:
		s.logger.Error(n.Text, fields...)
	case LevelWarning:
		s.logger.Warn(n.Text, fields...)
	default:
		s.logger.Info(n.Text, fields...)
	}
}
