package uow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ILogger interface for logging.
type ILogger interface {
	Debugf(ctx context.Context, format string, args ...any)
	Infof(ctx context.Context, format string, args ...any)
	Warningf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
}

// ContextAttrsFunc extracts slog attributes from a context, e.g. the id of the unit of work.
type ContextAttrsFunc func(ctx context.Context) []slog.Attr

// SlogLogger implements ILogger interface using slog.Logger.
type SlogLogger struct {
	l     *slog.Logger
	msg   string
	attrs ContextAttrsFunc
}

var _ ILogger = (*SlogLogger)(nil)

// SlogOption option for SlogLogger.
type SlogOption func(*SlogLogger)

// WithContextAttrs adds the attributes returned by f to every record.
func WithContextAttrs(f ContextAttrsFunc) SlogOption {
	return func(s *SlogLogger) {
		s.attrs = f
	}
}

// NewSlogLogger returns new SlogLogger. Every record uses msg as its message and
// carries the formatted text in the "message" attribute.
func NewSlogLogger(l *slog.Logger, msg string, opts ...SlogOption) (*SlogLogger, error) {
	if l == nil {
		return nil, errors.New("NewSlogLogger: logger cannot be nil")
	}
	if msg == "" {
		return nil, errors.New("NewSlogLogger: msg cannot be empty")
	}

	s := &SlogLogger{
		l:   l,
		msg: msg,
	}
	for _, o := range opts {
		o(s)
	}

	return s, nil
}

func (s *SlogLogger) Debugf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelDebug, format, args...)
}

func (s *SlogLogger) Infof(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelInfo, format, args...)
}

func (s *SlogLogger) Warningf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelWarn, format, args...)
}

func (s *SlogLogger) Errorf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelError, format, args...)
}

func (s *SlogLogger) log(ctx context.Context, level slog.Level, format string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.l.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{slog.String("message", fmt.Sprintf(format, args...))}
	if s.attrs != nil {
		attrs = append(attrs, s.attrs(ctx)...)
	}
	s.l.LogAttrs(ctx, level, s.msg, attrs...)
}
