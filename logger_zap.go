package uow

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ContextFieldsFunc extracts log fields from a context, e.g. a request id.
type ContextFieldsFunc func(ctx context.Context) []zap.Field

// ZapLogger implements ILogger interface using zap.Logger.
type ZapLogger struct {
	l      *zap.Logger
	fields ContextFieldsFunc
}

var _ ILogger = (*ZapLogger)(nil)

// NewZapLogger returns new ZapLogger. fields may be nil.
func NewZapLogger(l *zap.Logger, fields ContextFieldsFunc) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}

	return &ZapLogger{
		l:      l,
		fields: fields,
	}
}

func (z *ZapLogger) Debugf(ctx context.Context, format string, args ...any) {
	z.l.Debug(fmt.Sprintf(format, args...), z.contextFields(ctx)...)
}

func (z *ZapLogger) Infof(ctx context.Context, format string, args ...any) {
	z.l.Info(fmt.Sprintf(format, args...), z.contextFields(ctx)...)
}

func (z *ZapLogger) Warningf(ctx context.Context, format string, args ...any) {
	z.l.Warn(fmt.Sprintf(format, args...), z.contextFields(ctx)...)
}

func (z *ZapLogger) Errorf(ctx context.Context, format string, args ...any) {
	z.l.Error(fmt.Sprintf(format, args...), z.contextFields(ctx)...)
}

// Sync flushes buffered log entries.
func (z *ZapLogger) Sync() error {
	return z.l.Sync()
}

func (z *ZapLogger) contextFields(ctx context.Context) []zap.Field {
	if z.fields == nil || ctx == nil {
		return nil
	}
	return z.fields(ctx)
}
