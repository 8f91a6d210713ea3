package gormx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/n-r-w/uow"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Logger is a gorm logger that writes to uow.ILogger.
type Logger struct {
	l             uow.ILogger
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

var _ logger.Interface = (*Logger)(nil)

// ParseLogLevel converts one of silent, error, warn, info to the gorm log level.
// An empty level is info.
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent, nil
	case "error":
		return logger.Error, nil
	case "warn":
		return logger.Warn, nil
	case "info", "":
		return logger.Info, nil
	default:
		return 0, fmt.Errorf("%w: unknown gorm log level %q", uow.ErrConfiguration, level)
	}
}

// NewLogger creates a gorm logger. level is one of silent, error, warn, info, unknown levels are info.
func NewLogger(l uow.ILogger, level string) *Logger {
	logLevel, err := ParseLogLevel(level)
	if err != nil {
		logLevel = logger.Info
	}

	return &Logger{
		l:             l,
		logLevel:      logLevel,
		slowThreshold: time.Second,
	}
}

// LogMode sets the log level for the logger
func (g *Logger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *g
	newLogger.logLevel = level
	return &newLogger
}

// WithSlowThreshold returns a new logger with updated slow threshold
func (g *Logger) WithSlowThreshold(threshold time.Duration) *Logger {
	newLogger := *g
	newLogger.slowThreshold = threshold
	return &newLogger
}

func (g *Logger) Info(ctx context.Context, msg string, data ...any) {
	if g.l != nil && g.logLevel >= logger.Info {
		g.l.Infof(ctx, msg, data...)
	}
}

func (g *Logger) Warn(ctx context.Context, msg string, data ...any) {
	if g.l != nil && g.logLevel >= logger.Warn {
		g.l.Warningf(ctx, msg, data...)
	}
}

func (g *Logger) Error(ctx context.Context, msg string, data ...any) {
	if g.l != nil && g.logLevel >= logger.Error {
		g.l.Errorf(ctx, msg, data...)
	}
}

// Trace logs SQL operations
func (g *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.l == nil || g.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	msg := fmt.Sprintf("sql=%q rows=%d elapsed=%s", uow.TruncSQL(sql), rows, elapsed)

	switch {
	case err != nil && g.logLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		g.l.Errorf(ctx, "SQL error: %v %s", err, msg)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.logLevel >= logger.Warn:
		g.l.Warningf(ctx, "slow SQL: %s", msg)
	case g.logLevel >= logger.Info:
		g.l.Debugf(ctx, "SQL: %s", msg) // debug level for regular queries to reduce noise
	}
}
