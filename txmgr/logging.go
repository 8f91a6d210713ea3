package txmgr

import (
	"context"
	"log/slog"

	"github.com/n-r-w/uow"
	"go.uber.org/zap"
)

// LogKey is the name of the log attribute carrying the id of the unit of work.
// Named units get the unit name as a prefix, e.g. "reports_uow_id".
func LogKey(unit string) string {
	if unit == "" {
		return "uow_id"
	}
	return unit + "_uow_id"
}

// LogAttrs returns a uow.ContextAttrsFunc that adds the ids of the units of work
// bound to the context. Units without a bound resource are skipped.
func LogAttrs(units ...string) uow.ContextAttrsFunc {
	return func(ctx context.Context) []slog.Attr {
		var attrs []slog.Attr
		for _, unit := range logUnits(units) {
			if id := UnitOfWorkID(ctx, unit); id != "" {
				attrs = append(attrs, slog.String(LogKey(unit), id))
			}
		}
		return attrs
	}
}

// LogFields is LogAttrs for uow.ZapLogger.
func LogFields(units ...string) uow.ContextFieldsFunc {
	return func(ctx context.Context) []zap.Field {
		var fields []zap.Field
		for _, unit := range logUnits(units) {
			if id := UnitOfWorkID(ctx, unit); id != "" {
				fields = append(fields, zap.String(LogKey(unit), id))
			}
		}
		return fields
	}
}

// logUnits defaults to the unnamed unit.
func logUnits(units []string) []string {
	if len(units) == 0 {
		return []string{""}
	}
	return units
}
