package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/schema"
)

type contextKey int

const (
	runKey contextKey = iota
	tabKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithRun annotates the logger with the engine run id if present.
func WithRun(ctx context.Context, runID string) pslog.Logger {
	log := pslog.Ctx(ctx)
	if runID != "" {
		if current, ok := ctx.Value(runKey).(string); ok && current == runID {
			return log
		}
		log = log.With("run", runID)
	}
	return log
}

// WithTab annotates the logger with a tab identifier.
func WithTab(ctx context.Context, tabID schema.TabID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if tabID != "" {
		if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// WithPartition annotates the logger with a window/key pair.
func WithPartition(log pslog.Logger, windowID schema.WindowID, key schema.GroupingKey) pslog.Logger {
	log = log.With("window", int64(windowID))
	if key != "" {
		log = log.With("key", key)
	}
	return log
}

// WithGroup annotates the logger with group metadata when available.
func WithGroup(log pslog.Logger, group schema.Group) pslog.Logger {
	if group.ID != "" {
		log = log.With("group", group.ID)
	}
	if group.Label != "" {
		log = log.With("label", group.Label)
	}
	return log
}

// ContextWithRun stores the run marker on the context for log de-duplication.
func ContextWithRun(ctx context.Context, runID string) context.Context {
	if ctx == nil || runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runKey, runID)
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithTabLogger annotates the context logger with the tab and marks
// the context so later WithTab calls do not repeat the field.
func ContextWithTabLogger(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	ctx = pslog.ContextWithLogger(ctx, WithTab(ctx, tabID))
	return ContextWithTab(ctx, tabID)
}

// ContextWithRunLogger attaches the logger and run marker to the context.
func ContextWithRunLogger(ctx context.Context, log pslog.Logger, runID string) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithRun(ctx, runID)
}

// RunID returns the run marker stored on the context, if any.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runKey).(string)
	return id
}
