package zimgraph

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with zimgraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithArchive adds the archive UUID to every record.
func (l *Logger) WithArchive(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("archive", id),
	}
}

// LogImportBatch logs the running totals after one import batch.
func (l *Logger) LogImportBatch(ctx context.Context, stats ImportStats) {
	l.DebugContext(ctx, "import batch completed",
		"batch", stats.Batches,
		"entries", stats.Entries,
		"pages", stats.Pages,
		"failed", stats.Failed,
	)
}

// LogImport logs a finished bulk import.
func (l *Logger) LogImport(ctx context.Context, stats ImportStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "import failed",
			"entries", stats.Entries,
			"pages", stats.Pages,
			"error", err,
		)
		return
	}
	if stats.Failed > 0 || stats.Unsupported > 0 {
		l.WarnContext(ctx, "import completed with failures",
			"entries", stats.Entries,
			"pages", stats.Pages,
			"failed", stats.Failed,
			"unsupported", stats.Unsupported,
			"elapsed", stats.Elapsed,
		)
		return
	}
	l.InfoContext(ctx, "import completed",
		"entries", stats.Entries,
		"pages", stats.Pages,
		"skipped", stats.Skipped,
		"elapsed", stats.Elapsed,
	)
}

// LogExpand logs a frontier expansion.
func (l *Logger) LogExpand(ctx context.Context, seeds int, stats ExpandStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "expand failed",
			"seeds", seeds,
			"steps", stats.Steps,
			"added", stats.Added,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "expand completed",
		"seeds", seeds,
		"steps", stats.Steps,
		"added", stats.Added,
		"unresolved", stats.Unresolved,
	)
}

// LogSearch logs a graph query.
func (l *Logger) LogSearch(ctx context.Context, kind string, results, finalized int, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"kind", kind,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "search completed",
		"kind", kind,
		"results", results,
		"finalized", finalized,
		"duration", d,
	)
}

// LogSave logs a session save.
func (l *Logger) LogSave(ctx context.Context, strings, pages int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "session saved",
		"strings", strings,
		"pages", pages,
	)
}

// LogLoad logs a session load.
func (l *Logger) LogLoad(ctx context.Context, strings, pages int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "session loaded",
		"strings", strings,
		"pages", pages,
	)
}

// LogArticleFailure logs an article that could not be added.
func (l *Logger) LogArticleFailure(ctx context.Context, path string, err error) {
	l.WarnContext(ctx, "article not added",
		"path", path,
		"error", err,
	)
}
