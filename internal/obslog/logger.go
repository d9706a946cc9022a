// Package obslog provides structured logging for the attribution engine
// using log/slog, grounded on the teacher's logging package: a package-level
// JSON logger with a buffered file writer, context-carried fields
// (session, component, query), and a fallback to stderr when the log file
// cannot be opened.
//
// Usage:
//
//	if err := obslog.Init(logPath); err != nil { ... }
//	defer obslog.Close()
//
//	ctx = obslog.WithComponent(ctx, "ingest")
//	obslog.Warn(ctx, "skipped corrupt shard line", slog.String("shard", name))
package obslog

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu           sync.RWMutex
	logger       *slog.Logger
	logFile      *os.File
	logBufWriter *bufio.Writer
)

// Init opens (creating if needed) logPath for append and directs all
// subsequent log calls to it as newline-delimited JSON. If the file cannot
// be opened, logging falls back to stderr and Init returns nil: a broken
// log path must never prevent the engine from running.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		logger = createLogger(os.Stderr)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(logBufWriter)
	return nil
}

// Close flushes and closes the log file, if one is open. Safe to call
// multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func createLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Debug logs at DEBUG level with context values extracted automatically.
func Debug(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelDebug, msg, attrs...) }

// Info logs at INFO level with context values extracted automatically.
func Info(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelInfo, msg, attrs...) }

// Warn logs at WARN level with context values extracted automatically.
func Warn(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelWarn, msg, attrs...) }

// Error logs at ERROR level with context values extracted automatically.
func Error(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelError, msg, attrs...) }

func log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := getLogger()

	var all []any
	if sid := stringFromContext(ctx, sessionIDKey); sid != "" {
		all = append(all, slog.String("session_id", sid))
	}
	if c := stringFromContext(ctx, componentKey); c != "" {
		all = append(all, slog.String("component", c))
	}
	if q := stringFromContext(ctx, queryIDKey); q != "" {
		all = append(all, slog.String("query_id", q))
	}
	all = append(all, attrs...)

	l.Log(context.Background(), level, msg, all...)
}
