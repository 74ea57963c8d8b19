// Package logging provides the append-only JSONL event log used by hooks.
//
// Each hook family writes to its own file, <logs-dir>/<family>.jsonl. Records
// have the shape
//
//	{"timestamp":"...","level":"INFO","event_type":"...","details":{...}}
//
// Usage:
//
//	if err := logging.Init(logsDir, "testing"); err != nil {
//	    // handle error
//	}
//	defer logging.Close()
//
//	ctx = logging.WithHook(ctx, "commit-gate")
//	logging.Info(ctx, "test_run_completed",
//	    slog.String("outcome", "passed"),
//	)
//
// Logging never affects a hook's decision: when the log file cannot be opened
// records go to stderr instead.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// LogLevelEnvVar is the environment variable that controls log level.
const LogLevelEnvVar = "HOOKLINE_LOG_LEVEL"

// FileExt is the extension of every log sink.
const FileExt = ".jsonl"

var familyPattern = regexp.MustCompile(`^[a-z][a-z0-9-]{0,63}$`)

var (
	// logger is the package-level logger instance
	logger *slog.Logger

	// logFile holds the current log file handle for cleanup
	logFile *os.File

	// logBufWriter wraps logFile with buffered I/O
	logBufWriter *bufio.Writer

	// mu protects logger, logFile and logBufWriter
	mu sync.RWMutex

	// logLevelGetter is an optional callback to get log level from settings.
	logLevelGetter func() string
)

// SetLogLevelGetter sets a callback used when HOOKLINE_LOG_LEVEL is unset.
func SetLogLevelGetter(getter func() string) {
	mu.Lock()
	defer mu.Unlock()
	logLevelGetter = getter
}

// ValidateFamily checks that a family name is safe to use as a file name.
func ValidateFamily(family string) error {
	if !familyPattern.MatchString(family) {
		return fmt.Errorf("invalid log family %q", family)
	}
	return nil
}

// Path returns the sink path for a family under logsDir.
func Path(logsDir, family string) string {
	return filepath.Join(logsDir, family+FileExt)
}

// Init opens the sink for a hook family, appending to <logsDir>/<family>.jsonl.
//
// If the file cannot be opened, falls back to stderr.
func Init(logsDir, family string) error {
	if err := ValidateFamily(family); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	levelStr := os.Getenv(LogLevelEnvVar)
	if levelStr == "" && logLevelGetter != nil {
		levelStr = logLevelGetter()
	}
	level := parseLogLevel(levelStr)
	if levelStr != "" && !isValidLogLevel(levelStr) {
		fmt.Fprintf(os.Stderr, "[hookline] Warning: invalid log level %q, defaulting to INFO\n", levelStr)
	}

	if err := os.MkdirAll(logsDir, 0o750); err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	f, err := os.OpenFile(Path(logsDir, family), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // family validated above
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(&lineWriter{w: logBufWriter}, level)
	return nil
}

// Close flushes and closes the log file. Safe to call multiple times.
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

// resetLogger resets the logger to nil (for testing).
func resetLogger() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	logger = nil
}

// getLogger returns the current logger, or a stderr logger if not initialized.
func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if logger == nil {
		return createLogger(os.Stderr, slog.LevelInfo)
	}
	return logger
}

// createLogger builds a JSON logger whose records carry event_type and a
// details object instead of slog's msg and flat attributes.
func createLogger(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			case slog.MessageKey:
				a.Key = "event_type"
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(w, opts)).WithGroup("details")
}

// lineWriter flushes after every record so concurrent processes appending to
// the same O_APPEND file never interleave partial lines.
type lineWriter struct {
	w *bufio.Writer
}

func (l *lineWriter) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("write log record: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return n, fmt.Errorf("flush log record: %w", err)
	}
	return n, nil
}

// parseLogLevel parses a log level string to slog.Level.
// Returns slog.LevelInfo for empty or invalid values.
func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isValidLogLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "":
		return true
	default:
		return false
	}
}

// Debug logs at DEBUG level with context values automatically extracted.
func Debug(ctx context.Context, eventType string, attrs ...any) {
	log(ctx, slog.LevelDebug, eventType, attrs...)
}

// Info logs at INFO level with context values automatically extracted.
func Info(ctx context.Context, eventType string, attrs ...any) {
	log(ctx, slog.LevelInfo, eventType, attrs...)
}

// Warn logs at WARN level with context values automatically extracted.
func Warn(ctx context.Context, eventType string, attrs ...any) {
	log(ctx, slog.LevelWarn, eventType, attrs...)
}

// Error logs at ERROR level with context values automatically extracted.
func Error(ctx context.Context, eventType string, attrs ...any) {
	log(ctx, slog.LevelError, eventType, attrs...)
}

// LogDuration logs an event with duration_ms calculated from start.
// Designed for use with defer:
//
//	defer logging.LogDuration(ctx, slog.LevelDebug, "hook_completed", time.Now())
func LogDuration(ctx context.Context, level slog.Level, eventType string, start time.Time, attrs ...any) {
	allAttrs := make([]any, 0, len(attrs)+1)
	allAttrs = append(allAttrs, slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	allAttrs = append(allAttrs, attrs...)
	log(ctx, level, eventType, allAttrs...)
}

func log(ctx context.Context, level slog.Level, eventType string, attrs ...any) {
	l := getLogger()

	var allAttrs []any
	for _, a := range attrsFromContext(ctx) {
		allAttrs = append(allAttrs, a)
	}
	allAttrs = append(allAttrs, attrs...)

	l.Log(context.Background(), level, eventType, allAttrs...)
}

func attrsFromContext(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	for _, k := range []struct {
		key  contextKey
		name string
	}{
		{invocationIDKey, "invocation_id"},
		{sessionIDKey, "session_id"},
		{componentKey, "component"},
		{hookKey, "hook"},
		{toolKey, "tool"},
	} {
		if s, ok := ctx.Value(k.key).(string); ok && s != "" {
			attrs = append(attrs, slog.String(k.name, s))
		}
	}
	return attrs
}
