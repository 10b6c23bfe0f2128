package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/brickgate/brickgate/internal/infrastructure/config"
)

// Logger wraps slog.Logger with service-wide default fields.
//
// Every record carries the service name and version so logs from the
// daemon, the command pipeline, and the telemetry publisher can be
// filtered together downstream.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the daemon's logging configuration.
//
// Format selects the handler (text for interactive use, JSON otherwise),
// Level filters records, and Output picks stdout or stderr. The service
// name and build version are attached as default attributes.
//
// Parameters:
//   - cfg: Logging section of config.yaml
//   - version: Build version for the default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	level := parseLevel(cfg.Level)

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "brickgate"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger carrying additional default attributes.
//
// Used to scope a logger to one subsystem, typically by robot or
// component:
//
//	log := logger.With("robot", cfg.Robot.Name)
//	log.Info("firmware verified", "version", fw)
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default creates a logger for use before configuration is loaded.
//
// It writes JSON to stdout at info level and reports the version as
// "dev"; run() replaces it as soon as config.Load succeeds.
//
// Returns:
//   - *Logger: Default logger
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
