package cli

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"minply.click/internal/config"
)

// setupLogging installs the default slog logger. Records at the configured
// level go to the rotating log file; --verbose also echoes everything to
// stderr, as text on a terminal and JSON otherwise.
func (c *CLI) setupLogging(cfg *config.Config, verbose bool, stderr io.Writer) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}

	var handlers []slog.Handler

	if cfg.FileLogging != nil && cfg.FileLogging.Enabled {
		logFilePath := c.configManager.ResolveLogFilePath(cfg.FileLogging.Filename)
		fileWriter := &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    cfg.FileLogging.MaxSizeMB,
			MaxBackups: cfg.FileLogging.MaxBackups,
			MaxAge:     cfg.FileLogging.MaxAgeDays,
			Compress:   cfg.FileLogging.Compress,
		}
		c.logCloser = fileWriter
		handlers = append(handlers, slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: level}))
	}

	if verbose {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		if c.isInteractiveTerminal(stderr) {
			handlers = append(handlers, slog.NewTextHandler(stderr, opts))
		} else {
			handlers = append(handlers, slog.NewJSONHandler(stderr, opts))
		}
	}

	var handler slog.Handler = slog.DiscardHandler
	switch len(handlers) {
	case 0:
	case 1:
		handler = handlers[0]
	default:
		handler = NewMultiLevelHandler(handlers...)
	}
	slog.SetDefault(slog.New(handler))

	slog.Debug("logging setup completed",
		"level", level.String(),
		"handlers", len(handlers),
		"file_enabled", cfg.FileLogging != nil && cfg.FileLogging.Enabled,
		"verbose", verbose)
}
