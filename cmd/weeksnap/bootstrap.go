package main

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/config"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/logging"
)

// initLogging starts the log file and, with verbose, a debug copy on console.
func initLogging(cfg *config.Config, verbose bool, console io.Writer) error {
	consoleLevel := cfg.Logging.ConsoleLevel
	if verbose {
		consoleLevel = "debug"
	}

	return logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Path:         cfg.Logging.Path,
		Rotation:     parseRotationConfig(cfg.Logging.Rotation),
		Components:   cfg.Logging.Components,
		ConsoleLevel: consoleLevel,
		Console:      console,
	})
}

// parseRotationConfig converts the configured rotation settings. An empty or
// unparseable size falls back to the logging default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.DefaultRotationConfig()
	out.MaxAge = rc.MaxAge
	out.MaxBackups = rc.MaxBackups
	out.Daily = rc.Daily

	if rc.MaxSize != "" {
		if size, err := humanize.ParseBytes(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = int64(size)
		}
	}
	return out
}
