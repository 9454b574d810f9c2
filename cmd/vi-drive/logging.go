package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	logDir      = "logs"
	logFileName = "vi-drive.log"
	maxLogSize  = 10 * 1024 * 1024
)

// setupLogging routes logs to a rotating file while the terminal belongs to the renderer
// Without debug the logger is disabled and no file is created
func setupLogging(debug bool) (*os.File, zerolog.Logger) {
	if !debug {
		return nil, zerolog.Nop()
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, zerolog.Nop()
	}
	logPath := filepath.Join(logDir, logFileName)

	// Rotate oversized logs aside with a timestamp
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("vi-drive-%s.log", time.Now().Format("20060102-150405")))
		os.Rename(logPath, rotated)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, zerolog.Nop()
	}
	logger := zerolog.New(f).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	return f, logger
}

// consoleLogger writes human-readable logs to a terminal, JSON lines elsewhere
func consoleLogger(out *os.File, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	var w io.Writer = out
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}
