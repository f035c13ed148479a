// Package logging sets up the background log. Failed remote calls are never shown inline; they
// land here as structured entries.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New opens (appending) the log file at path and returns a JSON logger at the given level.
// The returned closer releases the file.
func New(path, level string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New()
	logger.SetOutput(f)
	logger.SetFormatter(&log.JSONFormatter{})
	logger.SetLevel(ParseLevel(level))
	return logger, f, nil
}

// ParseLevel falls back to info for unknown names.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Discard is a logger that drops everything; used when no log file is configured and in tests.
func Discard() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard lets components accept a nil logger.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return Discard()
	}
	return logger
}
