package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/dgnsrekt/murmur/ui"
)

// defaultLogFile is used when MURMUR_LOG_FILE is set to "1" or "true".
func defaultLogFile() (string, error) {
	dir, err := gap.NewScope(gap.User, "murmur").CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "murmur.log"), nil
}

// setupLog sends logs to stderr, or to a file when one is configured. The
// returned func closes the file.
func setupLog(cfg ui.Config) (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	path := cfg.LogFile
	switch path {
	case "":
		return func() error { return nil }, nil
	case "1", "true":
		p, err := defaultLogFile()
		if err != nil {
			return nil, fmt.Errorf("unable to find log directory: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetLevel(log.DebugLevel)
	return f.Close, nil
}
