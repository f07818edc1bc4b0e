// Package config resolves process settings from flags, the environment and
// an optional .env file, and builds the process logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
)

// Environment variables.
const (
	EnvDB      = "FLEETDESK_DB"
	EnvLogFile = "FLEETDESK_LOG_FILE"
	EnvFormat  = "FLEETDESK_FORMAT"
)

// DefaultDB is the database path used when nothing else is configured.
const DefaultDB = "fleetdesk.db"

// Config holds the resolved settings.
type Config struct {
	DBPath  string
	LogFile string
	Format  string
	Verbose bool
}

// LoadEnv loads .env style files into the environment without overriding
// variables that are already set. With no arguments it loads ./.env. A
// missing file is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Getenv returns the value of key, or fallback when it is unset or empty.
func Getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// FromEnv returns the settings taken from the environment.
func FromEnv() Config {
	return Config{
		DBPath:  Getenv(EnvDB, DefaultDB),
		LogFile: Getenv(EnvLogFile, ""),
		Format:  Getenv(EnvFormat, "text"),
	}
}

// Rotation limits for the log file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 7
	logMaxAgeDays = 7
)

// NewLogger builds the process logger. Records go to stderr, or to a
// rotating file when cfg.LogFile is set. Verbose enables debug records.
// The returned closer releases the log file; it is a no-op for stderr.
func NewLogger(cfg Config, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	w := stderr
	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    logMaxSizeMB,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAgeDays,
			Compress:   true,
		}
		w, closer = rotator, rotator
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
