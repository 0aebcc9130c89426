package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override settings.toml.
const (
	EnvHome     = "CRACK_HOME"
	EnvAPIURL   = "CRACK_API_URL"
	EnvLogLevel = "CRACK_LOG_LEVEL"
)

// Env holds overrides read from the process environment (and .env, if present).
type Env struct {
	Home     string
	APIURL   string
	LogLevel string
}

// LoadEnv loads a .env file from the working directory when one exists and
// returns the crack-specific overrides. A missing .env is not an error.
func LoadEnv() Env {
	_ = godotenv.Load()
	return Env{
		Home:     strings.TrimSpace(os.Getenv(EnvHome)),
		APIURL:   strings.TrimSpace(os.Getenv(EnvAPIURL)),
		LogLevel: strings.TrimSpace(os.Getenv(EnvLogLevel)),
	}
}

// DataDir returns the data directory: CRACK_HOME if set, else ~/.crack.
func (e Env) DataDir() string {
	if e.Home != "" {
		return e.Home
	}
	return DefaultDataDirPath()
}

// ParseLogLevel maps a level name onto slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

// NewLogger builds the text logger used across the core. Unknown levels fall
// back to warn.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
