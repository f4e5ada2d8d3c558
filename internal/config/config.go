package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sadopc/studybat/internal/store"
)

const DefaultCheckInterval = time.Minute

// Config keeps runtime settings read at startup.
type Config struct {
	DBPath        string
	LogFile       string
	CheckInterval time.Duration
}

// Load reads an optional .env file, then environment variables with defaults.
// Variables already set in the environment win over the file.
func Load() (Config, error) {
	return LoadFile(".env")
}

func LoadFile(envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		DBPath:  strings.TrimSpace(os.Getenv("STUDYBAT_DB_PATH")),
		LogFile: strings.TrimSpace(os.Getenv("STUDYBAT_LOG_FILE")),
	}

	if cfg.DBPath == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return cfg, fmt.Errorf("default db path: %w", err)
		}
		cfg.DBPath = p
	}

	interval, err := parseInterval(strings.TrimSpace(os.Getenv("STUDYBAT_CHECK_INTERVAL")))
	if err != nil {
		return cfg, err
	}
	cfg.CheckInterval = interval

	return cfg, nil
}

func parseInterval(raw string) (time.Duration, error) {
	if raw == "" {
		return DefaultCheckInterval, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("STUDYBAT_CHECK_INTERVAL: %w", err)
	}
	if d < time.Second {
		return 0, fmt.Errorf("STUDYBAT_CHECK_INTERVAL must be at least 1s, got %s", d)
	}
	return d, nil
}
