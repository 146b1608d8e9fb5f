package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/DoyleJ11/live-memory-backend/internal/deck"
	"github.com/DoyleJ11/live-memory-backend/internal/storage"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Addr           string
	GridSize       int
	Theme          deck.Theme
	RevealDelay    time.Duration
	StorageDriver  string
	RedisURL       string
	DatabaseURL    string
	LeaderboardKey string
	AllowedOrigins []string
	LogLevel       string
	Debug          bool
	PersistTimeout time.Duration
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from lookup, applying defaults for empty values.
func FromEnv(lookup func(string) string) (Config, error) {
	get := func(k, d string) string {
		if v := strings.TrimSpace(lookup(k)); v != "" {
			return v
		}
		return d
	}

	cfg := Config{
		Addr:           get("ADDR", ":8080"),
		StorageDriver:  get("STORAGE_DRIVER", storage.DriverMemory),
		RedisURL:       get("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:    get("DATABASE_URL", ""),
		LeaderboardKey: get("LEADERBOARD_KEY", "TIKTOK_MEMORY_LEADERBOARD"),
		AllowedOrigins: splitList(get("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       get("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.GridSize, err = strconv.Atoi(get("GRID_SIZE", "16")); err != nil {
		return Config{}, fmt.Errorf("%w: GRID_SIZE: %v", ErrInvalid, err)
	}
	if cfg.GridSize < 4 || cfg.GridSize%2 != 0 {
		return Config{}, fmt.Errorf("%w: GRID_SIZE must be even and at least 4, got %d", ErrInvalid, cfg.GridSize)
	}
	if cfg.Theme, err = deck.ParseTheme(get("DECK_THEME", "")); err != nil {
		return Config{}, fmt.Errorf("%w: DECK_THEME: %v", ErrInvalid, err)
	}
	if cfg.GridSize/2 > len(deck.Icons(cfg.Theme)) {
		return Config{}, fmt.Errorf("%w: theme %s has too few icons for GRID_SIZE %d", ErrInvalid, cfg.Theme, cfg.GridSize)
	}
	if cfg.RevealDelay, err = positiveDuration(get("REVEAL_DELAY", "1500ms")); err != nil {
		return Config{}, fmt.Errorf("%w: REVEAL_DELAY: %v", ErrInvalid, err)
	}
	if cfg.PersistTimeout, err = positiveDuration(get("PERSIST_TIMEOUT", "3s")); err != nil {
		return Config{}, fmt.Errorf("%w: PERSIST_TIMEOUT: %v", ErrInvalid, err)
	}
	if cfg.Debug, err = strconv.ParseBool(get("DEBUG", "false")); err != nil {
		return Config{}, fmt.Errorf("%w: DEBUG: %v", ErrInvalid, err)
	}

	switch cfg.StorageDriver {
	case storage.DriverMemory, storage.DriverRedis:
	case storage.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("%w: DATABASE_URL is required for the postgres driver", ErrInvalid)
		}
	default:
		return Config{}, fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalid, cfg.StorageDriver)
	}
	return cfg, nil
}

func positiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
