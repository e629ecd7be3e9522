package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type AppConfig struct {
	ListenAddr string

	// memory | redis | postgres
	StoreBackend string
	RedisURL     string
	DatabaseURL  string

	PlayerName    string
	DefaultPreset string
	PresetDir     string

	ExtraPiecePenalty int
	LeaderboardSize   int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:        ":8321",
		StoreBackend:      "memory",
		PlayerName:        "player",
		DefaultPreset:     "normal",
		ExtraPiecePenalty: 10,
		LeaderboardSize:   200,
	}

	if v := strings.TrimSpace(os.Getenv("MEMCHESS_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MEMCHESS_STORE"))); v != "" {
		cfg.StoreBackend = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("MEMCHESS_PLAYER_NAME")); v != "" {
		cfg.PlayerName = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMCHESS_DEFAULT_PRESET")); v != "" {
		cfg.DefaultPreset = v
	}
	cfg.PresetDir = strings.TrimSpace(os.Getenv("MEMCHESS_PRESET_DIR"))

	if v := strings.TrimSpace(os.Getenv("MEMCHESS_EXTRA_PIECE_PENALTY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ExtraPiecePenalty = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MEMCHESS_LEADERBOARD_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LeaderboardSize = n
		}
	}

	switch cfg.StoreBackend {
	case StoreMemory:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for the redis store")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, errors.New("MEMCHESS_STORE must be memory, redis, or postgres")
	}

	return cfg, nil
}
