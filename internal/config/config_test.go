package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":8321" || cfg.StoreBackend != StoreMemory {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.ExtraPiecePenalty != 10 || cfg.LeaderboardSize != 200 {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestLoadRedisRequiresURL(t *testing.T) {
	t.Setenv("MEMCHESS_STORE", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("redis backend without REDIS_URL accepted")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != StoreRedis {
		t.Fatalf("backend = %s", cfg.StoreBackend)
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("MEMCHESS_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("postgres backend without DATABASE_URL accepted")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MEMCHESS_STORE", "etcd")
	if _, err := Load(); err == nil {
		t.Fatal("unknown backend accepted")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MEMCHESS_LISTEN_ADDR", ":9999")
	t.Setenv("MEMCHESS_PLAYER_NAME", "magnus")
	t.Setenv("MEMCHESS_EXTRA_PIECE_PENALTY", "25")
	t.Setenv("MEMCHESS_LEADERBOARD_SIZE", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" || cfg.PlayerName != "magnus" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ExtraPiecePenalty != 25 || cfg.LeaderboardSize != 50 {
		t.Fatalf("cfg = %+v", cfg)
	}
}
