package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	appcfg "memchess/internal/config"
	"memchess/internal/store"
)

// storecheck verifies that the configured store backend is reachable and
// that the generic row operations round-trip against it.
func main() {
	_ = godotenv.Load()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var st store.Store
	switch cfg.StoreBackend {
	case appcfg.StoreRedis:
		st, err = store.NewRedisStore(cfg.RedisURL)
	case appcfg.StorePostgres:
		var pg *store.PostgresStore
		pg, err = store.NewPostgresStore(cfg.DatabaseURL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = pg.EnsureSchema(ctx)
			cancel()
			st = pg
		}
	default:
		st = store.NewMemoryStore()
	}
	if err != nil {
		log.Fatalf("%s store error: %v", cfg.StoreBackend, err)
	}
	defer st.Close()
	log.Printf("%s store connected", cfg.StoreBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	probe := fmt.Sprintf("storecheck-%d", time.Now().UnixNano())
	row := store.Row{
		"player_name":    probe,
		"rating":         1200,
		"streak":         0,
		"games_played":   0,
		"best_accuracy":  0,
		"last_played_at": time.Now().UTC().Format(time.RFC3339Nano),
		"updated_at":     time.Now().UTC().Format(time.RFC3339Nano),
		"created_at":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := st.Upsert(ctx, "training_profiles", row, "player_name"); err != nil {
		log.Fatalf("upsert error: %v", err)
	}
	rows, err := st.Select(ctx, "training_profiles", store.Row{"player_name": probe}, nil, 1)
	if err != nil {
		log.Fatalf("select error: %v", err)
	}
	if len(rows) != 1 {
		log.Fatalf("probe row not found after upsert")
	}
	if err := st.Delete(ctx, "training_profiles", store.Row{"player_name": probe}); err != nil {
		log.Fatalf("delete error: %v", err)
	}
	log.Println("row round-trip ok")

	n, err := st.IncrementMetric(ctx, "storecheck_runs", 1)
	if err != nil {
		log.Fatalf("metric error: %v", err)
	}
	log.Printf("metric ok: storecheck_runs=%d", n)
}
