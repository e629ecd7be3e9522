package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appcfg "memchess/internal/config"
	"memchess/internal/httpapi"
	"memchess/internal/obslog"
	"memchess/internal/preset"
	"memchess/internal/store"
	"memchess/internal/trainer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("store init error", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	presets, err := preset.New(cfg.PresetDir)
	if err != nil {
		logger.Fatal("preset init error", zap.Error(err))
	}

	svc := trainer.NewService(trainer.Options{
		Store:             st,
		PlayerName:        cfg.PlayerName,
		ExtraPiecePenalty: cfg.ExtraPiecePenalty,
		LeaderboardSize:   cfg.LeaderboardSize,
	})

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := svc.LoadProfile(loadCtx); err != nil {
		// A fresh in-memory profile still works; persisted rating catches up
		// on the next successful write.
		logger.Warn("profile load failed", zap.Error(err))
	}
	loadCancel()

	srv := httpapi.NewServer(svc, presets, cfg.DefaultPreset)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_listen", zap.String("addr", cfg.ListenAddr), zap.String("store", cfg.StoreBackend))
		errCh <- srv.ListenAndServe(cfg.ListenAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	_ = srv.Shutdown()
	svc.Close()
	_ = st.Close()
	_ = logger.Sync()
}

func openStore(cfg *appcfg.AppConfig) (store.Store, error) {
	switch cfg.StoreBackend {
	case appcfg.StoreRedis:
		return store.NewRedisStore(cfg.RedisURL)
	case appcfg.StorePostgres:
		st, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return store.NewMemoryStore(), nil
	}
}
