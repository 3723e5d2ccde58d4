package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thehouse/internal/config"
	"thehouse/internal/db"
	"thehouse/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadSweeperFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := game.NewService(pool, cfg.Game, logger, nil, nil, nil)
	if err := svc.EnsureSchema(ctx); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	if cfg.RunOnce {
		if err := sweep(ctx, svc, cfg, logger); err != nil {
			logger.Error("sweep failed", "err", err)
			os.Exit(1)
		}
		logger.Info("sweeper run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	logger.Info("sweeper started",
		"interval", cfg.Interval.String(),
		"broadcast_retention", cfg.BroadcastRetention.String(),
		"idempotency_retention", cfg.IdempotencyRetention.String(),
	)
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper shutdown")
			return
		case <-ticker.C:
			if err := sweep(ctx, svc, cfg, logger); err != nil {
				logger.Error("sweep failed", "err", err)
				continue
			}
		}
	}
}

func sweep(ctx context.Context, svc *game.Service, cfg config.SweeperConfig, logger *slog.Logger) error {
	stats, err := svc.SweepExpired(ctx, cfg.BroadcastRetention, cfg.IdempotencyRetention)
	if err != nil {
		return err
	}
	pulse, err := svc.Analytics(ctx)
	if err != nil {
		return err
	}
	logger.Info("sweep complete",
		"broadcasts_pruned", stats.BroadcastsPruned,
		"idempotency_pruned", stats.IdempotencyPruned,
		"vault", pulse.VaultBalance,
		"plays_last_hour", pulse.PlaysLastHour,
	)
	return nil
}
