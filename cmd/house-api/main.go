package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thehouse/internal/announce"
	"thehouse/internal/api"
	"thehouse/internal/audit"
	"thehouse/internal/auth"
	"thehouse/internal/config"
	"thehouse/internal/db"
	"thehouse/internal/game"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
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

	recorder, err := audit.NewFileRecorder(cfg.AuditLogPath, logger)
	if err != nil {
		logger.Error("audit log open failed", "err", err)
		os.Exit(1)
	}
	defer recorder.Close()

	announcer := buildAnnouncer(cfg, logger)
	gameSvc := game.NewService(pool, cfg.Game, logger, adminGate(cfg), recorder, announcer)

	if err := gameSvc.EnsureSchema(ctx); err != nil {
		logger.Error("schema init failed", "err", err)
		os.Exit(1)
	}

	server := api.New(cfg, logger, gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("house api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func adminGate(cfg config.APIConfig) auth.Capability {
	if cfg.AdminKeyBcrypt != "" {
		return auth.NewHashedKey(cfg.AdminKeyBcrypt)
	}
	return auth.NewStaticKey(cfg.AdminKey)
}

func buildAnnouncer(cfg config.APIConfig, logger *slog.Logger) announce.Announcer {
	if cfg.DiscordToken == "" || cfg.DiscordChannel == "" {
		return announce.Nop{}
	}
	d, err := announce.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
	if err != nil {
		logger.Warn("discord announcer disabled", "err", err)
		return announce.Nop{}
	}
	return d
}
