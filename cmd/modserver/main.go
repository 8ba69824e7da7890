package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"haven-modsync/internal/config"
	"haven-modsync/internal/discord"
	"haven-modsync/internal/moderation"
	"haven-modsync/internal/server"
	"haven-modsync/internal/storage"
	"haven-modsync/internal/webhook"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	if cfg.Server.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("storage init failed", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	client, err := discord.NewClient(cfg.Discord, logger)
	if err != nil {
		logger.Fatal("discord client init failed", zap.Error(err))
	}
	if !client.Configured() {
		logger.Info("discord sync disabled: bot token or guild id missing")
	}
	notifier, err := client.Notifier(cfg.Discord, logger)
	if err != nil {
		logger.Fatal("discord notifier init failed", zap.Error(err))
	}

	service := moderation.NewService(store, client, notifier, logger)
	receiver := webhook.NewReceiver(store, logger)
	srv := server.New(cfg.Server, store, service, store, receiver, logger)

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Router()}
	go func() {
		logger.Info("moderation server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}
