package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"haven-modsync/internal/bot"
	"haven-modsync/internal/config"

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

	if cfg.Discord.BotToken == "" || cfg.Discord.GuildID == "" {
		logger.Fatal("DISCORD_BOT_TOKEN and DISCORD_GUILD_ID are required")
	}
	if cfg.Bot.ReceiverURL == "" {
		logger.Fatal("BOT_RECEIVER_URL is required")
	}

	relay := bot.NewRelay(cfg.Bot.ReceiverURL, cfg.Bot.ReceiverSecret, logger)
	botSvc, err := bot.New(cfg, relay, logger)
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}

	if err := botSvc.Start(); err != nil {
		logger.Fatal("bot start failed", zap.Error(err))
	}
	logger.Info("bot started")

	httpServer := &http.Server{Addr: cfg.Bot.Addr, Handler: botSvc.Router()}
	go func() {
		logger.Info("bot api listening", zap.String("addr", cfg.Bot.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("bot api error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown requested")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	botSvc.Close()
}
