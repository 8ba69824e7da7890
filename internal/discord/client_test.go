package discord

import (
	"errors"
	"testing"

	"haven-modsync/internal/config"

	"go.uber.org/zap"
)

func TestClientUnconfiguredWithoutCredentials(t *testing.T) {
	client, err := NewClient(config.DiscordConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Configured() {
		t.Fatalf("client without credentials must not report configured")
	}

	if err := client.Ban("D1", "spam"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := client.Unban("D1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := client.Kick("D1", "spam"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := client.Timeout("D1", 10, "spam"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClientConfiguredRequiresGuild(t *testing.T) {
	client, err := NewClient(config.DiscordConfig{BotToken: "token"}, zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Configured() {
		t.Fatalf("client without guild id must not report configured")
	}
}
