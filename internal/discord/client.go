// Package discord wraps the outbound chat-platform integration: bot-authenticated
// REST calls against a fixed guild and best-effort notification embeds posted to
// a logging webhook. Calls are one-shot with no retries; a failed call is
// reported to the caller and abandoned.
package discord

import (
	"errors"
	"time"

	"haven-modsync/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("discord integration not configured")

// Client issues moderation REST calls as the bot principal. A Client built
// without a bot token or guild id reports Configured() == false and rejects
// every call with ErrNotConfigured.
type Client struct {
	session *discordgo.Session
	guildID string
	logger  *zap.Logger
}

func NewClient(cfg config.DiscordConfig, logger *zap.Logger) (*Client, error) {
	client := &Client{guildID: cfg.GuildID, logger: logger}
	if cfg.BotToken == "" || cfg.GuildID == "" {
		return client, nil
	}
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	client.session = session
	return client, nil
}

// NewClientWithSession reuses an existing session, for processes that already
// own a gateway connection.
func NewClientWithSession(session *discordgo.Session, guildID string, logger *zap.Logger) *Client {
	return &Client{session: session, guildID: guildID, logger: logger}
}

// Configured reports whether both the bot token and the guild id are present.
// It gates whether cross-platform sync is attempted at all.
func (c *Client) Configured() bool {
	return c.session != nil && c.guildID != ""
}

func (c *Client) Ban(discordID, reason string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	// Delete one day of message history, matching the website's ban behavior.
	if err := c.session.GuildBanCreateWithReason(c.guildID, discordID, reason, 1); err != nil {
		c.logger.Error("guild ban failed", zap.String("discord_id", discordID), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) Unban(discordID string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.session.GuildBanDelete(c.guildID, discordID); err != nil {
		c.logger.Error("guild unban failed", zap.String("discord_id", discordID), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) Kick(discordID, reason string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.session.GuildMemberDeleteWithReason(c.guildID, discordID, reason); err != nil {
		c.logger.Error("guild kick failed", zap.String("discord_id", discordID), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) Timeout(discordID string, minutes int, reason string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if minutes <= 0 {
		minutes = 10
	}
	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := c.session.GuildMemberTimeout(c.guildID, discordID, &until); err != nil {
		c.logger.Error("guild timeout failed", zap.String("discord_id", discordID), zap.Error(err))
		return err
	}
	return nil
}
