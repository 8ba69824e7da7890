// Package bot runs the long-lived gateway connection to the chat platform. It
// holds no business logic: guild membership and ban events are relayed to the
// webhook receiver, and a small internal HTTP API lets the web app request
// role grants after identity verification.
package bot

import (
	"context"
	"time"

	"haven-modsync/internal/config"
	"haven-modsync/internal/webhook"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg     config.BotConfig
	guildID string
	session *discordgo.Session
	relay   *Relay
	logger  *zap.Logger
}

func New(cfg config.Config, relay *Relay, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans

	return &Bot{
		cfg:     cfg.Bot,
		guildID: cfg.Discord.GuildID,
		session: session,
		relay:   relay,
		logger:  logger,
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onGuildBanAdd)
	b.session.AddHandler(b.onGuildBanRemove)
	return b.session.Open()
}

func (b *Bot) Close() {
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.GuildID != b.guildID || event.User == nil {
		return
	}
	ctx := context.Background()
	resp, err := b.relay.Send(ctx, webhook.Event{
		Type:      webhook.EventUserJoin,
		DiscordID: event.User.ID,
	})
	if err != nil {
		b.logger.Warn("join relay failed", zap.String("discord_id", event.User.ID), zap.Error(err))
		return
	}
	if !resp.ShouldKick {
		return
	}
	// The receiver decided; the bot only executes the kick.
	reason := resp.Reason
	if reason == "" {
		reason = "Banned from Coastal Haven"
	}
	if err := session.GuildMemberDeleteWithReason(event.GuildID, event.User.ID, reason); err != nil {
		b.logger.Warn("rejoin kick failed", zap.String("discord_id", event.User.ID), zap.Error(err))
		return
	}
	b.logger.Info("kicked banned user on join", zap.String("discord_id", event.User.ID))
}

func (b *Bot) onGuildMemberRemove(_ *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.GuildID != b.guildID || event.User == nil {
		return
	}
	if _, err := b.relay.Send(context.Background(), webhook.Event{
		Type:      webhook.EventUserLeave,
		DiscordID: event.User.ID,
	}); err != nil {
		b.logger.Warn("leave relay failed", zap.String("discord_id", event.User.ID), zap.Error(err))
	}
}

func (b *Bot) onGuildBanAdd(_ *discordgo.Session, event *discordgo.GuildBanAdd) {
	if event.GuildID != b.guildID || event.User == nil {
		return
	}
	actorID := b.resolveAuditActor(event.GuildID, discordgo.AuditLogActionMemberBanAdd, event.User.ID)
	if _, err := b.relay.Send(context.Background(), webhook.Event{
		Type:               webhook.EventBanAdd,
		DiscordID:          event.User.ID,
		ModeratorDiscordID: actorID,
	}); err != nil {
		b.logger.Warn("ban relay failed", zap.String("discord_id", event.User.ID), zap.Error(err))
	}
}

func (b *Bot) onGuildBanRemove(_ *discordgo.Session, event *discordgo.GuildBanRemove) {
	if event.GuildID != b.guildID || event.User == nil {
		return
	}
	actorID := b.resolveAuditActor(event.GuildID, discordgo.AuditLogActionMemberBanRemove, event.User.ID)
	if _, err := b.relay.Send(context.Background(), webhook.Event{
		Type:               webhook.EventBanRemove,
		DiscordID:          event.User.ID,
		ModeratorDiscordID: actorID,
	}); err != nil {
		b.logger.Warn("unban relay failed", zap.String("discord_id", event.User.ID), zap.Error(err))
	}
}

// resolveAuditActor finds the moderator behind a native guild event by
// scanning recent audit-log entries for the target. Entries older than 30
// seconds by snowflake timestamp are discarded as stale.
func (b *Bot) resolveAuditActor(guildID string, actionType discordgo.AuditLogAction, targetID string) string {
	logs, err := b.session.GuildAuditLog(guildID, "", "", int(actionType), 5)
	if err != nil || logs == nil {
		return ""
	}
	for _, entry := range logs.AuditLogEntries {
		if entry == nil {
			continue
		}
		if targetID != "" && entry.TargetID != targetID {
			continue
		}
		ts, err := discordgo.SnowflakeTimestamp(entry.ID)
		if err == nil && time.Since(ts) > 30*time.Second {
			continue
		}
		return entry.UserID
	}
	return ""
}
