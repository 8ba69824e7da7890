package discord

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"haven-modsync/internal/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// SyncOutcome reports a best-effort side effect. Attempted is false when the
// effect was skipped by policy (e.g. no webhook URL configured), which is not
// an error. Callers decide whether a failure is worth surfacing.
type SyncOutcome struct {
	Attempted bool
	Err       error
}

func (o SyncOutcome) Failed() bool { return o.Attempted && o.Err != nil }

// Notice describes a moderation action for the logging channel.
type Notice struct {
	Action          string
	TargetDiscordID string
	ModeratorName   string
	Reason          string
	Platform        string
	DurationMinutes int
}

// Notifier posts formatted moderation notices to a preconfigured logging
// webhook. A Notifier built without a webhook URL silently drops every post.
type Notifier struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
	colors       config.EmbedColors
	logger       *zap.Logger
}

// Notifier builds the logging-webhook notifier sharing this client's session.
func (c *Client) Notifier(cfg config.DiscordConfig, logger *zap.Logger) (*Notifier, error) {
	return NewNotifier(c.session, cfg.LogWebhookURL, cfg.EmbedColors, logger)
}

func NewNotifier(session *discordgo.Session, webhookURL string, colors config.EmbedColors, logger *zap.Logger) (*Notifier, error) {
	notifier := &Notifier{session: session, colors: colors, logger: logger}
	if webhookURL == "" {
		return notifier, nil
	}
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	notifier.webhookID = id
	notifier.webhookToken = token
	return notifier, nil
}

func (n *Notifier) Post(notice Notice) SyncOutcome {
	if n.session == nil || n.webhookID == "" {
		return SyncOutcome{}
	}
	embed := n.buildNoticeEmbed(notice)
	_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		n.logger.Warn("moderation notice post failed", zap.String("action", notice.Action), zap.Error(err))
	}
	return SyncOutcome{Attempted: true, Err: err}
}

func (n *Notifier) buildNoticeEmbed(notice Notice) *discordgo.MessageEmbed {
	color := n.colors.Action
	if notice.Action == "ban" || notice.Action == "kick" {
		color = n.colors.Warning
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: "<@" + notice.TargetDiscordID + ">", Inline: true},
		{Name: "Action", Value: notice.Action, Inline: true},
		{Name: "Platform", Value: notice.Platform, Inline: true},
	}
	if notice.ModeratorName != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Moderator", Value: notice.ModeratorName, Inline: true})
	}
	if notice.DurationMinutes > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Duration", Value: fmt.Sprintf("%d min", notice.DurationMinutes), Inline: true})
	}
	if notice.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: notice.Reason, Inline: false})
	}

	return &discordgo.MessageEmbed{
		Title:     "Moderation Action",
		Color:     color,
		Footer:    &discordgo.MessageEmbedFooter{Text: "Coastal Haven Moderation"},
		Timestamp: time.Now().Format(time.RFC3339),
		Fields:    fields,
	}
}

func parseWebhookURL(raw string) (string, string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, part := range parts {
		if part == "webhooks" && i+2 < len(parts) {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("unrecognized webhook url %q", raw)
}
