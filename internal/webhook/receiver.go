// Package webhook ingests event callbacks from the chat platform and from
// third-party moderation bots, and mirrors their state onto internal accounts.
// Delivery is at-least-once: ban/unban mirroring checks current state before
// mutating, so redelivery of those events is a no-op. Other event kinds are
// not deduplicated.
package webhook

import (
	"context"
	"time"

	"haven-modsync/internal/storage"

	"go.uber.org/zap"
)

const (
	EventReport    = "REPORT"
	EventModAction = "MOD_ACTION"
	EventUserJoin  = "USER_JOIN"
	EventUserLeave = "USER_LEAVE"
	EventBanAdd    = "BAN_ADD"
	EventBanRemove = "BAN_REMOVE"
)

const discordBanReason = "Banned from Discord server"

// Event is the discriminated inbound payload. Only the fields relevant to the
// given Type are populated by callers.
type Event struct {
	Type               string `json:"type"`
	DiscordID          string `json:"discord_id,omitempty"`
	ModeratorDiscordID string `json:"moderator_discord_id,omitempty"`
	Action             string `json:"action,omitempty"`
	Reason             string `json:"reason,omitempty"`
	DurationMinutes    int    `json:"duration_minutes,omitempty"`
	ReporterDiscordID  string `json:"reporter_discord_id,omitempty"`
	ReportedDiscordID  string `json:"reported_discord_id,omitempty"`
	Evidence           string `json:"evidence,omitempty"`
}

// Response is returned to the delivering party. ShouldKick instructs the bot
// to kick a freshly joined user who is banned on the website; the receiver
// itself never issues the kick.
type Response struct {
	Success    bool   `json:"success"`
	ShouldKick bool   `json:"should_kick,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type Store interface {
	GetAccountByDiscordID(ctx context.Context, discordID string) (*storage.Account, error)
	SetBan(ctx context.Context, id, reason, bannedBy string, at time.Time) error
	ClearBan(ctx context.Context, id string) error
	AddModerationAction(ctx context.Context, action storage.ModerationAction) (int64, error)
	AddReport(ctx context.Context, report storage.Report) (int64, error)
}

type Receiver struct {
	store  Store
	logger *zap.Logger
}

func NewReceiver(store Store, logger *zap.Logger) *Receiver {
	return &Receiver{store: store, logger: logger}
}

func (r *Receiver) Handle(ctx context.Context, event Event) (Response, error) {
	switch event.Type {
	case EventReport:
		return r.handleReport(ctx, event)
	case EventModAction:
		return r.handleModAction(ctx, event)
	case EventUserJoin:
		return r.handleUserJoin(ctx, event)
	case EventUserLeave:
		r.logger.Info("user left guild", zap.String("discord_id", event.DiscordID))
		return Response{Success: true}, nil
	case EventBanAdd:
		return r.handleBanAdd(ctx, event)
	case EventBanRemove:
		return r.handleBanRemove(ctx, event)
	default:
		// Forward compatibility: unknown event kinds are acknowledged, not errors.
		r.logger.Info("unrecognized webhook event type", zap.String("type", event.Type))
		return Response{Success: true}, nil
	}
}

func (r *Receiver) handleReport(ctx context.Context, event Event) (Response, error) {
	reporter, err := r.store.GetAccountByDiscordID(ctx, event.ReporterDiscordID)
	if err != nil {
		return Response{}, err
	}
	reported, err := r.store.GetAccountByDiscordID(ctx, event.ReportedDiscordID)
	if err != nil {
		return Response{}, err
	}

	report := storage.Report{
		ReporterDiscordID: event.ReporterDiscordID,
		ReportedDiscordID: event.ReportedDiscordID,
		Reason:            event.Reason,
		Evidence:          event.Evidence,
		Status:            "pending",
	}
	if reporter != nil {
		report.ReporterAccount = reporter.ID
	}
	if reported != nil {
		report.ReportedAccount = reported.ID
	}
	if _, err := r.store.AddReport(ctx, report); err != nil {
		return Response{}, err
	}
	return Response{Success: true}, nil
}

func (r *Receiver) handleModAction(ctx context.Context, event Event) (Response, error) {
	target, err := r.store.GetAccountByDiscordID(ctx, event.DiscordID)
	if err != nil {
		return Response{}, err
	}
	moderator, err := r.store.GetAccountByDiscordID(ctx, event.ModeratorDiscordID)
	if err != nil {
		return Response{}, err
	}

	entry := storage.ModerationAction{
		TargetDiscordID:    event.DiscordID,
		ModeratorDiscordID: event.ModeratorDiscordID,
		Action:             event.Action,
		Reason:             event.Reason,
		Platform:           "discord",
		Active:             true,
	}
	if target != nil {
		entry.TargetAccount = target.ID
	}
	if moderator != nil {
		entry.ModeratorAccount = moderator.ID
	}
	if event.Action == "mute" && event.DurationMinutes > 0 {
		expires := time.Now().Add(time.Duration(event.DurationMinutes) * time.Minute)
		entry.ExpiresAt = &expires
	}
	if _, err := r.store.AddModerationAction(ctx, entry); err != nil {
		return Response{}, err
	}

	if target != nil {
		switch event.Action {
		case "ban":
			if err := r.store.SetBan(ctx, target.ID, event.Reason, entry.ModeratorAccount, time.Now()); err != nil {
				return Response{}, err
			}
		case "unban":
			if err := r.store.ClearBan(ctx, target.ID); err != nil {
				return Response{}, err
			}
		}
	}
	return Response{Success: true}, nil
}

func (r *Receiver) handleUserJoin(ctx context.Context, event Event) (Response, error) {
	account, err := r.store.GetAccountByDiscordID(ctx, event.DiscordID)
	if err != nil {
		return Response{}, err
	}
	if account != nil && account.Banned {
		return Response{Success: true, ShouldKick: true, Reason: account.BanReason}, nil
	}
	return Response{Success: true}, nil
}

func (r *Receiver) handleBanAdd(ctx context.Context, event Event) (Response, error) {
	account, err := r.store.GetAccountByDiscordID(ctx, event.DiscordID)
	if err != nil {
		return Response{}, err
	}
	// Unlinked users and already-banned accounts are no-ops; redundant native
	// ban events would otherwise double-log.
	if account == nil || account.Banned {
		return Response{Success: true}, nil
	}

	moderator, err := r.store.GetAccountByDiscordID(ctx, event.ModeratorDiscordID)
	if err != nil {
		return Response{}, err
	}
	moderatorAccount := ""
	if moderator != nil {
		moderatorAccount = moderator.ID
	}
	reason := event.Reason
	if reason == "" {
		reason = discordBanReason
	}

	if err := r.store.SetBan(ctx, account.ID, reason, moderatorAccount, time.Now()); err != nil {
		return Response{}, err
	}
	_, err = r.store.AddModerationAction(ctx, storage.ModerationAction{
		TargetAccount:      account.ID,
		TargetDiscordID:    event.DiscordID,
		ModeratorAccount:   moderatorAccount,
		ModeratorDiscordID: event.ModeratorDiscordID,
		Action:             "ban",
		Reason:             reason,
		Platform:           "discord",
		Active:             true,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true}, nil
}

func (r *Receiver) handleBanRemove(ctx context.Context, event Event) (Response, error) {
	account, err := r.store.GetAccountByDiscordID(ctx, event.DiscordID)
	if err != nil {
		return Response{}, err
	}
	if account == nil || !account.Banned {
		return Response{Success: true}, nil
	}

	moderator, err := r.store.GetAccountByDiscordID(ctx, event.ModeratorDiscordID)
	if err != nil {
		return Response{}, err
	}
	moderatorAccount := ""
	if moderator != nil {
		moderatorAccount = moderator.ID
	}

	if err := r.store.ClearBan(ctx, account.ID); err != nil {
		return Response{}, err
	}
	_, err = r.store.AddModerationAction(ctx, storage.ModerationAction{
		TargetAccount:      account.ID,
		TargetDiscordID:    event.DiscordID,
		ModeratorAccount:   moderatorAccount,
		ModeratorDiscordID: event.ModeratorDiscordID,
		Action:             "unban",
		Reason:             event.Reason,
		Platform:           "discord",
		Active:             true,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true}, nil
}
