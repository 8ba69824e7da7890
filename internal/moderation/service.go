// Package moderation implements the admin-initiated moderation dispatch: guard
// checks, the append-only moderation log, the internal ban state, and optional
// cross-platform sync. The internal write is authoritative; external sync and
// notices are best-effort and never fail a request once the write succeeded.
package moderation

import (
	"context"
	"errors"
	"time"

	"haven-modsync/internal/discord"
	"haven-modsync/internal/storage"

	"go.uber.org/zap"
)

var (
	ErrNotAdmin        = errors.New("caller is not an admin")
	ErrAccountNotFound = errors.New("target account not found")
	ErrSelfModeration  = errors.New("cannot moderate self")
	ErrAdminTarget     = errors.New("cannot moderate admin")
	ErrAlreadyBanned   = errors.New("account is already banned")
	ErrNotBanned       = errors.New("account is not banned")
	ErrInvalidAction   = errors.New("invalid moderation action")
)

const (
	ActionWarn  = "warn"
	ActionMute  = "mute"
	ActionKick  = "kick"
	ActionBan   = "ban"
	ActionUnban = "unban"
)

const (
	PlatformWebsite = "website"
	PlatformDiscord = "discord"
	PlatformBoth    = "both"
)

const defaultMuteMinutes = 10

// Store is the persistence surface the service needs.
type Store interface {
	GetAccount(ctx context.Context, id string) (*storage.Account, error)
	SetBan(ctx context.Context, id, reason, bannedBy string, at time.Time) error
	ClearBan(ctx context.Context, id string) error
	AddModerationAction(ctx context.Context, action storage.ModerationAction) (int64, error)
	ListModerationActions(ctx context.Context, targetAccount string) ([]storage.ModerationEntry, error)
}

// Syncer mirrors an action onto the chat platform.
type Syncer interface {
	Configured() bool
	Ban(discordID, reason string) error
	Unban(discordID string) error
	Kick(discordID, reason string) error
	Timeout(discordID string, minutes int, reason string) error
}

// Notifier posts a best-effort notice to the moderation log channel.
type Notifier interface {
	Post(notice discord.Notice) discord.SyncOutcome
}

type Request struct {
	TargetID        string
	Action          string
	Reason          string
	DurationMinutes int
	SyncDiscord     bool
}

type Result struct {
	ActionID int64
	Platform string
}

type Service struct {
	store  Store
	sync   Syncer
	notify Notifier
	logger *zap.Logger
}

func NewService(store Store, sync Syncer, notify Notifier, logger *zap.Logger) *Service {
	return &Service{store: store, sync: sync, notify: notify, logger: logger}
}

// Apply runs one moderation action on behalf of moderator. Guard failures are
// returned as typed errors before any write happens.
func (s *Service) Apply(ctx context.Context, moderator *storage.Account, req Request) (Result, error) {
	if moderator == nil || moderator.Role != "admin" {
		return Result{}, ErrNotAdmin
	}
	if !validAction(req.Action) {
		return Result{}, ErrInvalidAction
	}

	target, err := s.store.GetAccount(ctx, req.TargetID)
	if err != nil {
		return Result{}, err
	}
	if target == nil {
		return Result{}, ErrAccountNotFound
	}
	if target.ID == moderator.ID {
		return Result{}, ErrSelfModeration
	}
	if target.Role == "admin" {
		return Result{}, ErrAdminTarget
	}
	if req.Action == ActionBan && target.Banned {
		return Result{}, ErrAlreadyBanned
	}
	if req.Action == ActionUnban && !target.Banned {
		return Result{}, ErrNotBanned
	}

	now := time.Now()
	syncing := req.SyncDiscord && target.DiscordID != "" && s.sync.Configured()
	platform := PlatformWebsite
	if syncing {
		platform = PlatformBoth
	}

	// The ban flag mutation is independent of sync and happens first.
	switch req.Action {
	case ActionBan:
		if err := s.store.SetBan(ctx, target.ID, req.Reason, moderator.ID, now); err != nil {
			return Result{}, err
		}
	case ActionUnban:
		if err := s.store.ClearBan(ctx, target.ID); err != nil {
			return Result{}, err
		}
	}

	entry := storage.ModerationAction{
		TargetAccount:    target.ID,
		TargetDiscordID:  target.DiscordID,
		ModeratorAccount: moderator.ID,
		Action:           req.Action,
		Reason:           req.Reason,
		Platform:         platform,
		Active:           true,
	}
	minutes := req.DurationMinutes
	if req.Action == ActionMute {
		if minutes <= 0 {
			minutes = defaultMuteMinutes
		}
		expires := now.Add(time.Duration(minutes) * time.Minute)
		entry.ExpiresAt = &expires
	}

	actionID, err := s.store.AddModerationAction(ctx, entry)
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("moderation action",
		zap.String("action", req.Action),
		zap.String("target", target.ID),
		zap.String("moderator", moderator.ID),
		zap.String("platform", platform),
	)

	if syncing {
		s.mirror(target, req.Action, req.Reason, minutes)
		outcome := s.notify.Post(discord.Notice{
			Action:          req.Action,
			TargetDiscordID: target.DiscordID,
			ModeratorName:   moderator.DisplayName,
			Reason:          req.Reason,
			Platform:        platform,
			DurationMinutes: minutes,
		})
		if outcome.Failed() {
			s.logger.Warn("moderation notice failed", zap.String("action", req.Action), zap.Error(outcome.Err))
		}
	}

	return Result{ActionID: actionID, Platform: platform}, nil
}

// mirror issues the platform-side call for one action. Failures are logged and
// swallowed; the internal write already succeeded.
func (s *Service) mirror(target *storage.Account, action, reason string, minutes int) {
	var err error
	switch action {
	case ActionWarn:
		return
	case ActionMute:
		err = s.sync.Timeout(target.DiscordID, minutes, reason)
	case ActionKick:
		err = s.sync.Kick(target.DiscordID, reason)
	case ActionBan:
		err = s.sync.Ban(target.DiscordID, reason)
	case ActionUnban:
		err = s.sync.Unban(target.DiscordID)
	}
	if err != nil {
		s.logger.Warn("discord sync failed",
			zap.String("action", action),
			zap.String("discord_id", target.DiscordID),
			zap.Error(err),
		)
	}
}

// History returns the moderation log for one account, newest first.
func (s *Service) History(ctx context.Context, targetID string) ([]storage.ModerationEntry, error) {
	return s.store.ListModerationActions(ctx, targetID)
}

func validAction(action string) bool {
	switch action {
	case ActionWarn, ActionMute, ActionKick, ActionBan, ActionUnban:
		return true
	default:
		return false
	}
}
