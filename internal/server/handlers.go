package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"haven-modsync/internal/moderation"
	"haven-modsync/internal/storage"
	"haven-modsync/internal/webhook"

	"go.uber.org/zap"
)

// Moderator is the moderation service surface the handlers need.
type Moderator interface {
	Apply(ctx context.Context, moderator *storage.Account, req moderation.Request) (moderation.Result, error)
	History(ctx context.Context, targetID string) ([]storage.ModerationEntry, error)
}

// ReportSource lists chat-platform reports for the admin view.
type ReportSource interface {
	ListReports(ctx context.Context, status string, limit int) ([]storage.Report, error)
}

// EventHandler processes inbound webhook events.
type EventHandler interface {
	Handle(ctx context.Context, event webhook.Event) (webhook.Response, error)
}

type moderationRequest struct {
	UserID          string `json:"user_id"`
	Action          string `json:"action"`
	Reason          string `json:"reason"`
	SyncDiscord     bool   `json:"sync_discord"`
	DurationMinutes int    `json:"duration_minutes"`
}

type moderationResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	UserID  string `json:"user_id"`
}

type historyEntry struct {
	ID                 int64      `json:"id"`
	Action             string     `json:"action"`
	Reason             string     `json:"reason"`
	Platform           string     `json:"platform"`
	Active             bool       `json:"active"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ModeratorID        string     `json:"moderator_id,omitempty"`
	ModeratorName      string     `json:"moderator_name,omitempty"`
	ModeratorDiscordID string     `json:"moderator_discord_id,omitempty"`
}

func (s *Server) handleModerationAction(w http.ResponseWriter, r *http.Request) {
	var req moderationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "user_id and action are required")
		return
	}

	moderator := AccountFrom(r.Context())
	result, err := s.moderator.Apply(r.Context(), moderator, moderation.Request{
		TargetID:        req.UserID,
		Action:          req.Action,
		Reason:          req.Reason,
		DurationMinutes: req.DurationMinutes,
		SyncDiscord:     req.SyncDiscord,
	})
	if err != nil {
		s.writeModerationError(w, err)
		return
	}

	s.logger.Info("moderation request handled",
		zap.String("action", req.Action),
		zap.String("target", req.UserID),
		zap.String("platform", result.Platform),
	)
	writeJSON(w, http.StatusOK, moderationResponse{Success: true, Action: req.Action, UserID: req.UserID})
}

func (s *Server) writeModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, moderation.ErrNotAdmin):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, moderation.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, moderation.ErrInvalidAction),
		errors.Is(err, moderation.ErrSelfModeration),
		errors.Is(err, moderation.ErrAdminTarget),
		errors.Is(err, moderation.ErrAlreadyBanned),
		errors.Is(err, moderation.ErrNotBanned):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("moderation dispatch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process moderation action")
	}
}

func (s *Server) handleModerationHistory(w http.ResponseWriter, r *http.Request) {
	account := AccountFrom(r.Context())
	if account == nil || account.Role != "admin" {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	entries, err := s.moderator.History(r.Context(), userID)
	if err != nil {
		s.logger.Error("moderation history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load moderation history")
		return
	}

	out := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntry{
			ID:                 entry.ID,
			Action:             entry.Action,
			Reason:             entry.Reason,
			Platform:           entry.Platform,
			Active:             entry.Active,
			ExpiresAt:          entry.ExpiresAt,
			CreatedAt:          entry.CreatedAt,
			ModeratorID:        entry.ModeratorAccount,
			ModeratorName:      entry.ModeratorName,
			ModeratorDiscordID: entry.ModeratorDiscordID,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "actions": out})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	account := AccountFrom(r.Context())
	if account == nil || account.Role != "admin" {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := s.reports.ListReports(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		s.logger.Error("report listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleWebhookEvent(w http.ResponseWriter, r *http.Request) {
	var event webhook.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}

	resp, err := s.events.Handle(r.Context(), event)
	if err != nil {
		s.logger.Error("webhook event failed", zap.String("type", event.Type), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to process event")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
