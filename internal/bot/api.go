package bot

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type roleRequest struct {
	DiscordID string `json:"discord_id"`
	Role      string `json:"role"`
}

// Router exposes the internal role-sync API the web app calls after identity
// verification. Both endpoints require the shared bearer secret.
func (b *Bot) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(bearerSecret(b.cfg.APISecret))
		r.Post("/assign-role", b.handleAssignRole)
		r.Post("/remove-role", b.handleRemoveRole)
	})

	return r
}

func (b *Bot) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBotJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DiscordID == "" || req.Role == "" {
		writeBotJSON(w, http.StatusBadRequest, map[string]string{"error": "discord_id and role are required"})
		return
	}

	if err := b.AssignRole(req.DiscordID, req.Role); err != nil {
		b.logger.Warn("assign role failed", zap.String("discord_id", req.DiscordID), zap.Error(err))
		writeBotJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeBotJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (b *Bot) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBotJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.DiscordID == "" {
		writeBotJSON(w, http.StatusBadRequest, map[string]string{"error": "discord_id is required"})
		return
	}

	if err := b.RemoveRole(req.DiscordID); err != nil {
		b.logger.Warn("remove role failed", zap.String("discord_id", req.DiscordID), zap.Error(err))
		writeBotJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeBotJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func bearerSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" ||
				secret == "" || subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
				writeBotJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeBotJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
