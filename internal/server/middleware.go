package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"haven-modsync/internal/storage"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const accountKey contextKey = "account"

// AccountSource resolves an authenticated subject to an internal account.
type AccountSource interface {
	GetAccount(ctx context.Context, id string) (*storage.Account, error)
}

// Auth validates an HS256 bearer token, resolves the subject account, and
// stores it in the request context. Requests without a resolvable account are
// rejected as unauthenticated.
func Auth(secret string, accounts AccountSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			account, err := accounts.GetAccount(r.Context(), subject)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "account lookup failed")
				return
			}
			if account == nil {
				writeError(w, http.StatusUnauthorized, "unknown account")
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountFrom returns the authenticated account stored by Auth, or nil.
func AccountFrom(ctx context.Context) *storage.Account {
	account, _ := ctx.Value(accountKey).(*storage.Account)
	return account
}

// WebhookSecret gates the inbound webhook endpoint on the shared-secret
// header. An unset secret rejects everything rather than accepting everything.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("x-webhook-secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid webhook secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
