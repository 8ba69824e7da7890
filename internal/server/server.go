// Package server wires the Moderation Action API and the Inbound Webhook
// Receiver into one HTTP surface for the web app and the bot process.
package server

import (
	"net/http"

	"haven-modsync/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Server struct {
	cfg       config.ServerConfig
	accounts  AccountSource
	moderator Moderator
	reports   ReportSource
	events    EventHandler
	logger    *zap.Logger
}

func New(cfg config.ServerConfig, accounts AccountSource, moderator Moderator, reports ReportSource, events EventHandler, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		accounts:  accounts,
		moderator: moderator,
		reports:   reports,
		events:    events,
		logger:    logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(Auth(s.cfg.JWTSecret, s.accounts))
		r.Post("/moderation", s.handleModerationAction)
		r.Get("/moderation", s.handleModerationHistory)
		r.Get("/reports", s.handleListReports)
	})

	r.Group(func(r chi.Router) {
		r.Use(WebhookSecret(s.cfg.WebhookSecret))
		r.Post("/webhooks/discord", s.handleWebhookEvent)
	})

	return r
}
