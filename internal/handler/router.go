/*
Package handler provides the HTTP handlers and routing setup for the TicketDesk server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"ticketdesk/internal/pkg/auth/jwt"
	"ticketdesk/internal/pkg/limiter"
	"ticketdesk/internal/pkg/logx"
	"ticketdesk/internal/pkg/resp"
)

const (
	CreateRate   = 0.05
	CreateBurst  = 3
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-PoW-Token"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":       "ok",
			"service":      "TicketDesk",
			"online_users": len(deps.Hub.Presence().Online()),
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		r.Route("/api", func(api chi.Router) {
			api.Get("/pow/challenge", HandlePowChallenge(deps))
			api.Post("/pow/verify", HandlePowVerify(deps))

			api.Route("/tickets", func(tickets chi.Router) {
				tickets.With(createLimiter.Middleware, deps.Pow.Middleware).Post("/", HandleCreateTicket(deps))

				tickets.Route("/{ticketID}", func(t chi.Router) {
					t.Get("/", HandleGetTicket(deps))
					t.Post("/assign", HandleAssignTicket(deps))

					t.Post("/attachments/presign", HandlePresignUploadURL(deps))
					t.Post("/attachments", HandleUploadAttachment(deps))
					t.Get("/attachments/download", HandlePresignDownloadURL(deps))
				})
			})

			api.Post("/announcements", HandleAnnouncement(deps))
			api.Get("/presence", HandlePresence(deps))
		})

		r.With(connectLimiter.Middleware).Get("/ws", HandleWebSocket(deps, wsUpgrader))
	})

	return r
}
