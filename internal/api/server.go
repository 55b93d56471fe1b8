// internal/api/server.go
//
// Router assembly.
//
// Middleware order: CORS first (preflights must short-circuit before
// anything else), then security headers, then request-info enrichment.
// The webhook route sits outside /api because Stripe is not a browser:
// it needs no CORS and must see the raw body untouched.

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theheartwall/heartwall/internal/demo"
	"github.com/theheartwall/heartwall/internal/middleware"
	"github.com/theheartwall/heartwall/internal/requestinfo"
	"github.com/theheartwall/heartwall/internal/wall"
)

// Server carries the handler dependencies.
type Server struct {
	wall          *wall.Service
	demo          *demo.Counter
	webhookSecret string
	adminSecret   string
	corsOrigins   []string
}

// NewServer wires handlers to their collaborators.
func NewServer(w *wall.Service, d *demo.Counter, webhookSecret, adminSecret string, corsOrigins []string) *Server {
	return &Server{
		wall:          w,
		demo:          d,
		webhookSecret: webhookSecret,
		adminSecret:   adminSecret,
		corsOrigins:   corsOrigins,
	}
}

// Routes builds the chi router for the whole API surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Security)
	r.Use(requestinfo.Enrich)

	r.Route("/api", func(r chi.Router) {
		r.Post("/hearts/intent", s.createIntent)
		r.Post("/hearts/confirm", s.confirm)
		r.Get("/hearts/stats", s.stats)
		r.Get("/hearts/{id}", s.getHeart)
		r.Get("/hearts", s.listHearts)

		r.Post("/demo/increment", s.incrementDemo)
		r.With(s.requireAdmin).Post("/demo/reset", s.resetDemo)
	})

	r.Post("/webhooks/stripe", s.stripeWebhook)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requireAdmin guards an endpoint behind the configured bearer secret.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminSecret == "" {
			writeError(w, http.StatusInternalServerError, "Server configuration error.")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "Unauthorized.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
