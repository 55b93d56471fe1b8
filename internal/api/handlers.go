// internal/api/handlers.go
//
// Synchronous API handlers.
//
// Control flow: UI → create intent → (Stripe element collects payment) →
// confirm → share view.  The confirm handler here is the client-callback
// entry point; webhook.go is the asynchronous one.  Both funnel into the
// same wall.Service pipeline.

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/theheartwall/heartwall/internal/heart"
	"github.com/theheartwall/heartwall/internal/requestinfo"
)

//
// request / response shapes
//

type intentRequest struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Message        string `json:"message"`
	Date           string `json:"date"`
	RecipientEmail string `json:"recipientEmail"`
}

type intentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type confirmResponse struct {
	Success bool   `json:"success"`
	HeartID string `json:"heartId"`
}

// heartView is the public shape of a heart.  The recipient address and
// the payment token never leave the server.
type heartView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Message   string    `json:"message,omitempty"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(rec *heart.Record) heartView {
	return heartView{
		ID:        rec.ID,
		Name:      rec.Name,
		Category:  string(rec.Category),
		Message:   rec.Message.String,
		Date:      rec.Date,
		CreatedAt: rec.CreatedAt,
	}
}

//
// handlers
//

// createIntent validates the submission and mints a payment intent.  On a
// validation failure the reason is logged together with the requester's
// browser fingerprint; autofill bugs cluster by browser.
func (s *Server) createIntent(w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.wall.CreateIntent(r.Context(),
		req.Name, req.Category, req.Message, req.Date, req.RecipientEmail)
	if err != nil {
		if info := requestinfo.FromContext(r.Context()); info != nil {
			zap.S().Infow("intent rejected",
				"err", err,
				"browser", info.UA.Browser,
				"device", info.UA.Device,
			)
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intentResponse{
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
	})
}

// confirm is the client-callback confirmation path.  The intent id is the
// only input; success is re-verified with Stripe, never taken from the
// client.
func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PaymentIntentID == "" {
		writeError(w, http.StatusBadRequest, "Payment intent ID is required.")
		return
	}

	rec, err := s.wall.Confirm(r.Context(), req.PaymentIntentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmResponse{Success: true, HeartID: rec.ID})
}

// getHeart serves the share view.
func (s *Server) getHeart(w http.ResponseWriter, r *http.Request) {
	rec, err := s.wall.HeartByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rec))
}

// listHearts serves the wall grid, newest first.  With ?payment_ref= it
// instead resolves the single heart for that intent: the post-checkout
// redirect only carries the intent id, not the heart id.
func (s *Server) listHearts(w http.ResponseWriter, r *http.Request) {
	if ref := r.URL.Query().Get("payment_ref"); ref != "" {
		rec, err := s.wall.HeartByPaymentRef(r.Context(), ref)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(rec))
		return
	}

	limit := queryInt(r, "limit", 60)
	if limit < 1 || limit > 200 {
		limit = 60
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	recs, err := s.wall.Wall(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]heartView, 0, len(recs))
	for i := range recs {
		views = append(views, viewOf(&recs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"hearts": views})
}

// stats serves the "N hearts added" number: the real row count plus the
// cosmetic demo counter.  Eventually roughly right is fine here.
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	real, err := s.wall.Count(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	display := real
	if s.demo != nil {
		if n, derr := s.demo.Current(r.Context()); derr == nil {
			display += n
		} else {
			zap.S().Warnw("demo counter read failed", "err", derr)
		}
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"hearts":       real,
		"displayCount": display,
	})
}

// incrementDemo bumps the cosmetic counter.  The counter is optional the
// same way the notifier is; without one the endpoint reports unavailable
// instead of panicking.
func (s *Server) incrementDemo(w http.ResponseWriter, r *http.Request) {
	if s.demo == nil {
		writeError(w, http.StatusServiceUnavailable, "Counter is unavailable.")
		return
	}
	n, err := s.demo.Increment(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": n})
}

// resetDemo restores the counter to its baseline.  Guarded by the admin
// bearer secret; see requireAdmin in server.go.
func (s *Server) resetDemo(w http.ResponseWriter, r *http.Request) {
	if s.demo == nil {
		writeError(w, http.StatusServiceUnavailable, "Counter is unavailable.")
		return
	}
	if err := s.demo.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, genericFailure)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// healthz is the load-balancer probe.
func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
