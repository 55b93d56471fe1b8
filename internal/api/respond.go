// internal/api/respond.go
//
// JSON response helpers and the error-mapping policy.
//
// Context
// -------
// Validation reasons are surfaced verbatim so users can fix autofill
// mistakes ("Email must be 254 characters or less"), but no other
// upstream error text ever reaches the client; processor internals leak
// through error strings, and the product's stated fallback for a
// post-charge failure is "contact support."

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/theheartwall/heartwall/internal/heart"
	"github.com/theheartwall/heartwall/internal/payment"
)

// Opaque message for anything the user cannot fix themselves.
const genericFailure = "Something went wrong. If you were charged, please contact support."

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses and
// user-visible messages.
func writeDomainError(w http.ResponseWriter, err error) {
	var vErr *heart.ValidationError
	switch {
	case errors.As(err, &vErr):
		// Field-level, user-correctable; the reason is the message.
		writeError(w, http.StatusBadRequest, vErr.Reason)
	case errors.Is(err, payment.ErrPaymentNotCompleted):
		writeError(w, http.StatusConflict, "Payment has not completed.")
	case errors.Is(err, payment.ErrUpstream):
		writeError(w, http.StatusBadGateway, "Payment service is unavailable. Please try again.")
	case errors.Is(err, heart.ErrNotFound):
		writeError(w, http.StatusNotFound, "Heart not found.")
	default:
		// ErrCorruptedMetadata, ErrPersistence, and everything unexpected.
		writeError(w, http.StatusInternalServerError, genericFailure)
	}
}

// decodeJSON parses the request body into v with a size cap; the API only
// ever receives small documents.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}
