// Package api provides the HTTP and WebSocket surface of the chat engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/engine"
)

// Responder runs one message through the engine.
type Responder interface {
	Handle(ctx context.Context, req engine.Request) (*domain.NormalizedResponse, error)
}

// Error bodies of the chat endpoints.
const (
	errInvalidBody    = "invalid request body"
	errInvalidCompany = "invalid company id"
	errQuotaExceeded  = "quota_exceeded"
	errUpstream       = "upstream communication failure"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusOf maps an error escaping the engine to the HTTP status and error body.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusForbidden, errQuotaExceeded
	default:
		return http.StatusBadGateway, errUpstream
	}
}
