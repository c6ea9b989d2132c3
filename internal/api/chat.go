package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/chatengine/internal/engine"
	"github.com/ashureev/chatengine/internal/identity"
	"github.com/go-chi/chi/v5"
)

// chatRequest is the body of a chat message.
type chatRequest struct {
	Message    string `json:"message"`
	ChatCode   string `json:"chat_code,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// ChatHandler serves the message endpoints.
type ChatHandler struct {
	engine  Responder
	locks   *chatLocks
	origins []string
	logger  *slog.Logger
}

// NewChatHandler creates a chat handler over eng. WebSocket upgrades are
// accepted from the given origins; an empty list accepts any origin.
func NewChatHandler(eng Responder, origins []string, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{engine: eng, locks: newChatLocks(), origins: originPatterns(origins), logger: logger}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat/company/{companyID}", h.PostMessage)
	r.Get("/ws/chat/{companyID}", h.ServeWebSocket)
}

// PostMessage handles one chat message.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	companyID, err := identity.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		Error(w, http.StatusBadRequest, errInvalidCompany)
		return
	}

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		Error(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	req := h.request(companyID, body)
	release := h.locks.acquire(chatKey(companyID, req.ExternalID, req.ChatCode))
	out, err := h.engine.Handle(r.Context(), req)
	release()

	if err != nil {
		status, msg := statusOf(err)
		if status == http.StatusBadGateway {
			h.logger.Error("Chat request failed", "company_id", companyID, "error", err, "ip", identity.IPFromRequest(r))
		}
		Error(w, status, msg)
		return
	}
	JSON(w, http.StatusOK, out)
}

func (h *ChatHandler) request(companyID int64, body chatRequest) engine.Request {
	return engine.Request{
		CompanyID:  companyID,
		Message:    body.Message,
		ChatCode:   identity.SanitizeChatCode(companyID, body.ChatCode),
		ExternalID: identity.SanitizeExternalID(body.ExternalID),
	}
}
