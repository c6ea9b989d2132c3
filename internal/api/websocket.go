package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ashureev/chatengine/internal/identity"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// wsMessage is one inbound frame.
type wsMessage struct {
	Type       string `json:"type,omitempty"`
	Message    string `json:"message"`
	ChatCode   string `json:"chat_code,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// ServeWebSocket carries chat messages over a WebSocket. Each text frame holds
// one request and is answered by one response frame. The chat code of the
// first reply is reused by later frames that omit it.
func (h *ChatHandler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	companyID, err := identity.ParseCompanyID(chi.URLParam(r, "companyID"))
	if err != nil {
		Error(w, http.StatusBadRequest, errInvalidCompany)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "company_id", companyID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "company_id", companyID)
		}
	}()

	h.logger.Info("WebSocket chat opened", "company_id", companyID, "ip", identity.IPFromRequest(r))
	h.readLoop(r.Context(), ws, companyID)
}

func (h *ChatHandler) readLoop(ctx context.Context, ws *websocket.Conn, companyID int64) {
	var chatCode string
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "company_id", companyID)
			} else {
				h.logger.Warn("WebSocket read error", "error", err, "company_id", companyID)
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := writeJSON(ctx, ws, map[string]string{"error": errInvalidBody}); err != nil {
				return
			}
			continue
		}

		if msg.Type == "ping" {
			if err := writeJSON(ctx, ws, map[string]string{"type": "pong"}); err != nil {
				return
			}
			continue
		}

		if msg.ChatCode == "" {
			msg.ChatCode = chatCode
		}
		req := h.request(companyID, chatRequest{Message: msg.Message, ChatCode: msg.ChatCode, ExternalID: msg.ExternalID})
		release := h.locks.acquire(chatKey(companyID, req.ExternalID, req.ChatCode))
		out, err := h.engine.Handle(ctx, req)
		release()

		var reply any = out
		if err != nil {
			status, body := statusOf(err)
			if status == http.StatusBadGateway {
				h.logger.Error("Chat frame failed", "company_id", companyID, "error", err)
			}
			reply = map[string]any{"error": body, "status": status}
		} else if out.ChatCode != "" {
			chatCode = out.ChatCode
		}

		if err := writeJSON(ctx, ws, reply); err != nil {
			h.logger.Debug("WebSocket write failed", "error", err, "company_id", companyID)
			return
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

// originPatterns turns configured CORS origins into the host patterns the
// WebSocket handshake matches against.
func originPatterns(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" || !strings.Contains(o, "://") {
			patterns = append(patterns, o)
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
