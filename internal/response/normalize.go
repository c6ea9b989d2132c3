package response

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
)

// Declared actions.
const (
	FunctionShowService   = "show_service"
	FunctionSchedule      = "schedule"
	FunctionScheduleSlots = "schedule_slots"
	FunctionNoAction      = "no_action"
	FunctionCloseChat     = "close_chat"
	FunctionFallback      = "handle_fallback"
)

// MaxSlots caps the slots returned by a schedule_slots action.
const MaxSlots = 3

const closingMessage = "Obrigado pelo contato, conversa encerrada."

// Normalize validates raw against its declared action and fills gaps from ctx.
// Errors are contract violations; FromError maps them to a fallback.
func Normalize(raw *domain.Reply, ctx *domain.WorkingContext) (*domain.NormalizedResponse, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil reply: %w", ErrMalformedReply)
	}
	if strings.TrimSpace(raw.UserResponse) == "" && len(raw.SystemResponse) == 0 {
		return nil, WithReason(ReasonIncompleteMessage, fmt.Errorf("empty reply: %w", ErrMalformedReply))
	}

	intent := domain.IntentGeneral
	if ctx != nil {
		intent = ctx.MainIntent
	}

	out := &domain.NormalizedResponse{
		UserResponse: raw.UserResponse,
		TokenUsage:   raw.TokenUsage,
		Timestamp:    time.Now().UTC(),
		Status:       http.StatusOK,
		Metadata:     domain.Metadata{Intent: intent},
	}

	fnValue, hasFn := raw.SystemResponse["function"]
	if !hasFn {
		out.Type = domain.ResponseInteraction
		out.SystemResponse = map[string]any{"function": FunctionNoAction}
		out.Metadata.Function = FunctionNoAction
		return out, nil
	}
	fn, ok := fnValue.(string)
	if !ok || fn == "" {
		return nil, fmt.Errorf("function is %T: %w", fnValue, ErrMalformedReply)
	}

	sr := make(map[string]any, len(raw.SystemResponse))
	for k, v := range raw.SystemResponse {
		sr[k] = v
	}

	switch fn {
	case FunctionShowService:
		if err := normalizeShowService(sr, ctx); err != nil {
			return nil, err
		}
	case FunctionSchedule:
		if _, ok := sr["schedule"]; !ok {
			sr["schedule"] = recordsToAny(contextData(ctx).Schedule)
		}
	case FunctionScheduleSlots:
		slots, ok := sr["schedule_slots"].([]any)
		if !ok || len(slots) == 0 {
			slots = recordsToAny(contextData(ctx).ScheduleSlots)
		}
		if len(slots) > MaxSlots {
			slots = slots[:MaxSlots]
		}
		sr["schedule_slots"] = slots
	case FunctionNoAction:
		sr = map[string]any{"function": FunctionNoAction}
	}

	out.Type = domain.ResponseAction
	out.SystemResponse = sr
	out.Metadata.Function = fn
	return out, nil
}

func normalizeShowService(sr map[string]any, ctx *domain.WorkingContext) error {
	service, services := sr["service"], sr["services"]
	if present(service) && present(services) {
		return ErrAmbiguousCatalog
	}

	switch {
	case present(service):
		if _, ok := service.(map[string]any); !ok {
			return fmt.Errorf("service is %T: %w", service, ErrMalformedReply)
		}
		delete(sr, "services")
	case present(services):
		list, ok := services.([]any)
		if !ok {
			return fmt.Errorf("services is %T: %w", services, ErrMalformedReply)
		}
		flat, err := flattenServices(list)
		if err != nil {
			return err
		}
		sr["services"] = flat
		delete(sr, "service")
	default:
		delete(sr, "service")
		var flat []any
		for _, group := range contextData(ctx).Services {
			flat = append(flat, recordsToAny(group.Services)...)
		}
		if flat != nil {
			sr["services"] = flat
		}
	}
	return nil
}

// flattenServices returns list unchanged when it holds plain services and the
// concatenation of the groups' services when it arrived grouped by category.
func flattenServices(list []any) ([]any, error) {
	grouped := false
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("services entry is %T: %w", item, ErrMalformedReply)
		}
		if _, ok := m["category_name"]; ok {
			grouped = true
		}
	}
	if !grouped {
		return list, nil
	}

	flat := []any{}
	for _, item := range list {
		inner, _ := item.(map[string]any)["services"].([]any)
		flat = append(flat, inner...)
	}
	return flat, nil
}

// Fallback returns the user-safe response for reason. err is never exposed.
func Fallback(reason Reason, err error) *domain.NormalizedResponse {
	reason = ParseReason(string(reason))
	if err != nil {
		slog.Warn("Fallback triggered", "reason", reason, "error", err)
	}
	return &domain.NormalizedResponse{
		Type:         domain.ResponseFallback,
		UserResponse: reason.Message(),
		Timestamp:    time.Now().UTC(),
		Status:       reason.Status(),
		Metadata: domain.Metadata{
			Function: FunctionFallback,
			Reason:   string(reason),
		},
	}
}

// FromError returns the fallback named by err, or internal_error.
func FromError(err error) *domain.NormalizedResponse {
	return Fallback(ReasonOf(err), err)
}

// Closing returns the fixed reply sent when the user ends the chat.
func Closing() *domain.NormalizedResponse {
	return &domain.NormalizedResponse{
		Type:           domain.ResponseClosing,
		UserResponse:   closingMessage,
		SystemResponse: map[string]any{"function": FunctionCloseChat},
		Timestamp:      time.Now().UTC(),
		Status:         http.StatusOK,
		Metadata: domain.Metadata{
			Function: FunctionCloseChat,
			Intent:   domain.IntentCloseChat,
		},
	}
}

func contextData(ctx *domain.WorkingContext) domain.Data {
	if ctx == nil {
		return domain.Data{}
	}
	return ctx.Data
}

func recordsToAny(records []domain.Record) []any {
	out := make([]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any(r))
	}
	return out
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	case string:
		return t != ""
	default:
		return true
	}
}
