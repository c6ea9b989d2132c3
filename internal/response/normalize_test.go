package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/ashureev/chatengine/internal/domain"
)

func slotRecords(n int) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{"public_id": fmt.Sprintf("slot-%d", i)}
	}
	return out
}

func TestNormalizeInteraction(t *testing.T) {
	t.Parallel()

	ctx := &domain.WorkingContext{MainIntent: domain.IntentWelcome}
	got, err := Normalize(&domain.Reply{
		UserResponse: "Olá! Como posso ajudar?",
		TokenUsage:   domain.TokenUsage{TotalTokens: 80},
	}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != domain.ResponseInteraction || got.Function() != FunctionNoAction {
		t.Errorf("got type %q function %q", got.Type, got.Function())
	}
	if got.Metadata.Intent != domain.IntentWelcome || got.Status != http.StatusOK || got.TokenUsage.TotalTokens != 80 {
		t.Errorf("got %+v", got)
	}
}

func TestNormalizeScheduleSlotsCapsAtThree(t *testing.T) {
	t.Parallel()

	ctx := &domain.WorkingContext{
		MainIntent: domain.IntentScheduleSlotInfo,
		Data:       domain.Data{ScheduleSlots: slotRecords(7)},
	}

	// From context.
	got, err := Normalize(&domain.Reply{
		UserResponse:   "Temos estes horários:",
		SystemResponse: map[string]any{"function": FunctionScheduleSlots},
	}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(got.SystemResponse["schedule_slots"].([]any)); n != 3 {
		t.Errorf("slots from context = %d, want 3", n)
	}

	// From the reply itself.
	var seven []any
	for _, r := range slotRecords(7) {
		seven = append(seven, map[string]any(r))
	}
	got, err = Normalize(&domain.Reply{
		UserResponse:   "Temos estes horários:",
		SystemResponse: map[string]any{"function": FunctionScheduleSlots, "schedule_slots": seven},
	}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	slots := got.SystemResponse["schedule_slots"].([]any)
	if len(slots) != 3 || slots[0].(map[string]any)["public_id"] != "slot-0" {
		t.Errorf("slots from reply = %v", slots)
	}
}

func TestNormalizeShowService(t *testing.T) {
	t.Parallel()

	ctx := &domain.WorkingContext{
		MainIntent: domain.IntentServiceInfo,
		Data: domain.Data{Services: []domain.CategoryGroup{
			{CategoryName: "Estética", Services: []domain.Record{{"name": "Limpeza"}, {"name": "Massagem"}}},
			{CategoryName: "Odonto", Services: []domain.Record{{"name": "Clareamento"}}},
		}},
	}

	t.Run("ambiguous", func(t *testing.T) {
		t.Parallel()
		_, err := Normalize(&domain.Reply{
			UserResponse: "x",
			SystemResponse: map[string]any{
				"function": FunctionShowService,
				"service":  map[string]any{"name": "Limpeza"},
				"services": []any{map[string]any{"name": "Massagem"}},
			},
		}, ctx)
		if !errors.Is(err, ErrAmbiguousCatalog) {
			t.Fatalf("err = %v, want ErrAmbiguousCatalog", err)
		}
	})

	t.Run("grouped list is flattened", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize(&domain.Reply{
			UserResponse: "x",
			SystemResponse: map[string]any{
				"function": FunctionShowService,
				"services": []any{
					map[string]any{"category_name": "A", "services": []any{map[string]any{"name": "1"}, map[string]any{"name": "2"}}},
					map[string]any{"category_name": "B", "services": []any{map[string]any{"name": "3"}}},
				},
			},
		}, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n := len(got.SystemResponse["services"].([]any)); n != 3 {
			t.Errorf("flattened services = %d, want 3", n)
		}
	})

	t.Run("single service drops list", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize(&domain.Reply{
			UserResponse: "x",
			SystemResponse: map[string]any{
				"function": FunctionShowService,
				"service":  map[string]any{"name": "Limpeza"},
				"services": []any{},
			},
		}, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := got.SystemResponse["services"]; ok {
			t.Error("services kept next to service")
		}
	})

	t.Run("falls back to context", func(t *testing.T) {
		t.Parallel()
		got, err := Normalize(&domain.Reply{
			UserResponse:   "x",
			SystemResponse: map[string]any{"function": FunctionShowService},
		}, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n := len(got.SystemResponse["services"].([]any)); n != 3 {
			t.Errorf("context services = %d, want 3", n)
		}
	})

	t.Run("malformed service", func(t *testing.T) {
		t.Parallel()
		_, err := Normalize(&domain.Reply{
			UserResponse:   "x",
			SystemResponse: map[string]any{"function": FunctionShowService, "service": "Limpeza"},
		}, ctx)
		if !errors.Is(err, ErrMalformedReply) {
			t.Fatalf("err = %v, want ErrMalformedReply", err)
		}
	})
}

func TestNormalizeScheduleDefaultsToContext(t *testing.T) {
	t.Parallel()

	ctx := &domain.WorkingContext{Data: domain.Data{Schedule: []domain.Record{{"public_id": "s1"}}}}
	got, err := Normalize(&domain.Reply{
		UserResponse:   "Seu agendamento:",
		SystemResponse: map[string]any{"function": FunctionSchedule},
	}, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != domain.ResponseAction || len(got.SystemResponse["schedule"].([]any)) != 1 {
		t.Errorf("got %+v", got.SystemResponse)
	}
}

func TestNormalizeNoActionClearsPayload(t *testing.T) {
	t.Parallel()

	raw := &domain.Reply{
		UserResponse:   "Certo!",
		SystemResponse: map[string]any{"function": FunctionNoAction, "services": []any{"junk"}},
	}
	got, err := Normalize(raw, &domain.WorkingContext{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SystemResponse) != 1 || got.Function() != FunctionNoAction {
		t.Errorf("payload not cleared: %v", got.SystemResponse)
	}
	if _, ok := raw.SystemResponse["services"]; !ok {
		t.Error("raw reply was mutated")
	}
}

func TestNormalizeUnknownActionPassesThrough(t *testing.T) {
	t.Parallel()

	got, err := Normalize(&domain.Reply{
		UserResponse:   "ok",
		SystemResponse: map[string]any{"function": "open_map", "lat": 1.5},
	}, &domain.WorkingContext{})
	if err != nil {
		t.Fatal(err)
	}
	if got.Function() != "open_map" || got.SystemResponse["lat"] != 1.5 {
		t.Errorf("got %v", got.SystemResponse)
	}
}

func TestNormalizeRejectsMalformedReplies(t *testing.T) {
	t.Parallel()

	if _, err := Normalize(nil, nil); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("nil reply err = %v", err)
	}
	_, err := Normalize(&domain.Reply{UserResponse: "  "}, nil)
	if ReasonOf(err) != ReasonIncompleteMessage {
		t.Errorf("empty reply reason = %v", ReasonOf(err))
	}
	if _, err := Normalize(&domain.Reply{UserResponse: "x", SystemResponse: map[string]any{"function": 3}}, nil); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("numeric function err = %v", err)
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	for _, r := range Reasons() {
		got := Fallback(r, errors.New("secret: db password wrong"))
		if got.UserResponse == "" || strings.Contains(got.UserResponse, "secret") {
			t.Errorf("%s: user response %q", r, got.UserResponse)
		}
		want := http.StatusInternalServerError
		if r == ReasonAbusiveInteraction {
			want = http.StatusUnauthorized
		}
		if got.Status != want || got.Metadata.Reason != string(r) || got.Type != domain.ResponseFallback {
			t.Errorf("%s: got %+v", r, got)
		}
	}

	if got := Fallback("made_up", nil); got.Metadata.Reason != string(ReasonInternalError) {
		t.Errorf("unknown reason mapped to %q", got.Metadata.Reason)
	}
}

func TestFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want Reason
	}{
		{WithReason(ReasonNoSchedule, nil), ReasonNoSchedule},
		{fmt.Errorf("wrapped: %w", WithReason(ReasonIncomprehensibleMessage, errors.New("x"))), ReasonIncomprehensibleMessage},
		{ErrAmbiguousCatalog, ReasonInternalError},
		{context.DeadlineExceeded, ReasonInternalError},
	}
	for _, tt := range tests {
		if got := FromError(tt.err); got.Metadata.Reason != string(tt.want) {
			t.Errorf("FromError(%v) reason = %q, want %q", tt.err, got.Metadata.Reason, tt.want)
		}
	}
}

func TestClosing(t *testing.T) {
	t.Parallel()

	got := Closing()
	if got.Function() != FunctionCloseChat || got.Status != http.StatusOK || got.UserResponse != closingMessage {
		t.Errorf("got %+v", got)
	}
}
