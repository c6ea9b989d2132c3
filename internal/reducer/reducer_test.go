package reducer

import (
	"errors"
	"testing"

	"github.com/ashureev/chatengine/internal/domain"
)

func fullContext(intent domain.Intent) *domain.WorkingContext {
	return &domain.WorkingContext{
		UserMessage: "mensagem",
		Intents:     []domain.Intent{intent},
		MainIntent:  intent,
		Step:        domain.StepInProgress,
		Data: domain.Data{
			Company: domain.Record{
				"id": int64(1), "name": "Clínica Sorriso", "status": "ACTIVE", "is_open": "OPEN",
				"chatbot_status": "ONLINE", "address": "Rua A", "open_work": "08:00 às 18:00",
				"work_days": []string{"seg"}, "social_media": map[string]string{}, "updated_at": "x",
			},
			Assistant: domain.Record{"id": int64(3), "name": "Ana", "status": "ONLINE", "type": "GPT", "api_url": "http://secret", "token_limit": int64(1000)},
			Services: []domain.CategoryGroup{
				{CategoryName: "Estética", Services: []domain.Record{
					{"id": int64(10), "name": "Limpeza", "description": "d", "price": 100.0, "duration": 60, "rating": 4.9, "image": "x.png"},
				}},
				{CategoryName: "Vazia", Services: nil},
			},
			Schedule: []domain.Record{
				{"public_id": "s1", "title": "Limpeza", "start": "2024-01-01T10:00:00Z", "end": "2024-01-01T11:00:00Z", "status": "CONFIRMED", "location": "sala 2", "customer_name": "João"},
			},
			ScheduleSlots: []domain.Record{
				{"public_id": "p1", "start": "a", "end": "b", "all_day": false, "is_active": true, "is_recurring": false, "service_id": int64(10)},
			},
		},
		Profanity: &domain.ProfanityAnalysis{},
	}
}

func TestReduceBasicOnlyDropsCatalogAndSchedule(t *testing.T) {
	t.Parallel()

	for _, intent := range []domain.Intent{domain.IntentWelcome, domain.IntentCloseChat, domain.IntentComplaint, domain.IntentGeneral} {
		got := ReduceByIntent(fullContext(intent))
		for _, k := range []string{domain.DataServices, domain.DataSchedule, domain.DataScheduleSlots} {
			if got.Data.Has(k) {
				t.Errorf("%s: unexpected %q key", intent, k)
			}
		}
		if _, ok := got.Data.Company["id"]; ok {
			t.Errorf("%s: company id should be trimmed", intent)
		}
		if _, ok := got.Data.Assistant["api_url"]; ok {
			t.Errorf("%s: assistant api_url should be trimmed", intent)
		}
		if got.Profanity != nil {
			t.Errorf("%s: diagnostics kept", intent)
		}
	}
}

func TestReduceCatalog(t *testing.T) {
	t.Parallel()

	in := fullContext(domain.IntentServiceInfo)
	got := ReduceByIntent(in)

	if len(got.Data.Services) != 1 || got.Data.Services[0].CategoryName != "Estética" {
		t.Fatalf("Services = %+v", got.Data.Services)
	}
	svc := got.Data.Services[0].Services[0]
	if _, ok := svc["rating"]; ok {
		t.Error("rating should be trimmed")
	}
	if svc["price"] != 100.0 {
		t.Errorf("price = %v", svc["price"])
	}
	if got.Data.Schedule != nil || got.Data.ScheduleSlots != nil {
		t.Error("schedule data should be dropped")
	}
	// Input is untouched.
	if _, ok := in.Data.Services[0].Services[0]["rating"]; !ok {
		t.Error("input was mutated")
	}
}

func TestReduceSchedule(t *testing.T) {
	t.Parallel()

	got := ReduceByIntent(fullContext(domain.IntentScheduleInfo))
	if len(got.Data.Schedule) != 1 {
		t.Fatalf("Schedule = %v", got.Data.Schedule)
	}
	if _, ok := got.Data.Schedule[0]["location"]; ok {
		t.Error("location should be trimmed")
	}
	if got.Data.Schedule[0]["customer_name"] != "João" {
		t.Error("customer_name should be kept")
	}
	if got.Data.ScheduleSlots != nil || got.Data.Services != nil {
		t.Error("slots and services should be dropped")
	}
}

func TestReduceSlots(t *testing.T) {
	t.Parallel()

	got := ReduceByIntent(fullContext(domain.IntentScheduleSlotInfo))
	if len(got.Data.ScheduleSlots) != 1 {
		t.Fatalf("ScheduleSlots = %v", got.Data.ScheduleSlots)
	}
	if _, ok := got.Data.ScheduleSlots[0]["service_id"]; ok {
		t.Error("service_id should be trimmed")
	}
	if got.Data.Schedule != nil {
		t.Error("schedule should be dropped")
	}

	empty := fullContext(domain.IntentScheduleSlotInfo)
	empty.Data.ScheduleSlots = nil
	got = ReduceByIntent(empty)
	if got.Data.ScheduleSlots == nil || len(got.Data.ScheduleSlots) != 0 {
		t.Errorf("missing slots should become an empty list, got %v", got.Data.ScheduleSlots)
	}
}

func TestReduceUnmatchedPassesThrough(t *testing.T) {
	t.Parallel()

	got := ReduceByIntent(fullContext(domain.IntentOpeningHours))
	if _, ok := got.Data.Company["id"]; !ok {
		t.Error("unmatched intent should not trim company")
	}
	if len(got.Data.Services) != 2 {
		t.Error("unmatched intent should keep services")
	}
	if got.Profanity != nil {
		t.Error("diagnostics should be dropped")
	}
}

func TestRouteAbuse(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, nil)
	ctx := fullContext(domain.IntentCancel)
	ctx.UserMessage = "vai se foder, quero cancelar"
	ctx.Profanity = nil

	got, err := r.Route(ctx)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if got.MainIntent != domain.IntentAbusive {
		t.Fatalf("MainIntent = %s", got.MainIntent)
	}
	if got.OriginalMessage != ctx.UserMessage {
		t.Errorf("OriginalMessage = %q", got.OriginalMessage)
	}
	if got.UserMessage == ctx.UserMessage || got.UserMessage != got.SanitizedMessage {
		t.Errorf("UserMessage = %q, want masked", got.UserMessage)
	}
	if !got.RequiresHuman {
		t.Error("RequiresHuman = false")
	}
	if len(got.Data.Keys()) != 0 {
		t.Errorf("abuse context carries data %v", got.Data.Keys())
	}
}

func TestRouteMissingAssistant(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, nil)
	ctx := fullContext(domain.IntentWelcome)
	ctx.Data.Assistant = nil
	if _, err := r.Route(ctx); !errors.Is(err, ErrMissingAssistant) {
		t.Fatalf("Route() error = %v, want ErrMissingAssistant", err)
	}
}

func TestRouteSensitiveAndNoContext(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil, nil)

	got, err := r.Route(fullContext(domain.IntentComplaint))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Data.Has(domain.DataCompany) || !got.Data.Has(domain.DataAssistant) || got.Data.Has(domain.DataServices) {
		t.Errorf("complaint keys = %v", got.Data.Keys())
	}
	if got.Triage == nil || len(got.Triage.Services) != 1 || got.Triage.Services[0] != "Limpeza" || len(got.Triage.Schedules) != 1 {
		t.Errorf("Triage = %+v", got.Triage)
	}

	got, err = r.Route(fullContext(domain.IntentTransferHuman))
	if err != nil {
		t.Fatal(err)
	}
	if got.Triage != nil {
		t.Error("transfer should not carry triage")
	}

	got, err = r.Route(fullContext(domain.IntentCloseChat))
	if err != nil {
		t.Fatal(err)
	}
	if keys := got.Data.Keys(); len(keys) != 1 || keys[0] != domain.DataAssistant {
		t.Errorf("close keys = %v", keys)
	}

	got, err = r.Route(fullContext(domain.IntentServiceInfo))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Data.Has(domain.DataServices) {
		t.Error("service info should pass through")
	}
}
