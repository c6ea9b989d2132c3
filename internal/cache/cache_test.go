package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/chatengine/internal/clock"
	"github.com/ashureev/chatengine/internal/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	company  *domain.Company
	slots    []domain.ScheduleSlot
	lastMod  map[domain.Kind]time.Time
	loads    map[domain.Kind]int
	failLoad error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		company: &domain.Company{ID: 1, Name: "Clínica Sorriso", IsOpen: true},
		lastMod: make(map[domain.Kind]time.Time),
		loads:   make(map[domain.Kind]int),
	}
}

func (f *fakeSource) count(k domain.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads[k]
}

func (f *fakeSource) touch(k domain.Kind, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMod[k] = at
}

func (f *fakeSource) CompanyInfo(context.Context, int64) (*domain.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[domain.KindCompany]++
	if f.failLoad != nil {
		return nil, f.failLoad
	}
	c := *f.company
	return &c, nil
}

func (f *fakeSource) AssistantInfo(context.Context, int64) (*domain.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[domain.KindAssistant]++
	return nil, nil
}

func (f *fakeSource) ServiceCatalog(context.Context, int64) ([]domain.ServiceCategory, error) {
	return nil, nil
}

func (f *fakeSource) Schedules(context.Context, int64) ([]domain.Schedule, error) {
	return nil, nil
}

func (f *fakeSource) ScheduleSlots(context.Context, int64) ([]domain.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads[domain.KindScheduleSlots]++
	return f.slots, nil
}

func (f *fakeSource) LastModified(_ context.Context, k domain.Kind, _ int64) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMod[k], nil
}

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestLookupHitsUntilSourceIsNewer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.Fake(t0)
	src := newFakeSource()
	src.touch(domain.KindCompany, t0.Add(-time.Hour))
	c := New(NewMemoryStore(clk), src, Options{Clock: clk})

	got, err := c.Company(ctx, 1)
	if err != nil || got.Name != "Clínica Sorriso" {
		t.Fatalf("Company() = %+v, %v", got, err)
	}
	if _, err := c.Company(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if n := src.count(domain.KindCompany); n != 1 {
		t.Fatalf("source loads = %d, want 1 (second read should hit)", n)
	}

	// A company row updated after the entry was cached forces a fresh read.
	clk.Advance(10 * time.Second)
	src.mu.Lock()
	src.company.Name = "Clínica Nova"
	src.company.IsOpen = false
	src.mu.Unlock()
	src.touch(domain.KindCompany, clk.Now())

	got, err = c.Company(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Clínica Nova" || got.IsOpen {
		t.Fatalf("stale company served: %+v", got)
	}
	if n := src.count(domain.KindCompany); n != 2 {
		t.Fatalf("source loads = %d, want 2", n)
	}
}

func TestLookupExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.Fake(t0)
	src := newFakeSource()
	c := New(NewMemoryStore(clk), src, Options{Clock: clk, TTL: time.Minute})

	if _, err := c.Company(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clk.Advance(2 * time.Minute)
	if _, err := c.Company(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if n := src.count(domain.KindCompany); n != 2 {
		t.Fatalf("source loads = %d, want 2 after TTL", n)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.Fake(t0)
	src := newFakeSource()
	c := New(NewMemoryStore(clk), src, Options{Clock: clk})

	_, _ = c.Company(ctx, 1)
	_, _ = c.Assistant(ctx, 1)
	if err := c.Invalidate(ctx, 1, domain.KindCompany); err != nil {
		t.Fatal(err)
	}
	_, _ = c.Company(ctx, 1)
	_, _ = c.Assistant(ctx, 1)

	if n := src.count(domain.KindCompany); n != 2 {
		t.Errorf("company loads = %d, want 2", n)
	}
	if n := src.count(domain.KindAssistant); n != 1 {
		t.Errorf("assistant loads = %d, want 1", n)
	}
}

func TestMissingRowsAreCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newFakeSource()
	c := New(NewMemoryStore(nil), src, Options{})

	for i := 0; i < 3; i++ {
		a, err := c.Assistant(ctx, 1)
		if err != nil || a != nil {
			t.Fatalf("Assistant() = %v, %v", a, err)
		}
	}
	if n := src.count(domain.KindAssistant); n != 1 {
		t.Fatalf("assistant loads = %d, want 1", n)
	}
}

func TestLoadErrorPropagates(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.failLoad = errors.New("db down")
	c := New(NewMemoryStore(nil), src, Options{})
	if _, err := c.Company(context.Background(), 1); err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("Company() error = %v", err)
	}
}

func TestOpenSlots(t *testing.T) {
	t.Parallel()

	booked := int64(9)
	src := newFakeSource()
	src.slots = []domain.ScheduleSlot{
		{PublicID: "a", IsActive: true},
		{PublicID: "b", IsActive: false},
		{PublicID: "c", IsActive: true, ScheduleID: &booked},
		{PublicID: "d", IsActive: true, Start: t0, End: t0.Add(time.Hour)},
	}
	c := New(NewMemoryStore(nil), src, Options{})

	open, err := c.OpenSlots(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 || open[0].PublicID != "a" || open[1].PublicID != "d" {
		t.Fatalf("OpenSlots() = %+v", open)
	}
	if !open[1].Start.Equal(t0) {
		t.Errorf("slot start round-trip = %v", open[1].Start)
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	if got := Key(domain.KindServices, 42); got != "chat_data_service_data_42" {
		t.Fatalf("Key() = %q", got)
	}
}
