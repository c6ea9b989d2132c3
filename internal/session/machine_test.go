package session

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/chatengine/internal/clock"
	"github.com/ashureev/chatengine/internal/domain"
)

type fakeStore struct {
	mu      sync.Mutex
	chats   map[int64]*domain.Chat
	nextID  int64
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{chats: make(map[int64]*domain.Chat)}
}

func (f *fakeStore) GetChatByExternalID(_ context.Context, companyID int64, externalID string) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.CompanyID == companyID && c.ExternalID == externalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetChatByCode(_ context.Context, companyID int64, code string) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.CompanyID == companyID && c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateChat(_ context.Context, chat *domain.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	chat.ID = f.nextID
	cp := *chat
	f.chats[chat.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateChat(_ context.Context, chatID int64, patch domain.ChatPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return fmt.Errorf("chat %d not found", chatID)
	}
	patch.Apply(c)
	f.updates++
	return nil
}

func (f *fakeStore) get(id int64) domain.Chat {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.chats[id]
}

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

var chatCodePattern = regexp.MustCompile(`^chat_7_[0-9a-f]{8}$`)

func TestResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newFakeStore()
	m := NewMachine(st, Options{Clock: clock.Fake(t0)})

	created, err := m.Resolve(ctx, 7, "5511", "")
	if err != nil {
		t.Fatal(err)
	}
	if !chatCodePattern.MatchString(created.Code) {
		t.Errorf("chat code = %q", created.Code)
	}
	if created.Step != domain.StepStart || created.MaxInteraction != domain.DefaultMaxInteraction {
		t.Errorf("new chat = %+v", created)
	}

	byExt, _ := m.Resolve(ctx, 7, "5511", "")
	if byExt.ID != created.ID {
		t.Errorf("external id resolved to %d, want %d", byExt.ID, created.ID)
	}
	byCode, _ := m.Resolve(ctx, 7, "", created.Code)
	if byCode.ID != created.ID {
		t.Errorf("code resolved to %d, want %d", byCode.ID, created.ID)
	}

	fresh, _ := m.Resolve(ctx, 7, "", "chat_7_00000000")
	if fresh.ID == created.ID || fresh.Code == "chat_7_00000000" {
		t.Errorf("unknown code reused: %+v", fresh)
	}
}

func TestResetIfIdle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.Fake(t0)
	st := newFakeStore()
	m := NewMachine(st, Options{Clock: clk})
	chat, _ := m.Resolve(ctx, 7, "", "")
	chat.InteractionCount = 5
	_ = st.UpdateChat(ctx, chat.ID, domain.ChatPatch{InteractionCount: &chat.InteractionCount})

	clk.Advance(23 * time.Hour)
	if reset, _ := m.ResetIfIdle(ctx, chat); reset {
		t.Fatal("reset before 24h")
	}

	clk.Advance(2 * time.Hour)
	reset, err := m.ResetIfIdle(ctx, chat)
	if err != nil || !reset {
		t.Fatalf("ResetIfIdle() = %v, %v", reset, err)
	}
	if chat.InteractionCount != 0 || st.get(chat.ID).InteractionCount != 0 {
		t.Errorf("counter not reset: %d / %d", chat.InteractionCount, st.get(chat.ID).InteractionCount)
	}
	if !chat.LastInteractionAt.Equal(clk.Now()) {
		t.Errorf("last interaction = %v", chat.LastInteractionAt)
	}
}

func TestLimitBlocksAndIdleReleases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clk := clock.Fake(t0)
	st := newFakeStore()
	m := NewMachine(st, Options{Clock: clk, MaxInteraction: 2})
	chat, _ := m.Resolve(ctx, 7, "", "")

	for i := 0; i < 2; i++ {
		if blocked, _ := m.CheckLimit(ctx, chat); blocked {
			t.Fatalf("blocked after %d replies", i)
		}
		m.RecordReply(chat, "oi", "Olá", domain.IntentWelcome, domain.SentimentNeutral)
	}
	blocked, err := m.CheckLimit(ctx, chat)
	if err != nil || !blocked {
		t.Fatalf("CheckLimit() = %v, %v", blocked, err)
	}
	if st.get(chat.ID).Step != domain.StepBlockedLimit {
		t.Errorf("stored step = %s", st.get(chat.ID).Step)
	}

	clk.Advance(25 * time.Hour)
	if reset, _ := m.ResetIfIdle(ctx, chat); !reset {
		t.Fatal("idle reset did not fire")
	}
	if chat.Step != domain.StepInProgress {
		t.Errorf("step after reset = %s, want IN_PROGRESS", chat.Step)
	}
	if blocked, _ := m.CheckLimit(ctx, chat); blocked {
		t.Error("still blocked after reset")
	}
}

func TestApplyIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		intent domain.Intent
		fired  bool
		want   domain.Step
		human  bool
	}{
		{domain.IntentAbusive, true, domain.StepBlockedAbuse, false},
		{domain.IntentCloseChat, true, domain.StepClosing, false},
		{domain.IntentTransferHuman, true, domain.StepWaitingHuman, true},
		{domain.IntentWelcome, false, domain.StepStart, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			st := newFakeStore()
			m := NewMachine(st, Options{Clock: clock.Fake(t0)})
			chat, _ := m.Resolve(ctx, 7, "", "")

			fired, err := m.ApplyIntent(ctx, chat, tt.intent)
			if err != nil || fired != tt.fired {
				t.Fatalf("ApplyIntent() = %v, %v", fired, err)
			}
			stored := st.get(chat.ID)
			if stored.Step != tt.want || chat.Step != tt.want {
				t.Errorf("step = %s (stored %s), want %s", chat.Step, stored.Step, tt.want)
			}
			if stored.HumanAttendance != tt.human {
				t.Errorf("human attendance = %v", stored.HumanAttendance)
			}
		})
	}
}

func TestMarkUnavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newFakeStore()
	m := NewMachine(st, Options{Clock: clock.Fake(t0)})
	chat, _ := m.Resolve(ctx, 7, "", "")

	if err := m.MarkUnavailable(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkUnavailable(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if st.get(chat.ID).Step != domain.StepBlockedSystem {
		t.Errorf("step = %s", st.get(chat.ID).Step)
	}
	if st.updates != 1 {
		t.Errorf("updates = %d, want 1", st.updates)
	}
}

func TestResumeReleasesSystemBlock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newFakeStore()
	m := NewMachine(st, Options{Clock: clock.Fake(t0)})
	chat, _ := m.Resolve(ctx, 7, "", "")

	if err := m.Resume(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if st.updates != 0 {
		t.Fatalf("updates = %d, want 0 for a chat that is not blocked", st.updates)
	}

	if err := m.MarkUnavailable(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if err := m.Resume(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if chat.Step != domain.StepInProgress || st.get(chat.ID).Step != domain.StepInProgress {
		t.Errorf("step = %s, stored = %s", chat.Step, st.get(chat.ID).Step)
	}

	abused := &domain.Chat{ID: chat.ID, Step: domain.StepBlockedAbuse}
	if err := m.Resume(ctx, abused); err != nil {
		t.Fatal(err)
	}
	if abused.Step != domain.StepBlockedAbuse {
		t.Errorf("abuse block released: step = %s", abused.Step)
	}
}

func TestRecordReplyCapsHistory(t *testing.T) {
	t.Parallel()

	clk := clock.Fake(t0)
	m := NewMachine(newFakeStore(), Options{Clock: clk, HistoryLimit: 3})
	chat := &domain.Chat{Step: domain.StepStart, MaxInteraction: 20}

	var patch domain.ChatPatch
	for i := 0; i < 5; i++ {
		clk.Advance(time.Minute)
		patch = m.RecordReply(chat, fmt.Sprintf("msg %d", i), "ok", domain.IntentGeneral, domain.SentimentNeutral)
	}

	if chat.InteractionCount != 5 || *patch.InteractionCount != 5 {
		t.Errorf("count = %d", chat.InteractionCount)
	}
	if chat.Step != domain.StepInProgress {
		t.Errorf("step = %s", chat.Step)
	}
	h := chat.Context.History
	if len(h) != 3 || h[0].UserMessage != "msg 2" || h[2].UserMessage != "msg 4" {
		t.Errorf("history = %+v", h)
	}
	if !chat.LastInteractionAt.Equal(clk.Now()) {
		t.Errorf("last interaction = %v", chat.LastInteractionAt)
	}
	if chat.Context.LastResponse != "ok" || chat.Context.MainIntent != domain.IntentGeneral {
		t.Errorf("context = %+v", chat.Context)
	}
}

func TestRecordReplyKeepsBlockedStep(t *testing.T) {
	t.Parallel()

	m := NewMachine(newFakeStore(), Options{Clock: clock.Fake(t0)})
	chat := &domain.Chat{Step: domain.StepBlockedAbuse}
	patch := m.RecordReply(chat, "x", "y", domain.IntentAbusive, domain.SentimentNegative)
	if patch.Step != nil || chat.Step != domain.StepBlockedAbuse {
		t.Errorf("blocked step overwritten: %s", chat.Step)
	}
}
