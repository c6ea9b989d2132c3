// Package session drives the lifecycle of a chat: resolution, idle reset,
// interaction limits and intent-driven transitions.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/chatengine/internal/clock"
	"github.com/ashureev/chatengine/internal/domain"
	"github.com/google/uuid"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultHistoryLimit = 10
	DefaultIdleReset    = 24 * time.Hour
)

// Store is the chat persistence the machine needs.
type Store interface {
	GetChatByExternalID(ctx context.Context, companyID int64, externalID string) (*domain.Chat, error)
	GetChatByCode(ctx context.Context, companyID int64, code string) (*domain.Chat, error)
	CreateChat(ctx context.Context, chat *domain.Chat) error
	UpdateChat(ctx context.Context, chatID int64, patch domain.ChatPatch) error
}

// Options configures a Machine.
type Options struct {
	Clock          clock.Clock
	HistoryLimit   int
	MaxInteraction int
	IdleReset      time.Duration
	Logger         *slog.Logger
}

// Machine applies state transitions to chats and persists them.
type Machine struct {
	store          Store
	clock          clock.Clock
	historyLimit   int
	maxInteraction int
	idleReset      time.Duration
	logger         *slog.Logger
}

// NewMachine creates a Machine over store.
func NewMachine(store Store, opts Options) *Machine {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.MaxInteraction <= 0 {
		opts.MaxInteraction = domain.DefaultMaxInteraction
	}
	if opts.IdleReset <= 0 {
		opts.IdleReset = DefaultIdleReset
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Machine{
		store:          store,
		clock:          clock.OrReal(opts.Clock),
		historyLimit:   opts.HistoryLimit,
		maxInteraction: opts.MaxInteraction,
		idleReset:      opts.IdleReset,
		logger:         opts.Logger,
	}
}

// NewChatCode returns a fresh chat code for companyID.
func NewChatCode(companyID int64) string {
	short, _, _ := strings.Cut(uuid.NewString(), "-")
	return fmt.Sprintf("chat_%d_%s", companyID, short)
}

// Resolve finds the chat by external id, then by code, and creates one when
// neither matches. An unknown code is logged and replaced by a new chat.
func (m *Machine) Resolve(ctx context.Context, companyID int64, externalID, code string) (*domain.Chat, error) {
	if externalID != "" {
		chat, err := m.store.GetChatByExternalID(ctx, companyID, externalID)
		if err != nil {
			return nil, fmt.Errorf("resolve chat by external id: %w", err)
		}
		if chat != nil {
			return chat, nil
		}
	}

	if code != "" {
		chat, err := m.store.GetChatByCode(ctx, companyID, code)
		if err != nil {
			return nil, fmt.Errorf("resolve chat by code: %w", err)
		}
		if chat != nil {
			return chat, nil
		}
		m.logger.Warn("Chat code not found, starting a new chat", "company_id", companyID, "chat_code", code)
	}

	now := m.clock.Now()
	chat := &domain.Chat{
		CompanyID:         companyID,
		ExternalID:        externalID,
		Code:              NewChatCode(companyID),
		Step:              domain.StepStart,
		MaxInteraction:    m.maxInteraction,
		LastInteractionAt: now,
		CreatedAt:         now,
	}
	if err := m.store.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	m.logger.Info("Chat created", "company_id", companyID, "chat_code", chat.Code)
	return chat, nil
}

// ResetIfIdle zeroes the interaction counter when the chat has been idle for
// longer than the reset window. A chat blocked by its limit is released.
func (m *Machine) ResetIfIdle(ctx context.Context, chat *domain.Chat) (bool, error) {
	now := m.clock.Now()
	if now.Sub(chat.LastInteractionAt) <= m.idleReset {
		return false, nil
	}
	if chat.InteractionCount == 0 && chat.Step != domain.StepBlockedLimit {
		return false, nil
	}

	zero := 0
	patch := domain.ChatPatch{InteractionCount: &zero, LastInteractionAt: &now}
	if chat.Step == domain.StepBlockedLimit {
		step := domain.StepInProgress
		patch.Step = &step
	}
	if err := m.update(ctx, chat, patch); err != nil {
		return false, err
	}
	m.logger.Info("Chat counters reset after idle period", "chat_code", chat.Code)
	return true, nil
}

// CheckLimit moves the chat to BLOCKED_LIMIT and reports true once its
// interaction budget is spent.
func (m *Machine) CheckLimit(ctx context.Context, chat *domain.Chat) (bool, error) {
	if chat.InteractionCount < chat.MaxInteraction {
		return false, nil
	}
	if chat.Step != domain.StepBlockedLimit {
		step := domain.StepBlockedLimit
		if err := m.update(ctx, chat, domain.ChatPatch{Step: &step}); err != nil {
			return true, err
		}
		m.logger.Info("Chat reached interaction limit", "chat_code", chat.Code, "count", chat.InteractionCount)
	}
	return true, nil
}

// ApplyIntent runs the transition triggered by a resolved intent and reports
// whether one fired. ABUSIVE blocks the chat, CLOSE_CHAT closes it and
// TRANSFER_HUMAN hands it to a human.
func (m *Machine) ApplyIntent(ctx context.Context, chat *domain.Chat, intent domain.Intent) (bool, error) {
	var patch domain.ChatPatch
	switch intent {
	case domain.IntentAbusive:
		step := domain.StepBlockedAbuse
		patch.Step = &step
	case domain.IntentCloseChat:
		step := domain.StepClosing
		patch.Step = &step
	case domain.IntentTransferHuman:
		step := domain.StepWaitingHuman
		human := true
		patch.Step = &step
		patch.HumanAttendance = &human
	default:
		return false, nil
	}
	if err := m.update(ctx, chat, patch); err != nil {
		return true, err
	}
	m.logger.Info("Chat step changed", "chat_code", chat.Code, "intent", intent, "step", chat.Step)
	return true, nil
}

// MarkUnavailable moves the chat to BLOCKED_SYSTEM.
func (m *Machine) MarkUnavailable(ctx context.Context, chat *domain.Chat) error {
	if chat.Step == domain.StepBlockedSystem {
		return nil
	}
	step := domain.StepBlockedSystem
	return m.update(ctx, chat, domain.ChatPatch{Step: &step})
}

// Resume releases a chat held in BLOCKED_SYSTEM once its assistant is back.
func (m *Machine) Resume(ctx context.Context, chat *domain.Chat) error {
	if chat.Step != domain.StepBlockedSystem {
		return nil
	}
	step := domain.StepInProgress
	if err := m.update(ctx, chat, domain.ChatPatch{Step: &step}); err != nil {
		return err
	}
	m.logger.Info("Chat resumed after assistant became available", "chat_code", chat.Code)
	return nil
}

// RecordReply applies a generated reply to chat and returns the patch to
// persist with the turn. The counter increments, the history keeps the most
// recent entries and the step becomes IN_PROGRESS unless the chat is blocked.
func (m *Machine) RecordReply(chat *domain.Chat, message, reply string, intent domain.Intent, sentiment domain.Sentiment) domain.ChatPatch {
	now := m.clock.Now()
	count := chat.InteractionCount + 1

	cctx := chat.Context
	cctx.History = append(append([]domain.HistoryEntry(nil), chat.Context.History...), domain.HistoryEntry{
		UserMessage: message,
		Response:    reply,
		Intent:      intent,
		Timestamp:   now,
	})
	if n := len(cctx.History); n > m.historyLimit {
		cctx.History = cctx.History[n-m.historyLimit:]
	}
	cctx.MainIntent = intent
	cctx.Sentiment = sentiment
	cctx.LastResponse = reply

	patch := domain.ChatPatch{
		InteractionCount:  &count,
		LastInteractionAt: &now,
		Context:           &cctx,
	}
	if !chat.Step.IsBlocked() {
		step := domain.StepInProgress
		patch.Step = &step
	}
	patch.Apply(chat)
	return patch
}

func (m *Machine) update(ctx context.Context, chat *domain.Chat, patch domain.ChatPatch) error {
	if err := m.store.UpdateChat(ctx, chat.ID, patch); err != nil {
		return fmt.Errorf("update chat %s: %w", chat.Code, err)
	}
	patch.Apply(chat)
	return nil
}
