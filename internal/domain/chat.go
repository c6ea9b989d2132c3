package domain

import (
	"errors"
	"fmt"
	"time"
)

// Step is the position of a chat in its lifecycle.
type Step string

// Chat lifecycle steps.
const (
	StepStart           Step = "START"
	StepInProgress      Step = "IN_PROGRESS"
	StepBotHandling     Step = "BOT_HANDLING"
	StepWaitingHuman    Step = "WAITING_HUMAN"
	StepHumanHandling   Step = "HUMAN_HANDLING"
	StepWaitingFeedback Step = "WAITING_FEEDBACK"
	StepFeedback        Step = "FEEDBACK"
	StepClosing         Step = "CLOSING"
	StepCompleted       Step = "COMPLETED"
	StepBlockedAbuse    Step = "BLOCKED_ABUSE"
	StepBlockedLimit    Step = "BLOCKED_LIMIT"
	StepBlockedSystem   Step = "BLOCKED_SYSTEM"
)

// IsBlocked reports whether the step is one of the block states.
func (s Step) IsBlocked() bool {
	return s == StepBlockedAbuse || s == StepBlockedLimit || s == StepBlockedSystem
}

// DefaultMaxInteraction is the interaction budget of a new chat.
const DefaultMaxInteraction = 20

// HistoryEntry is one message/response pair kept in the chat context.
type HistoryEntry struct {
	UserMessage string    `json:"user_message"`
	Response    string    `json:"response"`
	Intent      Intent    `json:"intent"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChatContext is the bounded blob persisted with a chat.
type ChatContext struct {
	MainIntent   Intent         `json:"main_intent,omitempty"`
	Sentiment    Sentiment      `json:"sentiment,omitempty"`
	LastResponse string         `json:"last_response,omitempty"`
	History      []HistoryEntry `json:"history,omitempty"`
}

// Chat is a conversation thread owned by a company.
type Chat struct {
	ID                int64       `json:"id"`
	CompanyID         int64       `json:"company_id"`
	ExternalID        string      `json:"external_id,omitempty"`
	Code              string      `json:"chat_code"`
	Step              Step        `json:"step"`
	InteractionCount  int         `json:"interaction_count"`
	MaxInteraction    int         `json:"max_interaction"`
	HumanAttendance   bool        `json:"human_attendance"`
	Context           ChatContext `json:"context"`
	LastInteractionAt time.Time   `json:"last_interaction_at"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	DeletedAt         *time.Time  `json:"deleted_at,omitempty"`
}

// ErrFieldNotUpdatable is returned when a patch names a field outside the whitelist.
var ErrFieldNotUpdatable = errors.New("field is not updatable")

// Updatable chat fields.
const (
	FieldStep              = "step"
	FieldInteractionCount  = "interaction_count"
	FieldMaxInteraction    = "max_interaction"
	FieldLastInteractionAt = "last_interaction_at"
	FieldHumanAttendance   = "human_attendance"
	FieldContext           = "context"
)

// ChatPatch is a typed partial update of a chat. Nil fields are left untouched.
type ChatPatch struct {
	Step              *Step
	InteractionCount  *int
	MaxInteraction    *int
	LastInteractionAt *time.Time
	HumanAttendance   *bool
	Context           *ChatContext
}

// IsEmpty reports whether the patch changes nothing.
func (p ChatPatch) IsEmpty() bool {
	return p.Step == nil && p.InteractionCount == nil && p.MaxInteraction == nil &&
		p.LastInteractionAt == nil && p.HumanAttendance == nil && p.Context == nil
}

// Validate checks value ranges of the set fields.
func (p ChatPatch) Validate() error {
	if p.InteractionCount != nil && *p.InteractionCount < 0 {
		return fmt.Errorf("%s must be >= 0", FieldInteractionCount)
	}
	if p.MaxInteraction != nil && *p.MaxInteraction <= 0 {
		return fmt.Errorf("%s must be > 0", FieldMaxInteraction)
	}
	if p.Step != nil && *p.Step == "" {
		return fmt.Errorf("%s cannot be empty", FieldStep)
	}
	return nil
}

// Apply copies the set fields onto chat.
func (p ChatPatch) Apply(chat *Chat) {
	if p.Step != nil {
		chat.Step = *p.Step
	}
	if p.InteractionCount != nil {
		chat.InteractionCount = *p.InteractionCount
	}
	if p.MaxInteraction != nil {
		chat.MaxInteraction = *p.MaxInteraction
	}
	if p.LastInteractionAt != nil {
		chat.LastInteractionAt = *p.LastInteractionAt
	}
	if p.HumanAttendance != nil {
		chat.HumanAttendance = *p.HumanAttendance
	}
	if p.Context != nil {
		chat.Context = *p.Context
	}
}

// PatchFromMap builds a patch from untyped input such as a decoded JSON body.
// Keys outside the whitelist and values of the wrong type are rejected.
func PatchFromMap(fields map[string]any) (ChatPatch, error) {
	var p ChatPatch
	for key, value := range fields {
		switch key {
		case FieldStep:
			s, ok := value.(string)
			if !ok {
				return ChatPatch{}, fmt.Errorf("%s: expected string, got %T", key, value)
			}
			step := Step(s)
			p.Step = &step
		case FieldInteractionCount, FieldMaxInteraction:
			n, err := asInt(value)
			if err != nil {
				return ChatPatch{}, fmt.Errorf("%s: %w", key, err)
			}
			if key == FieldInteractionCount {
				p.InteractionCount = &n
			} else {
				p.MaxInteraction = &n
			}
		case FieldHumanAttendance:
			b, ok := value.(bool)
			if !ok {
				return ChatPatch{}, fmt.Errorf("%s: expected bool, got %T", key, value)
			}
			p.HumanAttendance = &b
		case FieldLastInteractionAt:
			t, ok := value.(time.Time)
			if !ok {
				return ChatPatch{}, fmt.Errorf("%s: expected time, got %T", key, value)
			}
			p.LastInteractionAt = &t
		case FieldContext:
			c, ok := value.(ChatContext)
			if !ok {
				return ChatPatch{}, fmt.Errorf("%s: expected chat context, got %T", key, value)
			}
			p.Context = &c
		default:
			return ChatPatch{}, fmt.Errorf("%q: %w", key, ErrFieldNotUpdatable)
		}
	}
	return p, p.Validate()
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("expected integer, got %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
