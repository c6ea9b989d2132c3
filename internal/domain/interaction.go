package domain

import (
	"errors"
	"time"
)

// ErrQuotaExceeded is returned when a turn would push an assistant past its token limit.
var ErrQuotaExceeded = errors.New("token quota exceeded")

// TokenUsage reports tokens consumed by one generative call.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Total returns TotalTokens, falling back to the sum of its parts.
func (u TokenUsage) Total() int64 {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.PromptTokens + u.CompletionTokens
}

// Interaction is the per-chat analytics row.
type Interaction struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	ChatID           int64     `json:"chat_id"`
	Sentiment        Sentiment `json:"sentiment"`
	InteractionType  string    `json:"interaction_type"`
	Summary          string    `json:"summary,omitempty"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// SentimentAggregate counts message sentiments of a chat.
type SentimentAggregate struct {
	ChatID         int64     `json:"chat_id"`
	PositiveCount  int       `json:"positive_count"`
	NegativeCount  int       `json:"negative_count"`
	NeutralCount   int       `json:"neutral_count"`
	FinalSentiment Sentiment `json:"final_sentiment"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Add counts one more message and recomputes the predominant sentiment.
// Ties resolve in the order positive, negative, neutral.
func (a *SentimentAggregate) Add(s Sentiment) {
	switch s {
	case SentimentPositive:
		a.PositiveCount++
	case SentimentNegative:
		a.NegativeCount++
	default:
		a.NeutralCount++
	}
	a.FinalSentiment = SentimentPositive
	best := a.PositiveCount
	if a.NegativeCount > best {
		a.FinalSentiment, best = SentimentNegative, a.NegativeCount
	}
	if a.NeutralCount > best {
		a.FinalSentiment = SentimentNeutral
	}
}

// Turn is everything persisted after a successfully generated reply.
// It is committed atomically: the quota check runs before anything is written.
type Turn struct {
	ChatID          int64
	CompanyID       int64
	Patch           ChatPatch
	Sentiment       Sentiment
	Usage           TokenUsage
	InteractionType string
	Summary         string
	At              time.Time
}
