package reducer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/profanity"
)

// ErrMissingAssistant is returned when a context reaches routing without assistant data.
var ErrMissingAssistant = errors.New("assistant data missing from context")

var noContextIntents = map[domain.Intent]bool{
	domain.IntentCloseChat: true,
	domain.IntentStart:     true,
	domain.IntentRestart:   true,
	domain.IntentGeneral:   true,
}

var sensitiveIntents = map[domain.Intent]bool{
	domain.IntentAbusive:       true,
	domain.IntentComplaint:     true,
	domain.IntentTransferHuman: true,
}

// Router screens a context for abuse and shapes it by intent sensitivity.
type Router struct {
	matcher *profanity.Matcher
	logger  *slog.Logger
}

// NewRouter creates a router. Contexts that carry no profanity verdict are
// screened with m.
func NewRouter(m *profanity.Matcher, logger *slog.Logger) *Router {
	if m == nil {
		m = profanity.NewMatcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{matcher: m, logger: logger}
}

// Route returns the context to hand on. Severe profanity overrides the intent
// to ABUSIVE and replaces the message with its masked form.
func (r *Router) Route(ctx *domain.WorkingContext) (*domain.WorkingContext, error) {
	if ctx == nil {
		return nil, fmt.Errorf("route: %w", ErrMissingAssistant)
	}
	verdict := ctx.Profanity
	if verdict == nil {
		verdict = r.matcher.Classify(ctx.UserMessage).Analysis()
	}
	abusive := verdict.ContainsProfanity && isSevere(verdict.Level)

	if len(ctx.Data.Assistant) == 0 {
		return nil, fmt.Errorf("route %s: %w", ctx.MainIntent, ErrMissingAssistant)
	}

	if abusive || ctx.MainIntent == domain.IntentAbusive {
		r.logger.Info("routing abusive message", "level", verdict.Level, "words", len(verdict.Words))
		return &domain.WorkingContext{
			UserMessage:      verdict.Sanitized,
			SanitizedMessage: verdict.Sanitized,
			OriginalMessage:  ctx.UserMessage,
			Intents:          []domain.Intent{domain.IntentAbusive},
			MainIntent:       domain.IntentAbusive,
			Sentiment:        ctx.Sentiment,
			Step:             ctx.Step,
			RequiresHuman:    isSevere(verdict.Level),
			Profanity:        verdict,
		}, nil
	}

	if sensitiveIntents[ctx.MainIntent] {
		out := base(ctx)
		out.Data = domain.Data{Company: ctx.Data.Company, Assistant: ctx.Data.Assistant}
		if ctx.MainIntent == domain.IntentComplaint {
			out.Triage = triage(ctx.Data)
		}
		return out, nil
	}

	if noContextIntents[ctx.MainIntent] {
		out := base(ctx)
		out.Data = domain.Data{Assistant: ctx.Data.Assistant}
		return out, nil
	}

	out := ctx.Clone()
	out.Profanity = nil
	return out, nil
}

func isSevere(level string) bool {
	return level == profanity.Severe.String() || level == profanity.HateSpeech.String()
}

func base(ctx *domain.WorkingContext) *domain.WorkingContext {
	return &domain.WorkingContext{
		UserMessage: ctx.UserMessage,
		Intents:     append([]domain.Intent(nil), ctx.Intents...),
		MainIntent:  ctx.MainIntent,
		Sentiment:   ctx.Sentiment,
		Step:        ctx.Step,
		History:     append([]domain.HistoryEntry(nil), ctx.History...),
	}
}

// triage summarizes catalog and schedules so a complaint can be traced to an order.
func triage(d domain.Data) *domain.Triage {
	t := &domain.Triage{}
	for _, g := range d.Services {
		for _, s := range g.Services {
			if name, ok := s["name"].(string); ok && name != "" {
				t.Services = append(t.Services, name)
			}
		}
	}
	for _, s := range d.Schedule {
		t.Schedules = append(t.Schedules, s.Pick("public_id", "title", "start", "status"))
	}
	return t
}
