// Package engine runs the message pipeline: session resolution, classification,
// blocking pre-checks, context reduction, generation, normalization and the
// atomic turn commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/chatengine/internal/backend"
	"github.com/ashureev/chatengine/internal/clock"
	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/metrics"
	"github.com/ashureev/chatengine/internal/reducer"
	"github.com/ashureev/chatengine/internal/response"
	"github.com/ashureev/chatengine/internal/session"
)

// Defaults used when Options leaves a timeout zero.
const (
	DefaultBackendTimeout = 20 * time.Second
	DefaultStoreTimeout   = 5 * time.Second
)

// ErrEmptyMessage is returned for a request without message text.
var ErrEmptyMessage = errors.New("message is required")

// Repository is the persistence the engine needs.
type Repository interface {
	session.Store
	CommitTurn(ctx context.Context, turn domain.Turn) error
}

// Lookup serves tenant reference data.
type Lookup interface {
	Company(ctx context.Context, companyID int64) (*domain.Company, error)
	Assistant(ctx context.Context, companyID int64) (*domain.Assistant, error)
	Services(ctx context.Context, companyID int64) ([]domain.ServiceCategory, error)
	Schedules(ctx context.Context, companyID int64) ([]domain.Schedule, error)
	OpenSlots(ctx context.Context, companyID int64) ([]domain.ScheduleSlot, error)
}

// Options configures an Engine.
type Options struct {
	Clock          clock.Clock
	BackendTimeout time.Duration
	StoreTimeout   time.Duration
	HistoryLimit   int
	MaxInteraction int
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Request is one inbound message.
type Request struct {
	CompanyID  int64  `json:"-"`
	Message    string `json:"message"`
	ChatCode   string `json:"chat_code,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// Engine processes messages. Callers serialize requests of the same chat.
type Engine struct {
	repo           Repository
	lookup         Lookup
	generator      backend.Generator
	machine        *session.Machine
	analyzer       *Analyzer
	router         *reducer.Router
	clock          clock.Clock
	backendTimeout time.Duration
	storeTimeout   time.Duration
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// New wires an Engine.
func New(repo Repository, lookup Lookup, gen backend.Generator, opts Options) *Engine {
	if opts.BackendTimeout <= 0 {
		opts.BackendTimeout = DefaultBackendTimeout
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	clk := clock.OrReal(opts.Clock)
	analyzer := NewAnalyzer()
	return &Engine{
		repo:      repo,
		lookup:    lookup,
		generator: gen,
		machine: session.NewMachine(repo, session.Options{
			Clock:          clk,
			HistoryLimit:   opts.HistoryLimit,
			MaxInteraction: opts.MaxInteraction,
			Logger:         opts.Logger,
		}),
		analyzer:       analyzer,
		router:         reducer.NewRouter(analyzer.Matcher(), opts.Logger),
		clock:          clk,
		backendTimeout: opts.BackendTimeout,
		storeTimeout:   opts.StoreTimeout,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
	}
}

// Handle runs one message through the pipeline. Expected outcomes, including
// every fallback, come back as a response. The returned error is either
// domain.ErrQuotaExceeded or a defect.
func (e *Engine) Handle(ctx context.Context, req Request) (*domain.NormalizedResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	logger := e.logger.With("company_id", req.CompanyID)

	chat, blocked, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	logger = logger.With("chat_code", chat.Code)
	if blocked != "" {
		return e.fallback(chat, blocked, nil), nil
	}

	analysis := e.analyzer.Analyze(message)
	e.metrics.Intent(string(analysis.Primary))
	logger.Info("Message classified", "intent", analysis.Primary, "sentiment", analysis.Sentiment)

	if resp, err := e.precheck(ctx, chat, req.CompanyID, analysis.Primary); resp != nil || err != nil {
		return resp, err
	}

	wctx, reason, err := e.buildContext(ctx, chat, req.CompanyID, message, analysis)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return e.fallback(chat, reason, nil), nil
	}

	reply, err := e.generate(ctx, wctx)
	if err != nil {
		if !recognized(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}
		logger.Warn("Generation failed", "error", err)
		return e.fallback(chat, response.ReasonOf(err), err), nil
	}

	out, err := response.Normalize(reply, wctx)
	if err != nil {
		logger.Warn("Reply rejected", "error", err)
		return e.fallback(chat, response.ReasonOf(err), err), nil
	}

	if err := e.commit(ctx, chat, message, out, analysis); err != nil {
		return nil, err
	}
	out.ChatCode = chat.Code
	return out, nil
}

// prepare resolves the chat and runs the checks that stop a message before
// classification. It returns the fallback reason when one applies.
func (e *Engine) prepare(ctx context.Context, req Request) (*domain.Chat, response.Reason, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	chat, err := e.machine.Resolve(sctx, req.CompanyID, req.ExternalID, req.ChatCode)
	if err != nil {
		return nil, "", err
	}
	if _, err := e.machine.ResetIfIdle(sctx, chat); err != nil {
		return nil, "", err
	}
	if chat.Step == domain.StepBlockedAbuse {
		return chat, response.ReasonAbusiveInteraction, nil
	}
	limited, err := e.machine.CheckLimit(sctx, chat)
	if err != nil {
		return nil, "", err
	}
	if limited {
		return chat, response.ReasonLimitReached, nil
	}
	return chat, "", nil
}

// precheck applies the transitions of blocking intents and the assistant
// availability check.
func (e *Engine) precheck(ctx context.Context, chat *domain.Chat, companyID int64, primary domain.Intent) (*domain.NormalizedResponse, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	fired, err := e.machine.ApplyIntent(sctx, chat, primary)
	if err != nil {
		return nil, err
	}
	if fired {
		switch primary {
		case domain.IntentCloseChat:
			out := response.Closing()
			out.ChatCode = chat.Code
			return out, nil
		case domain.IntentAbusive:
			return e.fallback(chat, response.ReasonAbusiveInteraction, nil), nil
		case domain.IntentTransferHuman:
			return e.fallback(chat, response.ReasonHumanUnavailable, nil), nil
		}
	}

	assistant, err := e.lookup.Assistant(sctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load assistant: %w", err)
	}
	if assistant == nil || !assistant.Available() {
		if err := e.machine.MarkUnavailable(sctx, chat); err != nil {
			return nil, err
		}
		return e.fallback(chat, response.ReasonChatbotUnavailable, nil), nil
	}
	if err := e.machine.Resume(sctx, chat); err != nil {
		return nil, err
	}
	return nil, nil
}

// buildContext loads reference data, routes and reduces the context, then
// checks that what the intent needs is present.
func (e *Engine) buildContext(ctx context.Context, chat *domain.Chat, companyID int64, message string, a Analysis) (*domain.WorkingContext, response.Reason, error) {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	data, err := e.loadData(sctx, companyID)
	if err != nil {
		return nil, "", err
	}

	wctx := &domain.WorkingContext{
		UserMessage: message,
		Intents:     a.Intents,
		MainIntent:  a.Primary,
		Sentiment:   a.Sentiment,
		Step:        chat.Step,
		History:     chat.Context.History,
		Data:        data,
		Profanity:   a.Profanity.Analysis(),
	}

	routed, err := e.router.Route(wctx)
	if err != nil {
		e.logger.Error("Context routing failed", "chat_code", chat.Code, "error", err)
		return nil, response.ReasonInternalError, nil
	}
	if routed.MainIntent == domain.IntentAbusive {
		if _, err := e.machine.ApplyIntent(sctx, chat, domain.IntentAbusive); err != nil {
			return nil, "", err
		}
		return nil, response.ReasonAbusiveInteraction, nil
	}
	reduced := reducer.ReduceByIntent(routed)

	switch {
	case data.Company == nil || data.Assistant == nil:
		return nil, response.ReasonInternalError, nil
	case reduced.MainIntent == domain.IntentScheduleInfo && len(data.Schedule) == 0:
		return nil, response.ReasonNoSchedule, nil
	case reduced.MainIntent == domain.IntentScheduleSlotInfo && len(data.ScheduleSlots) == 0:
		return nil, response.ReasonNoScheduleSlots, nil
	}
	return reduced, "", nil
}

func (e *Engine) loadData(ctx context.Context, companyID int64) (domain.Data, error) {
	var d domain.Data

	company, err := e.lookup.Company(ctx, companyID)
	if err != nil {
		return d, fmt.Errorf("load company: %w", err)
	}
	if company != nil {
		d.Company = company.ToRecord()
	}
	assistant, err := e.lookup.Assistant(ctx, companyID)
	if err != nil {
		return d, fmt.Errorf("load assistant: %w", err)
	}
	if assistant != nil {
		d.Assistant = assistant.ToRecord()
	}

	categories, err := e.lookup.Services(ctx, companyID)
	if err != nil {
		return d, fmt.Errorf("load services: %w", err)
	}
	for _, c := range categories {
		group := domain.CategoryGroup{CategoryName: c.Name, Services: []domain.Record{}}
		for i := range c.Services {
			group.Services = append(group.Services, c.Services[i].ToRecord())
		}
		d.Services = append(d.Services, group)
	}

	schedules, err := e.lookup.Schedules(ctx, companyID)
	if err != nil {
		return d, fmt.Errorf("load schedules: %w", err)
	}
	for i := range schedules {
		d.Schedule = append(d.Schedule, schedules[i].ToRecord())
	}

	slots, err := e.lookup.OpenSlots(ctx, companyID)
	if err != nil {
		return d, fmt.Errorf("load slots: %w", err)
	}
	for i := range slots {
		d.ScheduleSlots = append(d.ScheduleSlots, slots[i].ToRecord())
	}
	return d, nil
}

func (e *Engine) generate(ctx context.Context, wctx *domain.WorkingContext) (*domain.Reply, error) {
	gctx, cancel := context.WithTimeout(ctx, e.backendTimeout)
	defer cancel()

	start := time.Now()
	reply, err := e.generator.Generate(gctx, wctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.BackendCall(e.generator.Name(), outcome, time.Since(start))
	return reply, err
}

// recognized reports whether a generation error maps to a fallback. Anything
// else is a wiring defect.
func recognized(err error) bool {
	var re *response.ReasonError
	return errors.As(err, &re) ||
		errors.Is(err, backend.ErrUnavailable) ||
		errors.Is(err, backend.ErrMalformedOutput) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

func (e *Engine) commit(ctx context.Context, chat *domain.Chat, message string, out *domain.NormalizedResponse, a Analysis) error {
	sctx, cancel := context.WithTimeout(ctx, e.storeTimeout)
	defer cancel()

	patch := e.machine.RecordReply(chat, message, out.UserResponse, a.Primary, a.Sentiment)
	turn := domain.Turn{
		ChatID:          chat.ID,
		CompanyID:       chat.CompanyID,
		Patch:           patch,
		Sentiment:       a.Sentiment,
		Usage:           out.TokenUsage,
		InteractionType: out.Type,
		At:              e.clock.Now(),
	}
	if err := e.repo.CommitTurn(sctx, turn); err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			e.metrics.Fallback("quota_exceeded")
			e.logger.Warn("Token quota exceeded", "company_id", chat.CompanyID, "chat_code", chat.Code)
		}
		return fmt.Errorf("commit turn: %w", err)
	}
	return nil
}

func (e *Engine) fallback(chat *domain.Chat, reason response.Reason, err error) *domain.NormalizedResponse {
	e.metrics.Fallback(string(reason))
	e.logger.Info("Fallback", "chat_code", chat.Code, "reason", reason)
	out := response.Fallback(reason, err)
	out.ChatCode = chat.Code
	return out
}
