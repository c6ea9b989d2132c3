// Package backend provides the generative collaborators that turn a reduced
// working context into a structured reply.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/response"
)

// Generator produces a reply for a working context.
type Generator interface {
	Generate(ctx context.Context, wctx *domain.WorkingContext) (*domain.Reply, error)
	Name() string
}

var (
	// ErrUnavailable reports that the backend could not be reached or refused the call.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrMalformedOutput reports output that is not a reply object.
	ErrMalformedOutput = errors.New("malformed backend output")
)

// Backend kinds.
const (
	KindFake   = "fake"
	KindOpenAI = "openai"
	KindGRPC   = "grpc"
)

// Config selects and configures a Generator.
type Config struct {
	Kind     string
	URL      string
	Model    string
	APIKey   string
	GRPCAddr string
	Timeout  time.Duration
}

// New builds the Generator named by cfg.Kind.
func New(cfg Config, logger *slog.Logger) (Generator, error) {
	switch cfg.Kind {
	case KindFake, "":
		return NewFake(), nil
	case KindOpenAI:
		return NewOpenAI(OpenAIConfig{
			URL:     cfg.URL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		}, logger)
	case KindGRPC:
		return NewGRPC(cfg.GRPCAddr, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}

var fenceReplacer = strings.NewReplacer("```json", "", "```", "", "'''json", "", "'''", "")

// DecodeReply parses model output into a reply. Markdown fences are stripped.
// Output that is not JSON maps to incomprehensible_message; a reply without
// user_response maps to incomplete_message.
func DecodeReply(raw string) (*domain.Reply, error) {
	clean := strings.TrimSpace(fenceReplacer.Replace(strings.TrimSpace(raw)))
	if clean == "" {
		return nil, response.WithReason(response.ReasonIncompleteMessage, fmt.Errorf("empty output: %w", ErrMalformedOutput))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return nil, response.WithReason(response.ReasonIncomprehensibleMessage, fmt.Errorf("%w: %v", ErrMalformedOutput, err))
	}
	if _, ok := fields["user_response"]; !ok {
		return nil, response.WithReason(response.ReasonIncompleteMessage, fmt.Errorf("missing user_response: %w", ErrMalformedOutput))
	}

	var reply domain.Reply
	if err := json.Unmarshal([]byte(clean), &reply); err != nil {
		return nil, response.WithReason(response.ReasonIncomprehensibleMessage, fmt.Errorf("%w: %v", ErrMalformedOutput, err))
	}
	return &reply, nil
}
