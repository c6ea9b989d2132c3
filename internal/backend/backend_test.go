package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/response"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func testContext() *domain.WorkingContext {
	return &domain.WorkingContext{
		UserMessage: "quais serviços vocês têm?",
		MainIntent:  domain.IntentServiceInfo,
		Intents:     []domain.Intent{domain.IntentServiceInfo},
		Data: domain.Data{
			Company:   domain.Record{"name": "Clínica Sorriso"},
			Assistant: domain.Record{"name": "Sofia", "type": "ATENDIMENTO"},
		},
	}
}

func TestDecodeReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		reason response.Reason
		ok     bool
	}{
		{"plain", `{"user_response":"Olá"}`, "", true},
		{"fenced", "```json\n{\"user_response\":\"Olá\",\"system_response\":{\"function\":\"no_action\"}}\n```", "", true},
		{"not json", "Olá, tudo bem?", response.ReasonIncomprehensibleMessage, false},
		{"missing user_response", `{"system_response":{}}`, response.ReasonIncompleteMessage, false},
		{"empty", "  ", response.ReasonIncompleteMessage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reply, err := DecodeReply(tt.raw)
			if tt.ok {
				if err != nil || reply.UserResponse != "Olá" {
					t.Fatalf("DecodeReply() = %+v, %v", reply, err)
				}
				return
			}
			if !errors.Is(err, ErrMalformedOutput) || response.ReasonOf(err) != tt.reason {
				t.Fatalf("err = %v, reason %q, want %q", err, response.ReasonOf(err), tt.reason)
			}
		})
	}
}

func TestFakeIsDeterministic(t *testing.T) {
	t.Parallel()

	f := NewFake()
	wctx := testContext()
	a, err := f.Generate(context.Background(), wctx)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := f.Generate(context.Background(), wctx)
	if a.UserResponse != b.UserResponse || a.TokenUsage != b.TokenUsage {
		t.Error("fake replies differ between calls")
	}
	if a.TokenUsage.PromptTokens != 50 || a.TokenUsage.Total() != 105 {
		t.Errorf("token usage = %+v", a.TokenUsage)
	}
	if a.SystemResponse["function"] != "show_service" {
		t.Errorf("system response = %v", a.SystemResponse)
	}

	wctx.MainIntent = domain.IntentGeneral
	g, _ := f.Generate(context.Background(), wctx)
	if g.SystemResponse != nil || g.UserResponse != defaultReply.text {
		t.Errorf("general reply = %+v", g)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Generate(ctx, wctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx err = %v", err)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"choices":[{"message":{"role":"assistant","content":"`+"```json"+`{\"user_response\":\"Temos limpeza de pele.\",\"system_response\":{\"function\":\"show_service\"}}`+"```"+`"}}],
			"usage":{"prompt_tokens":120,"completion_tokens":40,"total_tokens":160}
		}`)
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIConfig{URL: srv.URL + "/v1/", APIKey: "sk-test"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	reply, err := o.Generate(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply.UserResponse != "Temos limpeza de pele." || reply.TokenUsage.Total() != 160 {
		t.Errorf("reply = %+v", reply)
	}
	if gotReq.ResponseFormat["type"] != "json_object" || len(gotReq.Messages) != 2 {
		t.Errorf("request = %+v", gotReq)
	}
	if !strings.Contains(gotReq.Messages[0].Content, "Sofia (ATENDIMENTO) da empresa Clínica Sorriso") {
		t.Errorf("instructions = %q", gotReq.Messages[0].Content)
	}
}

func TestOpenAIUpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	o, _ := NewOpenAI(OpenAIConfig{URL: srv.URL, APIKey: "k"}, nil)
	if _, err := o.Generate(context.Background(), testContext()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAI(OpenAIConfig{}, nil); err == nil {
		t.Fatal("missing api key accepted")
	}
}

func startGenerator(t *testing.T, handle func(*structpb.Struct) (*structpb.Struct, error)) *GRPC {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: "chatengine.v1.Generator",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Generate",
			Handler: func(_ any, _ context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				return handle(in)
			},
		}},
	}, struct{}{})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	g, err := NewGRPC("passthrough:///bufnet", nil,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("NewGRPC() error = %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func TestGRPCGenerate(t *testing.T) {
	t.Parallel()

	var seen map[string]any
	g := startGenerator(t, func(in *structpb.Struct) (*structpb.Struct, error) {
		seen = in.AsMap()
		return structpb.NewStruct(map[string]any{
			"user_response":   "Olá! Em que posso ajudar?",
			"system_response": map[string]any{"function": "no_action"},
			"token_usage":     map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	reply, err := g.Generate(context.Background(), testContext())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if reply.UserResponse != "Olá! Em que posso ajudar?" || reply.TokenUsage.Total() != 15 {
		t.Errorf("reply = %+v", reply)
	}
	if seen["main_intent"] != string(domain.IntentServiceInfo) || seen["instructions"] == nil {
		t.Errorf("request = %v", seen)
	}
}

func TestGRPCMalformedReply(t *testing.T) {
	t.Parallel()

	g := startGenerator(t, func(*structpb.Struct) (*structpb.Struct, error) {
		return structpb.NewStruct(map[string]any{"text": "oi"})
	})
	_, err := g.Generate(context.Background(), testContext())
	if response.ReasonOf(err) != response.ReasonIncompleteMessage {
		t.Fatalf("err = %v", err)
	}
}

func TestGRPCDeadline(t *testing.T) {
	t.Parallel()

	g := startGenerator(t, func(*structpb.Struct) (*structpb.Struct, error) {
		time.Sleep(500 * time.Millisecond)
		return structpb.NewStruct(map[string]any{"user_response": "tarde demais"})
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := g.Generate(ctx, testContext())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Kind: "llama"}, nil); err == nil {
		t.Fatal("unknown backend accepted")
	}
	g, err := New(Config{Kind: KindFake}, nil)
	if err != nil || g.Name() != KindFake {
		t.Fatalf("New(fake) = %v, %v", g, err)
	}
}
