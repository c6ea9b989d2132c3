package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/chatengine/internal/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GenerateMethod is the full name of the unary generate call.
const GenerateMethod = "/chatengine.v1.Generator/Generate"

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
)

// GRPCConfig holds configuration for the gRPC generator.
type GRPCConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGRPCConfig returns default configuration.
func DefaultGRPCConfig() GRPCConfig {
	return GRPCConfig{
		Address:          "localhost:50051",
		ConnectTimeout:   5 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// GRPC sends the working context as a google.protobuf.Struct to a remote
// generator and reads the reply back from a Struct.
type GRPC struct {
	conn   *grpc.ClientConn
	addr   string
	logger *slog.Logger
}

// NewGRPC connects to the generator at addr and waits until the channel is ready.
func NewGRPC(addr string, logger *slog.Logger, opts ...grpc.DialOption) (*GRPC, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := DefaultGRPCConfig()
	if addr != "" {
		cfg.Address = addr
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to generator at %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("generator at %s not ready: %w", cfg.Address, err)
	}

	logger.Info("Connected to generator service", "address", cfg.Address)
	return &GRPC{conn: conn, addr: cfg.Address, logger: logger}, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Name implements Generator.
func (*GRPC) Name() string { return KindGRPC }

// Close closes the gRPC connection.
func (g *GRPC) Close() {
	if g.conn != nil {
		if err := g.conn.Close(); err != nil {
			g.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}

// Generate implements Generator.
func (g *GRPC) Generate(ctx context.Context, wctx *domain.WorkingContext) (*domain.Reply, error) {
	in, err := contextStruct(wctx)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, GenerateMethod, in, out); err != nil {
		switch status.Code(err) {
		case codes.DeadlineExceeded, codes.Canceled:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("generate via %s: %w", g.addr, ctxErr)
			}
			// Deadline set on the server side.
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		case codes.Unavailable:
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("generate via %s: %w", g.addr, err)
	}
	return replyFromStruct(out)
}

func contextStruct(wctx *domain.WorkingContext) (*structpb.Struct, error) {
	raw, err := json.Marshal(wctx)
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	fields["instructions"] = Instructions(wctx)
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build context struct: %w", err)
	}
	return s, nil
}

func replyFromStruct(s *structpb.Struct) (*domain.Reply, error) {
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return DecodeReply(string(raw))
}
