package govgrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/server"
	"github.com/blockberries/quadgov/types"
)

// Compile-time interface check.
var _ GovernanceServiceServer = (*GRPCServer)(nil)

// GRPCServer exposes an application over gRPC. Requests pass through
// a server.Server, so the lifecycle is enforced on this side of the
// wire as well.
type GRPCServer struct {
	srv    *server.Server
	logger *slog.Logger
}

// NewGRPCServer creates a gRPC server wrapping the given application.
func NewGRPCServer(app quadgov.Lifecycle, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCServer{
		srv:    server.New(app, server.WithLogger(logger)),
		logger: logger,
	}
}

// Register adds the governance service to a gRPC server.
func (s *GRPCServer) Register(gs grpc.ServiceRegistrar) {
	RegisterGovernanceServiceServer(gs, s)
}

// NewServer creates a *grpc.Server with the cramberry codec, the
// lifecycle recovery interceptor and the service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ForceServerCodec(CramberryCodec{}),
		grpc.ChainUnaryInterceptor(s.recoverLifecycle),
	}, opts...)
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener, opts ...grpc.ServerOption) error {
	gs := s.NewServer(opts...)
	errc := make(chan error, 1)
	go func() { errc <- gs.Serve(lis) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		gs.GracefulStop()
		<-errc
		return nil
	}
}

// Server returns the underlying server for advanced use.
func (s *GRPCServer) Server() *server.Server {
	return s.srv
}

// recoverLifecycle turns lifecycle-ordering panics from the guard into
// FailedPrecondition errors so that one misbehaving client cannot take
// the process down.
func (s *GRPCServer) recoverLifecycle(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("rejected out-of-order call", "method", info.FullMethod, "reason", r)
			resp, err = nil, status.Errorf(codes.FailedPrecondition, "%v", r)
		}
	}()
	return handler(ctx, req)
}

// toStatus maps application errors onto gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := quadgov.IsHalt(err); ok {
		return status.Error(codes.Aborted, err.Error())
	}
	switch {
	case errors.Is(err, server.ErrHeightNotIncreasing):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, server.ErrSimulationUnsupported):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, fmt.Sprintf("quadgov: %v", err))
}

// --- Lifecycle RPCs ---

func (s *GRPCServer) Handshake(ctx context.Context, req *types.HandshakeRequest) (*types.HandshakeResponse, error) {
	resp, err := s.srv.Handshake(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (s *GRPCServer) CheckTx(ctx context.Context, req *CheckTxRequest) (*types.GateVerdict, error) {
	verdict, err := s.srv.CheckTx(ctx, req.Tx, req.Context)
	if err != nil {
		return nil, toStatus(err)
	}
	return &verdict, nil
}

func (s *GRPCServer) ExecuteBlock(ctx context.Context, block *types.FinalizedBlock) (*types.BlockOutcome, error) {
	outcome, err := s.srv.ExecuteBlock(ctx, *block)
	if err != nil {
		return nil, toStatus(err)
	}
	return &outcome, nil
}

func (s *GRPCServer) Commit(ctx context.Context, _ *CommitRequest) (*types.CommitResult, error) {
	result, err := s.srv.Commit(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &result, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *types.StateQuery) (*types.StateQueryResult, error) {
	result, err := s.srv.Query(ctx, *req)
	if err != nil {
		return nil, toStatus(err)
	}
	return &result, nil
}

// --- Simulator RPC ---

func (s *GRPCServer) Simulate(ctx context.Context, req *SimulateRequest) (*types.TxOutcome, error) {
	outcome, err := s.srv.Simulate(ctx, req.Tx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &outcome, nil
}
