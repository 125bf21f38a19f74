package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/types"
)

// ErrSimulationUnsupported is returned by Simulate when the
// application does not implement quadgov.Simulator.
var ErrSimulationUnsupported = errors.New("quadgov: Simulator not supported")

// Server wraps a governance application with lifecycle enforcement
// and capability routing. The engine interacts with the application
// exclusively through this server.
type Server struct {
	app       quadgov.Lifecycle
	guard     *Guard
	caps      types.Capabilities
	simulator quadgov.Simulator
	logger    *slog.Logger

	// Last block outcome (held between ExecuteBlock and Commit).
	mu          sync.Mutex
	lastOutcome *types.BlockOutcome
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a new Server wrapping the given application.
func New(app quadgov.Lifecycle, opts ...Option) *Server {
	s := &Server{
		app:    app,
		guard:  NewGuard(),
		logger: slog.Default(),
	}
	s.simulator, _ = app.(quadgov.Simulator)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handshake performs the startup handshake, validates capability
// declarations, and starts the governance clock at the height the
// application reports.
func (s *Server) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	s.guard.BeginHandshake()

	resp, err := s.app.Handshake(ctx, req)
	if err != nil {
		s.guard.AbortHandshake()
		return resp, err
	}

	if err := s.discoverCapabilities(resp.Capabilities); err != nil {
		s.guard.AbortHandshake()
		return resp, err
	}

	s.caps = resp.Capabilities
	var height uint64
	if resp.LastBlock != nil {
		height = resp.LastBlock.Height
	}
	s.guard.EndHandshake(height)
	s.logger.Info("handshake complete",
		"capabilities", resp.Capabilities.String(),
		"height", s.CommittedHeight())
	return resp, nil
}

// CheckTx gate-checks a call for mempool admission.
// Safe for concurrent use.
func (s *Server) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	s.guard.RequireStarted()
	return s.app.CheckTx(ctx, tx, mctx)
}

// ExecuteBlock executes a finalized block. The height must be above
// the last committed height.
func (s *Server) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	if err := s.guard.BeginBlock(block.Height); err != nil {
		return types.BlockOutcome{}, err
	}

	outcome, err := s.app.ExecuteBlock(ctx, block)
	if err != nil {
		s.guard.AbortBlock()
		if h, ok := quadgov.IsHalt(err); ok {
			s.logger.Error("application requested halt", "height", h.Height, "reason", h.Reason, "err", h.Err)
		}
		return outcome, err
	}

	s.mu.Lock()
	s.lastOutcome = &outcome
	s.mu.Unlock()

	s.guard.EndBlock()
	return outcome, nil
}

// Commit makes the last executed block's state current.
func (s *Server) Commit(ctx context.Context) (types.CommitResult, error) {
	height := s.guard.BeginCommit()

	result, err := s.app.Commit(ctx)

	s.mu.Lock()
	s.lastOutcome = nil
	s.mu.Unlock()

	s.guard.EndCommit(err == nil)
	if err != nil {
		s.logger.Error("commit failed", "height", height, "err", err)
	}
	return result, err
}

// Query reads committed state. Safe for concurrent use.
func (s *Server) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	s.guard.RequireStarted()
	return s.app.Query(ctx, req)
}

// Simulate delegates to the Simulator if supported.
// Safe for concurrent use.
func (s *Server) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	if s.simulator == nil {
		return types.TxOutcome{}, ErrSimulationUnsupported
	}
	s.guard.RequireStarted()
	return s.simulator.Simulate(ctx, tx)
}

// Capabilities returns the application's declared capabilities.
// Only valid after Handshake completes.
func (s *Server) Capabilities() types.Capabilities {
	return s.caps
}

// AsSimulator returns the Simulator if it was declared, or nil.
func (s *Server) AsSimulator() quadgov.Simulator {
	if s.caps.Has(types.CapSimulation) {
		return s.simulator
	}
	return nil
}

// CommittedHeight returns the height of the last committed block.
func (s *Server) CommittedHeight() uint64 {
	return s.guard.Height()
}

// LastOutcome returns the most recent BlockOutcome (between
// ExecuteBlock and Commit). Returns nil if no outcome is pending.
func (s *Server) LastOutcome() *types.BlockOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}

// Close is a no-op for the server wrapper.
func (s *Server) Close() error { return nil }

// discoverCapabilities verifies the declared capabilities against the
// interfaces the application implements.
func (s *Server) discoverCapabilities(declared types.Capabilities) error {
	_, hasSimulator := s.app.(quadgov.Simulator)

	if declared.Has(types.CapSimulation) && !hasSimulator {
		return fmt.Errorf("quadgov: app declared CapSimulation but does not implement Simulator")
	}
	if !declared.Has(types.CapSimulation) && hasSimulator {
		s.logger.Warn("app implements Simulator but did not declare it; capability will not be used")
	}
	return nil
}
