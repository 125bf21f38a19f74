// Package app implements the quadratic-voting governance engine as a
// block application. Each transaction carries one governance call;
// a block's height is the time counter its calls observe.
//
// Blocks execute against a clone of committed state. The clone is
// staged and becomes current only on Commit, so queries always see
// the last committed state.
package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

// Compile-time interface checks.
var (
	_ quadgov.Lifecycle = (*App)(nil)
	_ quadgov.Simulator = (*App)(nil)
)

// CodeMalformedCall is the outcome code of a transaction that does not
// decode to a well-formed call. Governance rejections use the
// governance.Code values, all of which are 100 or above.
const CodeMalformedCall uint32 = 1

// ErrNoState is returned by a restart handshake when the application
// has never been initialized from genesis.
var ErrNoState = errors.New("app: no committed state, genesis handshake required")

// App is the governance block application.
type App struct {
	mu      sync.RWMutex
	current *governance.State
	height  uint64
	appHash types.AppHash

	// Written by ExecuteBlock, consumed by Commit.
	staged       *governance.State
	stagedHeight uint64
	stagedHash   types.AppHash
	stagedStats  *blockStats

	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithRegisterer registers the application metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) { a.metrics = NewMetrics(reg) }
}

// New creates an uninitialized application. State is created by the
// genesis handshake.
func New(opts ...Option) *App {
	a := &App{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = NewMetrics(nil)
	}
	return a
}

func (app *App) Handshake(_ context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if req.LastCommitted == nil {
		var appState []byte
		if req.Genesis != nil {
			appState = req.Genesis.AppState
		}
		if err := app.initGenesis(appState); err != nil {
			return types.HandshakeResponse{}, err
		}
		h := app.appHash
		return types.HandshakeResponse{
			AppHash:      &h,
			Capabilities: types.CapSimulation,
		}, nil
	}

	if app.current == nil {
		return types.HandshakeResponse{}, ErrNoState
	}
	h := app.appHash
	return types.HandshakeResponse{
		LastBlock:    &types.BlockID{Height: app.height},
		AppHash:      &h,
		Capabilities: types.CapSimulation,
	}, nil
}

func (app *App) initGenesis(appState []byte) error {
	gen, err := ParseGenesisState(appState)
	if err != nil {
		return err
	}
	cfg, err := gen.Config()
	if err != nil {
		return err
	}
	s, err := governance.NewState(cfg)
	if err != nil {
		return err
	}
	h, err := stateHash(s)
	if err != nil {
		return err
	}
	app.current, app.height, app.appHash = s, 0, h
	app.logger.Info("governance initialized",
		"max_proposals", cfg.MaxProposals,
		"voting_threshold", cfg.VotingThreshold,
		"min_vote_amount", cfg.MinVoteAmount,
		"governing_authority", cfg.GoverningAuthority)
	return nil
}

// CheckTx admits well-formed calls. It never consults state: a call
// that is valid now may be rejected at execution and vice versa.
func (app *App) CheckTx(_ context.Context, tx types.Tx, _ types.MempoolContext) (types.GateVerdict, error) {
	call, _, err := types.DecodeCall(tx)
	if err != nil {
		return types.GateVerdict{Code: CodeMalformedCall, Info: err.Error()}, nil
	}
	return types.GateVerdict{Sender: string(call.Caller)}, nil
}

func (app *App) ExecuteBlock(_ context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	app.mu.RLock()
	if app.current == nil {
		app.mu.RUnlock()
		return types.BlockOutcome{}, ErrNoState
	}
	s := app.current.Clone()
	app.mu.RUnlock()

	stats := newBlockStats()
	outcomes := make([]types.TxOutcome, len(block.Txs))
	var blockEvents []types.Event

	for i, tx := range block.Txs {
		res, err := execute(s, block.Height, uint32(i), tx)
		if err != nil {
			return types.BlockOutcome{}, quadgov.WrapHalt(block.Height, "encode call result", err)
		}
		outcomes[i] = res.outcome
		blockEvents = append(blockEvents, res.outcome.Events...)
		app.record(stats, block.Height, res)
	}

	if err := s.CheckInvariants(); err != nil {
		app.logger.Error("governance invariant violated", "height", block.Height, "err", err)
		return types.BlockOutcome{}, quadgov.WrapHalt(block.Height, "governance invariant violated", err)
	}
	h, err := stateHash(s)
	if err != nil {
		return types.BlockOutcome{}, quadgov.WrapHalt(block.Height, "hash state", err)
	}

	app.mu.Lock()
	app.staged = s
	app.stagedHeight = block.Height
	app.stagedHash = h
	app.stagedStats = stats
	app.mu.Unlock()

	return types.BlockOutcome{
		TxOutcomes:  outcomes,
		BlockEvents: blockEvents,
		AppHash:     h,
	}, nil
}

// record logs a call result and counts it for metrics.
func (app *App) record(stats *blockStats, height uint64, res execResult) {
	switch {
	case res.outcome.OK():
		stats.apply(res.kind)
		stats.weight += res.weight
		if res.kind != types.KindVote {
			app.logger.Info("call applied", "height", height, "index", res.outcome.Index, "kind", res.kind)
		}
	case res.outcome.Code == CodeMalformedCall:
		stats.reject(res.kind, "malformed")
		app.logger.Debug("malformed call", "height", height, "index", res.outcome.Index, "err", res.outcome.Info)
	default:
		stats.reject(res.kind, res.reason)
		app.logger.Debug("call rejected", "height", height, "index", res.outcome.Index,
			"kind", res.kind, "code", res.outcome.Code, "err", res.outcome.Info)
	}
}

func (app *App) Commit(_ context.Context) (types.CommitResult, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.staged == nil {
		return types.CommitResult{}, errors.New("app: commit without executed block")
	}
	app.current, app.height, app.appHash = app.staged, app.stagedHeight, app.stagedHash
	app.metrics.observeCommit(app.stagedStats, app.height, app.current.ProposalCount())
	app.staged, app.stagedStats = nil, nil

	// State is kept in memory only; there is no history to retain.
	return types.CommitResult{}, nil
}

// Simulate executes tx against a clone of committed state as the only
// call of the next block.
func (app *App) Simulate(_ context.Context, tx types.Tx) (types.TxOutcome, error) {
	app.mu.RLock()
	if app.current == nil {
		app.mu.RUnlock()
		return types.TxOutcome{}, ErrNoState
	}
	s := app.current.Clone()
	height := app.height + 1
	app.mu.RUnlock()

	res, err := execute(s, height, 0, tx)
	if err != nil {
		return types.TxOutcome{}, fmt.Errorf("simulate: %w", err)
	}
	return res.outcome, nil
}

// Height returns the last committed height.
func (app *App) Height() uint64 {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.height
}

// AppHash returns the hash of the last committed state.
func (app *App) AppHash() types.AppHash {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.appHash
}

// stateHash is the sha256 of the canonical cramberry encoding of s.
func stateHash(s *governance.State) (types.AppHash, error) {
	data, err := cramberry.Marshal(s.Snapshot())
	if err != nil {
		return types.AppHash{}, fmt.Errorf("encode state snapshot: %w", err)
	}
	return types.AppHash(sha256.Sum256(data)), nil
}
