// Package govtest provides test utilities for the governance
// application and for engines that drive it: a configurable mock, a
// lifecycle harness with call helpers, and a compliance suite.
package govtest

import (
	"context"
	"sync/atomic"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/types"
)

// Compile-time check that MockApp satisfies the interfaces.
var _ quadgov.Application = (*MockApp)(nil)

// MockApp is a configurable mock application for engine and
// transport testing. Unconfigured methods return zero-value defaults.
//
// MockApp always implements Simulator; whether it is declared is
// controlled by DeclaredCapabilities.
type MockApp struct {
	// DeclaredCapabilities controls the bitfield returned at handshake.
	DeclaredCapabilities types.Capabilities

	HandshakeFn    func(context.Context, types.HandshakeRequest) (types.HandshakeResponse, error)
	CheckTxFn      func(context.Context, types.Tx, types.MempoolContext) (types.GateVerdict, error)
	ExecuteBlockFn func(context.Context, types.FinalizedBlock) (types.BlockOutcome, error)
	CommitFn       func(context.Context) (types.CommitResult, error)
	QueryFn        func(context.Context, types.StateQuery) (types.StateQueryResult, error)
	SimulateFn     func(context.Context, types.Tx) (types.TxOutcome, error)

	// Call counters (atomic for concurrent access).
	HandshakeCalls    atomic.Int64
	CheckTxCalls      atomic.Int64
	ExecuteBlockCalls atomic.Int64
	CommitCalls       atomic.Int64
	QueryCalls        atomic.Int64
	SimulateCalls     atomic.Int64

	height atomic.Uint64
}

func (m *MockApp) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	m.HandshakeCalls.Add(1)
	if m.HandshakeFn != nil {
		return m.HandshakeFn(ctx, req)
	}
	h := types.AppHash{0x01}
	return types.HandshakeResponse{
		AppHash:      &h,
		Capabilities: m.DeclaredCapabilities,
	}, nil
}

func (m *MockApp) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	m.CheckTxCalls.Add(1)
	if m.CheckTxFn != nil {
		return m.CheckTxFn(ctx, tx, mctx)
	}
	return types.GateVerdict{Code: 0}, nil
}

func (m *MockApp) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	m.ExecuteBlockCalls.Add(1)
	if m.ExecuteBlockFn != nil {
		return m.ExecuteBlockFn(ctx, block)
	}
	m.height.Store(block.Height)
	outcomes := make([]types.TxOutcome, len(block.Txs))
	for i := range block.Txs {
		outcomes[i] = types.TxOutcome{Index: uint32(i), Code: 0}
	}
	return types.BlockOutcome{
		TxOutcomes: outcomes,
		AppHash:    types.AppHash{0x01},
	}, nil
}

func (m *MockApp) Commit(ctx context.Context) (types.CommitResult, error) {
	m.CommitCalls.Add(1)
	if m.CommitFn != nil {
		return m.CommitFn(ctx)
	}
	return types.CommitResult{}, nil
}

func (m *MockApp) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	m.QueryCalls.Add(1)
	if m.QueryFn != nil {
		return m.QueryFn(ctx, req)
	}
	return types.StateQueryResult{Height: m.height.Load()}, nil
}

func (m *MockApp) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	m.SimulateCalls.Add(1)
	if m.SimulateFn != nil {
		return m.SimulateFn(ctx, tx)
	}
	return types.TxOutcome{Code: 0}, nil
}
