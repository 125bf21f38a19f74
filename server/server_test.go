package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/types"
)

// lifecycleApp implements only the required interface. It lives here
// rather than in govtest to avoid an import cycle.
type lifecycleApp struct {
	mu           sync.Mutex
	lastBlock    *types.BlockID
	executeErr   error
	executed     []uint64
	commitCalls  int
	handshakeReq types.HandshakeRequest
}

var _ quadgov.Lifecycle = (*lifecycleApp)(nil)

func (a *lifecycleApp) Handshake(_ context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	a.handshakeReq = req
	return types.HandshakeResponse{LastBlock: a.lastBlock}, nil
}

func (a *lifecycleApp) CheckTx(_ context.Context, _ types.Tx, _ types.MempoolContext) (types.GateVerdict, error) {
	return types.GateVerdict{}, nil
}

func (a *lifecycleApp) ExecuteBlock(_ context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.executeErr != nil {
		return types.BlockOutcome{}, a.executeErr
	}
	a.executed = append(a.executed, block.Height)
	outcomes := make([]types.TxOutcome, len(block.Txs))
	for i := range block.Txs {
		outcomes[i] = types.TxOutcome{Index: uint32(i)}
	}
	return types.BlockOutcome{TxOutcomes: outcomes, AppHash: types.AppHash{0x01}}, nil
}

func (a *lifecycleApp) Commit(_ context.Context) (types.CommitResult, error) {
	a.mu.Lock()
	a.commitCalls++
	a.mu.Unlock()
	return types.CommitResult{}, nil
}

func (a *lifecycleApp) Query(_ context.Context, _ types.StateQuery) (types.StateQueryResult, error) {
	return types.StateQueryResult{}, nil
}

// simulatingApp adds the Simulator capability.
type simulatingApp struct {
	lifecycleApp
	declare bool
}

func (a *simulatingApp) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	resp, err := a.lifecycleApp.Handshake(ctx, req)
	if a.declare {
		resp.Capabilities = types.CapSimulation
	}
	return resp, err
}

func (a *simulatingApp) Simulate(_ context.Context, _ types.Tx) (types.TxOutcome, error) {
	return types.TxOutcome{Info: "simulated"}, nil
}

func genesis(t *testing.T, srv *Server) {
	t.Helper()
	_, err := srv.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &types.GenesisDoc{ChainID: "test"},
	})
	require.NoError(t, err)
}

func block(height uint64, txs ...types.Tx) types.FinalizedBlock {
	return types.FinalizedBlock{Height: height, Txs: txs}
}

func TestServer_ExecuteCommitCycle(t *testing.T) {
	app := &lifecycleApp{}
	srv := New(app)
	genesis(t, srv)
	require.NotNil(t, app.handshakeReq.Genesis)

	outcome, err := srv.ExecuteBlock(context.Background(), block(1, types.Tx{0x01}))
	require.NoError(t, err)
	assert.Len(t, outcome.TxOutcomes, 1)
	assert.NotNil(t, srv.LastOutcome())

	_, err = srv.Commit(context.Background())
	require.NoError(t, err)
	assert.Nil(t, srv.LastOutcome())
	assert.Equal(t, uint64(1), srv.CommittedHeight())
	assert.Equal(t, 1, app.commitCalls)
}

func TestServer_HeightMustIncrease(t *testing.T) {
	app := &lifecycleApp{}
	srv := New(app)
	genesis(t, srv)
	ctx := context.Background()

	_, err := srv.ExecuteBlock(ctx, block(0))
	require.ErrorIs(t, err, ErrHeightNotIncreasing)

	_, err = srv.ExecuteBlock(ctx, block(5))
	require.NoError(t, err)
	_, err = srv.Commit(ctx)
	require.NoError(t, err)

	_, err = srv.ExecuteBlock(ctx, block(5))
	require.ErrorIs(t, err, ErrHeightNotIncreasing)
	_, err = srv.ExecuteBlock(ctx, block(3))
	require.ErrorIs(t, err, ErrHeightNotIncreasing)

	// Gaps are allowed.
	_, err = srv.ExecuteBlock(ctx, block(9))
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 9}, app.executed)
}

func TestServer_RestartSetsCommittedHeight(t *testing.T) {
	app := &lifecycleApp{lastBlock: &types.BlockID{Height: 40}}
	srv := New(app)

	_, err := srv.Handshake(context.Background(), types.HandshakeRequest{
		LastCommitted: &types.BlockID{Height: 40},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(40), srv.CommittedHeight())

	_, err = srv.ExecuteBlock(context.Background(), block(40))
	assert.ErrorIs(t, err, ErrHeightNotIncreasing)
}

func TestServer_HaltIsLoggedAndRetryable(t *testing.T) {
	var logs bytes.Buffer
	app := &lifecycleApp{executeErr: quadgov.NewHaltError(1, "invariant violated")}
	srv := New(app, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	genesis(t, srv)

	_, err := srv.ExecuteBlock(context.Background(), block(1))
	_, ok := quadgov.IsHalt(err)
	require.True(t, ok)
	assert.Contains(t, logs.String(), "application requested halt")
	assert.True(t, srv.guard.Idle())
	assert.Zero(t, srv.CommittedHeight())

	app.executeErr = nil
	_, err = srv.ExecuteBlock(context.Background(), block(1))
	require.NoError(t, err)
}

func TestServer_ExecuteErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	srv := New(&lifecycleApp{executeErr: boom})
	genesis(t, srv)

	_, err := srv.ExecuteBlock(context.Background(), block(1))
	assert.ErrorIs(t, err, boom)
}

func TestServer_CheckTxConcurrent(t *testing.T) {
	srv := New(&lifecycleApp{})
	genesis(t, srv)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := srv.CheckTx(context.Background(), types.Tx{0x01}, types.MempoolFirstSeen)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestServer_QueryBeforeHandshakePanics(t *testing.T) {
	srv := New(&lifecycleApp{})
	assert.Panics(t, func() {
		_, _ = srv.Query(context.Background(), types.StateQuery{Path: "/config"})
	})
}

func TestServer_SimulationCapability(t *testing.T) {
	t.Run("not implemented", func(t *testing.T) {
		srv := New(&lifecycleApp{})
		genesis(t, srv)
		assert.Nil(t, srv.AsSimulator())
		_, err := srv.Simulate(context.Background(), types.Tx{0x01})
		assert.ErrorIs(t, err, ErrSimulationUnsupported)
	})

	t.Run("declared", func(t *testing.T) {
		srv := New(&simulatingApp{declare: true})
		genesis(t, srv)
		require.True(t, srv.Capabilities().Has(types.CapSimulation))
		require.NotNil(t, srv.AsSimulator())

		out, err := srv.Simulate(context.Background(), types.Tx{0x01})
		require.NoError(t, err)
		assert.Equal(t, "simulated", out.Info)
	})

	t.Run("implemented but undeclared", func(t *testing.T) {
		var logs bytes.Buffer
		srv := New(&simulatingApp{}, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
		genesis(t, srv)
		assert.Nil(t, srv.AsSimulator())
		assert.Contains(t, logs.String(), "did not declare")
	})
}

// undeclaredApp claims a capability it does not implement.
type undeclaredApp struct{ lifecycleApp }

func (a *undeclaredApp) Handshake(_ context.Context, _ types.HandshakeRequest) (types.HandshakeResponse, error) {
	return types.HandshakeResponse{Capabilities: types.CapSimulation}, nil
}

func TestServer_HandshakeRejectsFalseCapability(t *testing.T) {
	srv := New(&undeclaredApp{})
	_, err := srv.Handshake(context.Background(), types.HandshakeRequest{})
	require.Error(t, err)
	assert.Equal(t, "awaiting handshake", srv.guard.Phase())
}
