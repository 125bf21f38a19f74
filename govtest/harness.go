package govtest

import (
	"context"
	"testing"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/server"
	"github.com/blockberries/quadgov/types"
)

// Harness drives an application through the lifecycle state machine
// and fails the test on any transport-level error.
type Harness struct {
	t      *testing.T
	srv    *server.Server
	height uint64
}

// NewHarness creates a test harness wrapping the given application.
func NewHarness(t *testing.T, app quadgov.Lifecycle) *Harness {
	t.Helper()
	return &Harness{t: t, srv: server.New(app)}
}

// Server returns the underlying server for direct access.
func (h *Harness) Server() *server.Server {
	return h.srv
}

// Height returns the height of the last block the harness committed.
func (h *Harness) Height() uint64 {
	return h.height
}

// Genesis performs a genesis handshake with the given genesis doc.
func (h *Harness) Genesis(genesis types.GenesisDoc) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(context.Background(), types.HandshakeRequest{
		Genesis: &genesis,
	})
	if err != nil {
		h.t.Fatalf("Handshake (genesis) failed: %v", err)
	}
	return resp
}

// GenesisDefault performs a genesis handshake with default parameters.
func (h *Harness) GenesisDefault() types.HandshakeResponse {
	h.t.Helper()
	return h.Genesis(DefaultGenesis())
}

// GenesisWithAppState performs a genesis handshake carrying appState.
func (h *Harness) GenesisWithAppState(appState []byte) types.HandshakeResponse {
	h.t.Helper()
	doc := DefaultGenesis()
	doc.AppState = appState
	return h.Genesis(doc)
}

// Restart performs a restart handshake at the given block.
func (h *Harness) Restart(block types.BlockID) types.HandshakeResponse {
	h.t.Helper()
	resp, err := h.srv.Handshake(context.Background(), types.HandshakeRequest{
		LastCommitted: &block,
	})
	if err != nil {
		h.t.Fatalf("Handshake (restart) failed: %v", err)
	}
	h.height = block.Height
	return resp
}

// ExecuteBlock executes a block without committing.
func (h *Harness) ExecuteBlock(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome, err := h.srv.ExecuteBlock(context.Background(), block)
	if err != nil {
		h.t.Fatalf("ExecuteBlock (height=%d) failed: %v", block.Height, err)
	}
	return outcome
}

// Commit commits the last executed block.
func (h *Harness) Commit() types.CommitResult {
	h.t.Helper()
	result, err := h.srv.Commit(context.Background())
	if err != nil {
		h.t.Fatalf("Commit failed: %v", err)
	}
	h.height = h.srv.CommittedHeight()
	return result
}

// ExecuteAndCommit executes a block and commits it, returning the
// block outcome.
func (h *Harness) ExecuteAndCommit(block types.FinalizedBlock) types.BlockOutcome {
	h.t.Helper()
	outcome := h.ExecuteBlock(block)
	h.Commit()
	return outcome
}

// AdvanceTo commits empty blocks until the committed height is
// height-1, so the next block is at height.
func (h *Harness) AdvanceTo(height uint64) {
	h.t.Helper()
	if height <= h.height {
		h.t.Fatalf("AdvanceTo(%d): already at height %d", height, h.height)
	}
	if height-1 > h.height {
		h.ExecuteAndCommit(MakeEmptyBlock(height - 1))
	}
}

// Submit executes calls as a single block at the given height,
// commits it, and returns the per-call outcomes.
func (h *Harness) Submit(height uint64, calls ...types.Call) []types.TxOutcome {
	h.t.Helper()
	txs := make([]types.Tx, len(calls))
	for i, c := range calls {
		txs[i] = c.MustEncode()
	}
	return h.ExecuteAndCommit(MakeBlock(height, txs...)).TxOutcomes
}

// MustSucceed submits call at height and fails the test unless it
// was applied.
func (h *Harness) MustSucceed(height uint64, call types.Call) types.TxOutcome {
	h.t.Helper()
	out := h.Submit(height, call)[0]
	if !out.OK() {
		h.t.Fatalf("height %d: expected call applied, got code=%d info=%q", height, out.Code, out.Info)
	}
	return out
}

// MustFail submits call at height and fails the test unless it was
// rejected with code.
func (h *Harness) MustFail(height uint64, call types.Call, code uint32) types.TxOutcome {
	h.t.Helper()
	out := h.Submit(height, call)[0]
	if out.Code != code {
		h.t.Fatalf("height %d: expected code %d, got code=%d info=%q", height, code, out.Code, out.Info)
	}
	return out
}

// CheckTx submits a transaction for mempool gate-checking.
func (h *Harness) CheckTx(tx types.Tx) types.GateVerdict {
	h.t.Helper()
	verdict, err := h.srv.CheckTx(context.Background(), tx, types.MempoolFirstSeen)
	if err != nil {
		h.t.Fatalf("CheckTx failed: %v", err)
	}
	return verdict
}

// Simulate dry-runs a call through the server.
func (h *Harness) Simulate(call types.Call) types.TxOutcome {
	h.t.Helper()
	out, err := h.srv.Simulate(context.Background(), call.MustEncode())
	if err != nil {
		h.t.Fatalf("Simulate failed: %v", err)
	}
	return out
}

// Query reads application state at the latest height.
func (h *Harness) Query(path types.QueryPath, args any) types.StateQueryResult {
	h.t.Helper()
	var data []byte
	if args != nil {
		var err error
		if data, err = cramberry.Marshal(args); err != nil {
			h.t.Fatalf("encode query args: %v", err)
		}
	}
	result, err := h.srv.Query(context.Background(), types.StateQuery{
		Path: path,
		Data: data,
	})
	if err != nil {
		h.t.Fatalf("Query failed: %v", err)
	}
	return result
}

// MustAcceptTx asserts that a transaction is accepted.
func (h *Harness) MustAcceptTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if !v.Accepted() {
		h.t.Fatalf("expected tx accepted, got code=%d info=%q", v.Code, v.Info)
	}
}

// MustRejectTx asserts that a transaction is rejected.
func (h *Harness) MustRejectTx(tx types.Tx) {
	h.t.Helper()
	v := h.CheckTx(tx)
	if v.Accepted() {
		h.t.Fatal("expected tx rejected, got accepted")
	}
}

// Decode unmarshals a query value or outcome data into a T. Empty
// input yields the zero T.
func Decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if len(data) == 0 {
		return v
	}
	if err := cramberry.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return v
}

// --- Helper Factories ---

var genesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultGenesis returns a genesis document with empty app state, so
// every governance parameter takes its default.
func DefaultGenesis() types.GenesisDoc {
	return types.GenesisDoc{
		ChainID:       "test-chain",
		GenesisTime:   types.TimeToTimestamp(genesisTime),
		InitialHeight: 1,
	}
}

// MakeBlock creates a FinalizedBlock at the given height with
// the provided transactions.
func MakeBlock(height uint64, txs ...types.Tx) types.FinalizedBlock {
	return types.FinalizedBlock{
		Height: height,
		Time:   types.TimeToTimestamp(genesisTime.Add(time.Duration(height) * 5 * time.Second)),
		Txs:    txs,
	}
}

// MakeEmptyBlock creates an empty FinalizedBlock at the given height.
func MakeEmptyBlock(height uint64) types.FinalizedBlock {
	return MakeBlock(height)
}
