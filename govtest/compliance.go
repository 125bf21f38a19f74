package govtest

import (
	"context"
	"sync"
	"testing"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/types"
)

// RunComplianceSuite checks lifecycle behavior every governance
// application must show: deterministic hashes, outcome indexing,
// untouched state on query, and concurrency-safe reads.
//
// The factory function should return a fresh application instance
// for each test.
func RunComplianceSuite(t *testing.T, factory func() quadgov.Lifecycle) {
	t.Helper()

	// A well-formed call and garbage, for tests that only need bytes.
	valid := types.CreateProposalCall("ST1COMPLIANCE", 1, 100, 10).MustEncode()
	garbage := types.Tx{0xff, 0xfe, 0xfd, 0xfc}

	t.Run("genesis_handshake", func(t *testing.T) {
		h := NewHarness(t, factory())
		resp := h.GenesisDefault()
		if resp.LastBlock != nil {
			t.Error("genesis handshake should return nil LastBlock")
		}
		if resp.AppHash == nil {
			t.Error("genesis handshake should return a non-nil AppHash")
		}
	})

	t.Run("execute_commit_cycle", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		for i := uint64(1); i <= 5; i++ {
			outcome := h.ExecuteAndCommit(MakeEmptyBlock(i))
			if outcome.AppHash == (types.AppHash{}) {
				t.Errorf("height %d: zero app hash", i)
			}
		}
	})

	t.Run("deterministic_with_txs", func(t *testing.T) {
		h1 := NewHarness(t, factory())
		h1.GenesisDefault()
		h2 := NewHarness(t, factory())
		h2.GenesisDefault()

		block := MakeBlock(1, valid, garbage, valid)
		o1 := h1.ExecuteAndCommit(block)
		o2 := h2.ExecuteAndCommit(block)

		if o1.AppHash != o2.AppHash {
			t.Errorf("non-deterministic with txs: %x != %x", o1.AppHash, o2.AppHash)
		}
		if len(o1.TxOutcomes) != len(o2.TxOutcomes) {
			t.Fatalf("outcome count mismatch: %d != %d", len(o1.TxOutcomes), len(o2.TxOutcomes))
		}
		for i := range o1.TxOutcomes {
			if o1.TxOutcomes[i].Code != o2.TxOutcomes[i].Code {
				t.Errorf("tx %d: code %d != %d", i, o1.TxOutcomes[i].Code, o2.TxOutcomes[i].Code)
			}
		}
	})

	t.Run("uncommitted_block_invisible", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()
		before := h.Query("/config", nil)

		h.ExecuteBlock(MakeBlock(1, valid))
		during := h.Query("/config", nil)
		if string(before.Value) != string(during.Value) {
			t.Error("query observed state from an uncommitted block")
		}
		h.Commit()
	})

	t.Run("concurrent_checktx_and_query", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := h.Server().CheckTx(context.Background(), valid, types.MempoolFirstSeen); err != nil {
					t.Errorf("concurrent CheckTx failed: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				if _, err := h.Server().Query(context.Background(), types.StateQuery{Path: "/config"}); err != nil {
					t.Errorf("concurrent Query failed: %v", err)
				}
			}()
		}
		h.ExecuteAndCommit(MakeBlock(1, valid))
		wg.Wait()
	})

	t.Run("query_returns_height", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		h.ExecuteAndCommit(MakeEmptyBlock(1))
		h.ExecuteAndCommit(MakeEmptyBlock(2))

		result := h.Query("/config", nil)
		if result.Height != 2 {
			t.Errorf("expected query height 2, got %d", result.Height)
		}
	})

	t.Run("tx_outcome_indices", func(t *testing.T) {
		h := NewHarness(t, factory())
		h.GenesisDefault()

		outcome := h.ExecuteAndCommit(MakeBlock(1, valid, garbage, valid))
		if len(outcome.TxOutcomes) != 3 {
			t.Fatalf("expected 3 tx outcomes, got %d", len(outcome.TxOutcomes))
		}
		for i, o := range outcome.TxOutcomes {
			if o.Index != uint32(i) {
				t.Errorf("tx %d: expected index %d, got %d", i, i, o.Index)
			}
		}
	})
}
