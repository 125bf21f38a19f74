// Package quadgov defines the boundary between a block engine and the
// quadratic-voting governance application.
//
// The engine drives the application through [Lifecycle]. Dry-run
// execution is an optional capability, [Simulator], discovered by type
// assertion and advertised in the handshake.
package quadgov

import (
	"context"

	"github.com/blockberries/quadgov/types"
)

// Lifecycle is implemented by every governance application.
//
// The engine guarantees the following call order:
//  1. Handshake is called exactly once, before anything else.
//  2. ExecuteBlock(h) is called at most once per height h, with h
//     strictly increasing.
//  3. Commit is called exactly once after each successful ExecuteBlock.
//  4. CheckTx and Query may be called concurrently at any time after
//     Handshake.
type Lifecycle interface {
	// Handshake initializes the application. On a fresh chain Genesis
	// carries the initial governance parameters; on restart the
	// application reports the height and hash it last committed.
	Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error)

	// CheckTx decides whether an encoded call may enter the mempool.
	// It validates shape only; governance rules are applied at
	// execution time against the state of that block.
	//
	// This method MUST be safe for concurrent use.
	CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error)

	// ExecuteBlock applies every call of block in order against a
	// staged copy of the committed state. The block height is the time
	// counter each call observes. A rejected call leaves the staged
	// state as it was and is reported through its TxOutcome code.
	//
	// ExecuteBlock MUST NOT change committed state; that happens in
	// Commit. A *HaltError means the state failed an invariant check
	// and the block must not be committed.
	ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error)

	// Commit makes the state staged by the last ExecuteBlock visible
	// to queries and to the next block.
	Commit(ctx context.Context) (types.CommitResult, error)

	// Query reads committed governance state.
	//
	// This method MUST be safe for concurrent use, including with
	// ExecuteBlock.
	Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error)
}

// Simulator dry-runs calls against committed state.
//
// Declared via: types.CapSimulation in HandshakeResponse.Capabilities
type Simulator interface {
	// Simulate executes tx as if it were the only call of the next
	// block and discards the result state.
	//
	// This method MUST be safe for concurrent use.
	Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error)
}

// Application is a Lifecycle that also supports simulation.
type Application interface {
	Lifecycle
	Simulator
}

// Connection is a transport-agnostic handle to an application. Both
// the gRPC client and the in-process adapter implement it.
type Connection interface {
	Lifecycle

	// Capabilities returns the capabilities discovered at handshake.
	// Must only be called after Handshake completes.
	Capabilities() types.Capabilities

	// AsSimulator returns the Simulator if the application declared
	// CapSimulation, or nil.
	AsSimulator() Simulator

	// Close terminates the connection.
	Close() error
}
