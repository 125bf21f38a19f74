package govgrpc

import "github.com/blockberries/quadgov/types"

// Wrapper types for RPCs whose Go signatures don't map to a single
// request or response struct.

// CheckTxRequest wraps the parameters of Lifecycle.CheckTx.
type CheckTxRequest struct {
	Tx      types.Tx             `cramberry:"1"`
	Context types.MempoolContext `cramberry:"2"`
}

// CommitRequest is the (empty) request of Lifecycle.Commit.
type CommitRequest struct{}

// SimulateRequest wraps the parameter of Simulator.Simulate.
type SimulateRequest struct {
	Tx types.Tx `cramberry:"1"`
}
