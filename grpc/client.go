package govgrpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/server"
	"github.com/blockberries/quadgov/types"
)

// Compile-time interface check.
var _ quadgov.Connection = (*Client)(nil)

// Client implements quadgov.Connection for a remote application. It
// is the engine side of the wire and enforces the lifecycle locally
// before any request is sent.
type Client struct {
	cc    *grpc.ClientConn
	caps  types.Capabilities
	guard *server.Guard
}

func newConn(addr string, opts []grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append(opts, grpc.WithDefaultCallOptions(
		grpc.ForceCodec(CramberryCodec{}),
	))
	cc, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("quadgov client: dial %s: %w", addr, err)
	}
	return cc, nil
}

// Dial connects to a remote governance application.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	cc, err := newConn(addr, opts)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, guard: server.NewGuard()}, nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}

// --- Lifecycle ---

func (c *Client) Handshake(ctx context.Context, req types.HandshakeRequest) (types.HandshakeResponse, error) {
	c.guard.BeginHandshake()

	resp := new(types.HandshakeResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Handshake"), &req, resp); err != nil {
		c.guard.AbortHandshake()
		return types.HandshakeResponse{}, err
	}

	c.caps = resp.Capabilities
	var height uint64
	if resp.LastBlock != nil {
		height = resp.LastBlock.Height
	}
	c.guard.EndHandshake(height)
	return *resp, nil
}

func (c *Client) CheckTx(ctx context.Context, tx types.Tx, mctx types.MempoolContext) (types.GateVerdict, error) {
	c.guard.RequireStarted()

	req := &CheckTxRequest{Tx: tx, Context: mctx}
	resp := new(types.GateVerdict)
	if err := c.cc.Invoke(ctx, fullMethod("CheckTx"), req, resp); err != nil {
		return types.GateVerdict{}, err
	}
	return *resp, nil
}

// ExecuteBlock executes block remotely. A halt requested by the
// application is returned as a *quadgov.HaltError. A block at or
// below the committed height is refused without a round trip.
func (c *Client) ExecuteBlock(ctx context.Context, block types.FinalizedBlock) (types.BlockOutcome, error) {
	if err := c.guard.BeginBlock(block.Height); err != nil {
		return types.BlockOutcome{}, err
	}

	resp := new(types.BlockOutcome)
	if err := c.cc.Invoke(ctx, fullMethod("ExecuteBlock"), &block, resp); err != nil {
		c.guard.AbortBlock()
		if status.Code(err) == codes.Aborted {
			return types.BlockOutcome{}, quadgov.WrapHalt(block.Height, "remote application halted", err)
		}
		return types.BlockOutcome{}, err
	}

	c.guard.EndBlock()
	return *resp, nil
}

func (c *Client) Commit(ctx context.Context) (types.CommitResult, error) {
	c.guard.BeginCommit()

	resp := new(types.CommitResult)
	err := c.cc.Invoke(ctx, fullMethod("Commit"), &CommitRequest{}, resp)
	c.guard.EndCommit(err == nil)
	if err != nil {
		return types.CommitResult{}, err
	}
	return *resp, nil
}

func (c *Client) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	c.guard.RequireStarted()
	return query(ctx, c.cc, req)
}

// --- Capability Accessors ---

func (c *Client) Capabilities() types.Capabilities { return c.caps }

// CommittedHeight returns the last height this client committed.
func (c *Client) CommittedHeight() uint64 { return c.guard.Height() }

func (c *Client) AsSimulator() quadgov.Simulator {
	if c.caps.Has(types.CapSimulation) {
		return clientSimulator{c.cc}
	}
	return nil
}

type clientSimulator struct{ cc *grpc.ClientConn }

func (w clientSimulator) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	return simulate(ctx, w.cc, tx)
}

// Reader is a read-only client for tooling. It issues Query and
// Simulate without taking part in the lifecycle, so it can run
// alongside the engine's own connection.
type Reader struct {
	cc *grpc.ClientConn
}

// DialReader connects a read-only client to a remote application.
func DialReader(addr string, opts ...grpc.DialOption) (*Reader, error) {
	cc, err := newConn(addr, opts)
	if err != nil {
		return nil, err
	}
	return &Reader{cc: cc}, nil
}

// Query reads committed state.
func (r *Reader) Query(ctx context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	return query(ctx, r.cc, req)
}

// Simulate dry-runs tx against committed state.
func (r *Reader) Simulate(ctx context.Context, tx types.Tx) (types.TxOutcome, error) {
	return simulate(ctx, r.cc, tx)
}

func (r *Reader) Close() error { return r.cc.Close() }

func query(ctx context.Context, cc *grpc.ClientConn, req types.StateQuery) (types.StateQueryResult, error) {
	resp := new(types.StateQueryResult)
	if err := cc.Invoke(ctx, fullMethod("Query"), &req, resp); err != nil {
		return types.StateQueryResult{}, err
	}
	return *resp, nil
}

func simulate(ctx context.Context, cc *grpc.ClientConn, tx types.Tx) (types.TxOutcome, error) {
	resp := new(types.TxOutcome)
	if err := cc.Invoke(ctx, fullMethod("Simulate"), &SimulateRequest{Tx: tx}, resp); err != nil {
		return types.TxOutcome{}, err
	}
	return *resp, nil
}
