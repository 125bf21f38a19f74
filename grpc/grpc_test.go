package govgrpc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/blockberries/quadgov"
	"github.com/blockberries/quadgov/app"
	"github.com/blockberries/quadgov/governance"
	govgrpc "github.com/blockberries/quadgov/grpc"
	"github.com/blockberries/quadgov/govtest"
	"github.com/blockberries/quadgov/server"
	"github.com/blockberries/quadgov/types"
)

const (
	alice types.Address = "ST1ALICE"
	bob   types.Address = "ST2BOB"
)

// startServer serves gs on a random local port until the test ends.
func startServer(t *testing.T, gs *govgrpc.GRPCServer) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return lis.Addr().String()
}

func insecureCreds() grpc.DialOption {
	return grpc.WithTransportCredentials(insecure.NewCredentials())
}

func dial(t *testing.T, addr string) *govgrpc.Client {
	t.Helper()
	client, err := govgrpc.Dial(addr, insecureCreds())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func genesis(t *testing.T, c quadgov.Lifecycle) types.HandshakeResponse {
	t.Helper()
	doc := govtest.DefaultGenesis()
	resp, err := c.Handshake(context.Background(), types.HandshakeRequest{Genesis: &doc})
	require.NoError(t, err)
	return resp
}

func queryArgs(t *testing.T, v any) []byte {
	t.Helper()
	data, err := cramberry.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestGRPC_GovernanceLifecycle(t *testing.T) {
	addr := startServer(t, govgrpc.NewGRPCServer(app.New(), nil))
	client := dial(t, addr)
	ctx := context.Background()

	resp := genesis(t, client)
	require.NotNil(t, resp.AppHash)
	assert.True(t, client.Capabilities().Has(types.CapSimulation))

	verdict, err := client.CheckTx(ctx, types.VoteCall(alice, 0, 4).MustEncode(), types.MempoolFirstSeen)
	require.NoError(t, err)
	assert.True(t, verdict.Accepted())

	outcome, err := client.ExecuteBlock(ctx, govtest.MakeBlock(1,
		types.CreateProposalCall(alice, 5, 100, 3).MustEncode(),
		types.VoteCall(bob, 0, 2500).MustEncode()))
	require.NoError(t, err)
	require.Len(t, outcome.TxOutcomes, 2)
	assert.True(t, outcome.TxOutcomes[0].OK())
	assert.Equal(t, uint32(governance.CodeProposalInactive), outcome.TxOutcomes[1].Code)
	assert.NotEqual(t, types.AppHash{}, outcome.AppHash)
	_, err = client.Commit(ctx)
	require.NoError(t, err)

	outcome, err = client.ExecuteBlock(ctx, govtest.MakeBlock(2, types.VoteCall(bob, 0, 2500).MustEncode()))
	require.NoError(t, err)
	require.True(t, outcome.TxOutcomes[0].OK(), outcome.TxOutcomes[0].Info)
	require.Len(t, outcome.TxOutcomes[0].Events, 1)
	assert.Equal(t, app.EventVote, outcome.TxOutcomes[0].Events[0].Kind)
	_, err = client.Commit(ctx)
	require.NoError(t, err)

	result, err := client.Query(ctx, types.StateQuery{
		Path: app.PathTotalVotes,
		Data: queryArgs(t, types.ProposalQuery{ProposalID: 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Height)
	assert.Equal(t, uint64(50), govtest.Decode[types.Uint64Value](t, result.Value).Value)

	sim := client.AsSimulator()
	require.NotNil(t, sim)
	// Window is [2, 5]; simulating at height 3 keeps it open.
	simOut, err := sim.Simulate(ctx, types.ExecuteProposalCall(bob, 0).MustEncode())
	require.NoError(t, err)
	assert.Equal(t, uint32(governance.CodeVotingClosed), simOut.Code)
}

func TestGRPC_HeightRegressionRejected(t *testing.T) {
	addr := startServer(t, govgrpc.NewGRPCServer(app.New(), nil))
	client := dial(t, addr)
	genesis(t, client)
	ctx := context.Background()

	_, err := client.ExecuteBlock(ctx, govtest.MakeEmptyBlock(4))
	require.NoError(t, err)
	_, err = client.Commit(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(4), client.CommittedHeight())

	// Refused locally, before reaching the application.
	_, err = client.ExecuteBlock(ctx, govtest.MakeEmptyBlock(4))
	require.ErrorIs(t, err, server.ErrHeightNotIncreasing)
	_, err = client.ExecuteBlock(ctx, govtest.MakeEmptyBlock(2))
	require.ErrorIs(t, err, server.ErrHeightNotIncreasing)

	// The guard stayed idle, so the engine can continue.
	_, err = client.ExecuteBlock(ctx, govtest.MakeEmptyBlock(5))
	require.NoError(t, err)
	_, err = client.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), client.CommittedHeight())
}

func TestGRPC_HaltPropagates(t *testing.T) {
	mock := &govtest.MockApp{
		ExecuteBlockFn: func(_ context.Context, b types.FinalizedBlock) (types.BlockOutcome, error) {
			return types.BlockOutcome{}, quadgov.NewHaltError(b.Height, "invariant violated")
		},
	}
	addr := startServer(t, govgrpc.NewGRPCServer(mock, nil))
	client := dial(t, addr)
	genesis(t, client)

	_, err := client.ExecuteBlock(context.Background(), govtest.MakeEmptyBlock(7))
	h, ok := quadgov.IsHalt(err)
	require.True(t, ok, "expected halt, got %v", err)
	assert.Equal(t, uint64(7), h.Height)
	assert.Contains(t, err.Error(), "invariant violated")
}

func TestGRPC_OutOfOrderCallsDoNotCrashServer(t *testing.T) {
	gs := govgrpc.NewGRPCServer(app.New(), nil)
	addr := startServer(t, gs)

	reader, err := govgrpc.DialReader(addr, insecureCreds())
	require.NoError(t, err)
	defer reader.Close()

	// Query before any handshake trips the server-side guard.
	_, err = reader.Query(context.Background(), types.StateQuery{Path: app.PathConfig})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	client := dial(t, addr)
	genesis(t, client)

	// A second engine handshaking is refused, and the first keeps working.
	other := dial(t, addr)
	doc := govtest.DefaultGenesis()
	_, err = other.Handshake(context.Background(), types.HandshakeRequest{Genesis: &doc})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	res, err := reader.Query(context.Background(), types.StateQuery{Path: app.PathConfig})
	require.NoError(t, err)
	cfg := govtest.Decode[types.Config](t, res.Value)
	assert.Equal(t, governance.DefaultVotingThreshold, cfg.VotingThreshold)
}

func TestGRPC_SimulateUnsupported(t *testing.T) {
	addr := startServer(t, govgrpc.NewGRPCServer(&lifecycleOnly{&govtest.MockApp{}}, nil))
	client := dial(t, addr)
	genesis(t, client)
	assert.Nil(t, client.AsSimulator())

	reader, err := govgrpc.DialReader(addr, insecureCreds())
	require.NoError(t, err)
	defer reader.Close()
	_, err = reader.Simulate(context.Background(), types.Tx{0x01})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}

func TestGRPC_ContextCanceled(t *testing.T) {
	addr := startServer(t, govgrpc.NewGRPCServer(app.New(), nil))
	client := dial(t, addr)
	genesis(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Query(ctx, types.StateQuery{Path: app.PathConfig})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled)
}

// lifecycleOnly hides MockApp's Simulate method.
type lifecycleOnly struct{ quadgov.Lifecycle }
