package local

import (
	"context"
	"sync"
	"testing"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/quadgov/app"
	"github.com/blockberries/quadgov/govtest"
	"github.com/blockberries/quadgov/types"
)

func TestLocalConnection_FullCycle(t *testing.T) {
	conn := NewConnection(app.New())
	defer conn.Close()
	ctx := context.Background()

	genesis := govtest.DefaultGenesis()
	_, err := conn.Handshake(ctx, types.HandshakeRequest{Genesis: &genesis})
	require.NoError(t, err)
	assert.True(t, conn.Capabilities().Has(types.CapSimulation))
	require.NotNil(t, conn.AsSimulator())

	outcome, err := conn.ExecuteBlock(ctx, govtest.MakeBlock(1,
		types.CreateProposalCall("ST1ALICE", 3, 100, 10).MustEncode()))
	require.NoError(t, err)
	require.True(t, outcome.TxOutcomes[0].OK(), outcome.TxOutcomes[0].Info)
	_, err = conn.Commit(ctx)
	require.NoError(t, err)

	sim, err := conn.AsSimulator().Simulate(ctx, types.VoteCall("ST2BOB", 0, 49).MustEncode())
	require.NoError(t, err)
	assert.True(t, sim.OK())

	args, err := cramberry.Marshal(types.ProposalQuery{ProposalID: 0})
	require.NoError(t, err)
	result, err := conn.Query(ctx, types.StateQuery{Path: app.PathProposal, Data: args})
	require.NoError(t, err)
	p := govtest.Decode[types.Proposal](t, result.Value)
	assert.Equal(t, uint64(3), p.CharityID)
	assert.Zero(t, p.TotalVotes, "simulation must not change committed state")
}

func TestLocalConnection_NoSimulatorDeclared(t *testing.T) {
	conn := NewConnection(&govtest.MockApp{})
	_, err := conn.Handshake(context.Background(), types.HandshakeRequest{})
	require.NoError(t, err)
	assert.Nil(t, conn.AsSimulator())
}

func TestLocalConnection_CheckTxConcurrent(t *testing.T) {
	conn := NewConnection(app.New())
	genesis := govtest.DefaultGenesis()
	_, err := conn.Handshake(context.Background(), types.HandshakeRequest{Genesis: &genesis})
	require.NoError(t, err)

	tx := types.VoteCall("ST1ALICE", 0, 4).MustEncode()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := conn.CheckTx(context.Background(), tx, types.MempoolFirstSeen)
			assert.NoError(t, err)
			assert.True(t, v.Accepted())
		}()
	}
	wg.Wait()
}
