package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/govtest"
	"github.com/blockberries/quadgov/types"
)

// seeded returns a harness with two proposals: 0 has votes from alice
// (weight 3) and bob (weight 5); 1 has none. Committed height is 3.
func seeded(t *testing.T) *govtest.Harness {
	t.Helper()
	h, _ := newHarness(t)
	h.Submit(1,
		types.CreateProposalCall(alice, 10, 500, 4),
		types.CreateProposalCall(bob, 11, 900, 20))
	h.Submit(2, types.VoteCall(alice, 0, 9))
	h.Submit(3, types.VoteCall(bob, 0, 25))
	return h
}

func TestQuery_ProposalRecords(t *testing.T) {
	h := seeded(t)

	res := h.Query(PathProposal, types.ProposalQuery{ProposalID: 0})
	require.True(t, res.Found())
	assert.Equal(t, uint64(3), res.Height)
	p := govtest.Decode[types.Proposal](t, res.Value)
	assert.Equal(t, uint64(8), p.TotalVotes)
	assert.Equal(t, uint64(10), p.CharityID)

	vote := govtest.Decode[types.Vote](t, h.Query(PathVote, types.VoteQuery{ProposalID: 0, Voter: bob}).Value)
	assert.Equal(t, types.Vote{VoteAmount: 25, QuadraticWeight: 5}, vote)

	voters := govtest.Decode[types.VoterList](t, h.Query(PathVoters, types.ProposalQuery{ProposalID: 0}).Value)
	assert.Equal(t, []types.Address{alice, bob}, voters.Voters)

	status := govtest.Decode[types.BoolValue](t, h.Query(PathStatus, types.ProposalQuery{ProposalID: 1}).Value)
	assert.True(t, status.Value)
}

func TestQuery_Scalars(t *testing.T) {
	h := seeded(t)

	u64 := func(path types.QueryPath, args any) uint64 {
		return govtest.Decode[types.Uint64Value](t, h.Query(path, args).Value).Value
	}
	boolean := func(path types.QueryPath, args any) bool {
		return govtest.Decode[types.BoolValue](t, h.Query(path, args).Value).Value
	}

	assert.Equal(t, uint64(2), u64(PathNextProposalID, nil))
	assert.Equal(t, uint64(2), u64(PathProposalCount, nil))
	assert.Equal(t, governance.DefaultVotingThreshold, u64(PathVotingThreshold, nil))
	assert.Equal(t, uint64(8), u64(PathTotalVotes, types.ProposalQuery{ProposalID: 0}))
	assert.Equal(t, uint64(3), u64(PathQuadraticWeight, types.VoteQuery{ProposalID: 0, Voter: alice}))
	assert.True(t, boolean(PathHasVoted, types.VoteQuery{ProposalID: 0, Voter: alice}))
	assert.False(t, boolean(PathHasVoted, types.VoteQuery{ProposalID: 1, Voter: alice}))
	assert.True(t, boolean(PathActive, types.ProposalQuery{ProposalID: 0}))
}

func TestQuery_AbsentRecords(t *testing.T) {
	h := seeded(t)
	missing := types.ProposalQuery{ProposalID: 99}

	for _, path := range []types.QueryPath{PathProposal, PathStatus} {
		res := h.Query(path, missing)
		assert.Zero(t, res.Code, path)
		assert.False(t, res.Found(), path)
	}
	res := h.Query(PathVote, types.VoteQuery{ProposalID: 0, Voter: "nobody"})
	assert.Zero(t, res.Code)
	assert.False(t, res.Found())

	res = h.Query(PathPhase, types.PhaseQuery{ProposalID: 99})
	assert.Zero(t, res.Code)
	assert.False(t, res.Found())

	// Scalar getters report defaults.
	assert.Zero(t, govtest.Decode[types.Uint64Value](t, h.Query(PathTotalVotes, missing).Value).Value)
	assert.False(t, govtest.Decode[types.BoolValue](t, h.Query(PathActive, missing).Value).Value)
	assert.Empty(t, govtest.Decode[types.VoterList](t, h.Query(PathVoters, missing).Value).Voters)
}

func TestQuery_Phase(t *testing.T) {
	h := seeded(t)
	phaseOf := func(q types.PhaseQuery) governance.Phase {
		res := h.Query(PathPhase, q)
		require.True(t, res.Found())
		return governance.Phase(govtest.Decode[types.Uint64Value](t, res.Value).Value)
	}

	// Proposal 0 votes over [2, 6].
	assert.Equal(t, governance.PhaseScheduled, phaseOf(types.PhaseAt(0, 0)))
	assert.Equal(t, governance.PhaseScheduled, phaseOf(types.PhaseAt(0, 1)))
	assert.Equal(t, governance.PhaseActive, phaseOf(types.PhaseQuery{ProposalID: 0}), "no height means committed height")
	assert.Equal(t, governance.PhaseActive, phaseOf(types.PhaseAt(0, 6)))
	assert.Equal(t, governance.PhaseClosed, phaseOf(types.PhaseAt(0, 7)))
}

func TestQuery_ListProposals(t *testing.T) {
	h := seeded(t)

	all := govtest.Decode[types.ProposalList](t, h.Query(PathProposals, nil).Value)
	require.Len(t, all.Proposals, 2)
	assert.Equal(t, uint64(0), all.Proposals[0].ID)
	assert.Equal(t, uint64(1), all.Proposals[1].ID)

	page := govtest.Decode[types.ProposalList](t,
		h.Query(PathProposals, types.ProposalsAfter(0, 5)).Value)
	require.Len(t, page.Proposals, 1)
	assert.Equal(t, uint64(1), page.Proposals[0].ID)
	assert.Equal(t, uint64(11), page.Proposals[0].Proposal.CharityID)

	first := govtest.Decode[types.ProposalList](t,
		h.Query(PathProposals, types.ListProposalsQuery{Limit: 1}).Value)
	require.Len(t, first.Proposals, 1)
	assert.Equal(t, uint64(0), first.Proposals[0].ID)

	last := h.Query(PathProposals, types.ProposalsAfter(1, 5))
	assert.Empty(t, govtest.Decode[types.ProposalList](t, last.Value).Proposals)
}

func TestQuery_Config(t *testing.T) {
	h := seeded(t)
	cfg := govtest.Decode[types.Config](t, h.Query(PathConfig, nil).Value)
	assert.Equal(t, uint64(2), cfg.NextProposalID)
	assert.Equal(t, governance.DefaultAuthority, cfg.GoverningAuthority)
}

func TestQuery_Errors(t *testing.T) {
	h := seeded(t)

	res := h.Query("/nope", nil)
	assert.Equal(t, QueryCodeUnknownPath, res.Code)
	assert.Contains(t, res.Info, "/nope")

	bad, err := h.Server().Query(t.Context(), types.StateQuery{
		Path: PathProposal,
		Data: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	})
	require.NoError(t, err)
	assert.Equal(t, QueryCodeBadRequest, bad.Code)
}
