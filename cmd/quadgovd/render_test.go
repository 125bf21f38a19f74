package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

func TestRenderProposals(t *testing.T) {
	var buf bytes.Buffer
	list := types.ProposalList{Proposals: []types.ProposalEntry{
		{ID: 0, Active: true, Proposal: types.Proposal{CharityID: 7, Amount: 100, StartTime: 2, EndTime: 12, TotalVotes: 3, Proposer: "ST1ALICE"}},
		{ID: 1, Proposal: types.Proposal{CharityID: 8, Amount: 50, StartTime: 3, EndTime: 4, Executed: true, Proposer: "ST2BOB"}},
	}}

	require.NoError(t, NewRenderer(&buf, false).Proposals(list))

	out := buf.String()
	assert.Contains(t, out, "ST1ALICE")
	assert.Contains(t, out, "2..12")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "executed")
}

func TestRenderProposalsJSON(t *testing.T) {
	var buf bytes.Buffer
	list := types.ProposalList{Proposals: []types.ProposalEntry{
		{ID: 4, Active: true, Proposal: types.Proposal{Amount: 10, Proposer: "ST1ALICE"}},
	}}

	require.NoError(t, NewRenderer(&buf, true).Proposals(list))

	var got []types.ProposalEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, list.Proposals, got)
}

func TestRenderProposalPhase(t *testing.T) {
	var buf bytes.Buffer
	p := types.Proposal{CharityID: 1, Amount: 5, StartTime: 2, EndTime: 3, Proposer: "ST1ALICE"}

	require.NoError(t, NewRenderer(&buf, false).Proposal(9, p, governance.PhaseClosed))

	assert.Contains(t, buf.String(), "Closed")
	assert.Contains(t, buf.String(), "2..3")
}

func TestRenderVotersEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, false).Voters(types.VoterList{}))
	assert.Equal(t, "No voters found\n", buf.String())
}

func TestRenderOutcome(t *testing.T) {
	t.Run("applied with events", func(t *testing.T) {
		var buf bytes.Buffer
		out := types.TxOutcome{Events: []types.Event{{
			Kind:       types.KindVote,
			Attributes: []types.EventAttribute{{Key: "proposal_id", Value: "3"}, {Key: "weight", Value: "4"}},
		}}}

		require.NoError(t, NewRenderer(&buf, false).Outcome(out))

		assert.Contains(t, buf.String(), "Result: applied")
		assert.Contains(t, buf.String(), "proposal_id")
		assert.Contains(t, buf.String(), "weight")
	})

	t.Run("rejected", func(t *testing.T) {
		var buf bytes.Buffer
		out := types.TxOutcome{Code: uint32(governance.CodeAlreadyVoted), Info: "vote: ST1ALICE already voted"}

		require.NoError(t, NewRenderer(&buf, false).Outcome(out))

		assert.Contains(t, buf.String(), "rejected: already voted (104)")
		assert.Contains(t, buf.String(), "Info:   vote: ST1ALICE already voted")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		out := types.TxOutcome{Code: uint32(governance.CodeInvalidThreshold)}

		require.NoError(t, NewRenderer(&buf, true).Outcome(out))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "invalid threshold", got["result"])
		assert.EqualValues(t, 116, got["code"])
	})
}
