package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

func TestParseGenesisState_Empty(t *testing.T) {
	for _, in := range []string{"", "  \n", "{}"} {
		g, err := ParseGenesisState([]byte(in))
		require.NoError(t, err, "%q", in)
		cfg, err := g.Config()
		require.NoError(t, err)
		assert.Equal(t, governance.DefaultConfig(), cfg)
	}
}

func TestParseGenesisState_JSON(t *testing.T) {
	g, err := ParseGenesisState([]byte(`{"voting_threshold": 75, "staking_authority": "ST9STAKE"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(75), g.VotingThreshold)
	assert.Equal(t, types.Address("ST9STAKE"), g.StakingAuthority)
}

func TestGenesisState_RoundTrip(t *testing.T) {
	want := DefaultGenesisState()
	want.MinVoteAmount = 16

	data, err := want.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "min_vote_amount: 16")

	got, err := ParseGenesisState(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGenesisState_ConfigValidates(t *testing.T) {
	_, err := GenesisState{VotingThreshold: 101}.Config()
	assert.Error(t, err)

	cfg, err := GenesisState{VotingThreshold: 100}.Config()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cfg.VotingThreshold)
}
