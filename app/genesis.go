package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

// GenesisState is the governance section of the genesis document,
// carried as GenesisDoc.AppState. Zero fields take their defaults.
// JSON input is accepted as well since it is valid YAML.
type GenesisState struct {
	MaxProposals             uint64        `yaml:"max_proposals,omitempty" json:"max_proposals,omitempty"`
	VotingThreshold          uint64        `yaml:"voting_threshold,omitempty" json:"voting_threshold,omitempty"`
	MinVoteAmount            uint64        `yaml:"min_vote_amount,omitempty" json:"min_vote_amount,omitempty"`
	StakingAuthority         types.Address `yaml:"staking_authority,omitempty" json:"staking_authority,omitempty"`
	GoverningAuthority       types.Address `yaml:"governing_authority,omitempty" json:"governing_authority,omitempty"`
	CharityRegistryAuthority types.Address `yaml:"charity_registry_authority,omitempty" json:"charity_registry_authority,omitempty"`
}

// DefaultGenesisState returns a genesis state with every field set to
// its default.
func DefaultGenesisState() GenesisState {
	cfg := governance.DefaultConfig()
	return GenesisState{
		MaxProposals:             cfg.MaxProposals,
		VotingThreshold:          cfg.VotingThreshold,
		MinVoteAmount:            cfg.MinVoteAmount,
		StakingAuthority:         cfg.StakingAuthority,
		GoverningAuthority:       cfg.GoverningAuthority,
		CharityRegistryAuthority: cfg.CharityRegistryAuthority,
	}
}

// ParseGenesisState decodes raw app state. Empty input yields the
// zero GenesisState, which resolves to all defaults. Unknown fields
// are rejected.
func ParseGenesisState(data []byte) (GenesisState, error) {
	var g GenesisState
	if len(bytes.TrimSpace(data)) == 0 {
		return g, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
		return GenesisState{}, fmt.Errorf("parse genesis app state: %w", err)
	}
	return g, nil
}

// Marshal encodes the genesis state as YAML.
func (g GenesisState) Marshal() ([]byte, error) {
	return yaml.Marshal(g)
}

// Config resolves the genesis state into governance parameters,
// substituting defaults for unset fields, and validates the result.
func (g GenesisState) Config() (types.Config, error) {
	cfg := governance.DefaultConfig()
	if g.MaxProposals != 0 {
		cfg.MaxProposals = g.MaxProposals
	}
	if g.VotingThreshold != 0 {
		cfg.VotingThreshold = g.VotingThreshold
	}
	if g.MinVoteAmount != 0 {
		cfg.MinVoteAmount = g.MinVoteAmount
	}
	if g.StakingAuthority != "" {
		cfg.StakingAuthority = g.StakingAuthority
	}
	if g.GoverningAuthority != "" {
		cfg.GoverningAuthority = g.GoverningAuthority
	}
	if g.CharityRegistryAuthority != "" {
		cfg.CharityRegistryAuthority = g.CharityRegistryAuthority
	}
	if err := governance.ValidateConfig(cfg); err != nil {
		return types.Config{}, fmt.Errorf("invalid genesis: %w", err)
	}
	return cfg, nil
}
