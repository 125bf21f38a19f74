// Package governance implements the quadratic-voting proposal engine:
// proposal creation, windowed voting weighted by the integer square
// root of the staked amount, threshold-gated one-time execution, and
// configuration changes restricted to a single governing authority.
//
// A State is not safe for concurrent use. Callers serialize access;
// the app package does so by executing one block at a time against a
// staged clone. Every mutating method either applies all of its
// effects or returns an *Error and leaves the State untouched.
package governance

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/blockberries/quadgov/types"
)

// Parameter defaults applied when genesis leaves a field unset.
const (
	DefaultMaxProposals    uint64 = 1000
	DefaultVotingThreshold uint64 = 50
	DefaultMinVoteAmount   uint64 = 1

	// DefaultAuthority is the principal holding all three authority
	// roles until the governing authority reassigns them.
	DefaultAuthority types.Address = "SP000000000000000000002Q6VF78"

	// MaxVotingThreshold is the inclusive upper bound of VotingThreshold.
	MaxVotingThreshold uint64 = 100
)

// Env carries the per-call context supplied by the runtime: who is
// calling and the current value of the time counter.
type Env struct {
	Caller types.Address
	Now    uint64
}

type voteKey struct {
	proposalID uint64
	voter      types.Address
}

// State holds every governance record. Records are stored by value
// and returned as copies, so no caller can alias into the State.
type State struct {
	config    types.Config
	proposals map[uint64]types.Proposal
	votes     map[voteKey]types.Vote
	voters    map[uint64][]types.Address
	status    map[uint64]bool
}

// DefaultConfig returns the genesis parameters used when none are given.
func DefaultConfig() types.Config {
	return types.Config{
		MaxProposals:             DefaultMaxProposals,
		VotingThreshold:          DefaultVotingThreshold,
		MinVoteAmount:            DefaultMinVoteAmount,
		StakingAuthority:         DefaultAuthority,
		GoverningAuthority:       DefaultAuthority,
		CharityRegistryAuthority: DefaultAuthority,
	}
}

// ValidateConfig checks genesis parameters.
func ValidateConfig(cfg types.Config) error {
	if cfg.NextProposalID != 0 {
		return fmt.Errorf("next proposal id must start at 0, got %d", cfg.NextProposalID)
	}
	if cfg.MaxProposals == 0 {
		return errors.New("max proposals must be positive")
	}
	if cfg.VotingThreshold == 0 || cfg.VotingThreshold > MaxVotingThreshold {
		return fmt.Errorf("voting threshold %d outside (0,%d]", cfg.VotingThreshold, MaxVotingThreshold)
	}
	if cfg.MinVoteAmount == 0 {
		return errors.New("min vote amount must be positive")
	}
	if cfg.GoverningAuthority == "" {
		return errors.New("governing authority must be set")
	}
	return nil
}

// NewState creates an empty governance state with the given parameters.
func NewState(cfg types.Config) (*State, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("governance: %w", err)
	}
	return &State{
		config:    cfg,
		proposals: make(map[uint64]types.Proposal),
		votes:     make(map[voteKey]types.Vote),
		voters:    make(map[uint64][]types.Address),
		status:    make(map[uint64]bool),
	}, nil
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		config:    s.config,
		proposals: make(map[uint64]types.Proposal, len(s.proposals)),
		votes:     make(map[voteKey]types.Vote, len(s.votes)),
		voters:    make(map[uint64][]types.Address, len(s.voters)),
		status:    make(map[uint64]bool, len(s.status)),
	}
	for id, p := range s.proposals {
		c.proposals[id] = p
	}
	for k, v := range s.votes {
		c.votes[k] = v
	}
	for id, list := range s.voters {
		c.voters[id] = slices.Clone(list)
	}
	for id, active := range s.status {
		c.status[id] = active
	}
	return c
}

// CheckInvariants verifies the cross-record invariants of the state.
// A non-nil result means the state was corrupted; it is never the
// outcome of an ordinary rejected call.
func (s *State) CheckInvariants() error {
	if s.config.NextProposalID != uint64(len(s.proposals)) {
		return fmt.Errorf("next proposal id %d but %d proposals stored",
			s.config.NextProposalID, len(s.proposals))
	}
	counted := 0
	for id, p := range s.proposals {
		if id >= s.config.NextProposalID {
			return fmt.Errorf("proposal %d at or beyond next id %d", id, s.config.NextProposalID)
		}
		if p.EndTime <= p.StartTime {
			return fmt.Errorf("proposal %d: end %d not after start %d", id, p.EndTime, p.StartTime)
		}
		active, ok := s.status[id]
		if !ok || active == p.Executed {
			return fmt.Errorf("proposal %d: status %v out of sync with executed=%v", id, active, p.Executed)
		}
		var sum uint64
		seen := make(map[types.Address]bool, len(s.voters[id]))
		for _, voter := range s.voters[id] {
			if seen[voter] {
				return fmt.Errorf("proposal %d: voter %s listed twice", id, voter)
			}
			seen[voter] = true
			v, ok := s.votes[voteKey{id, voter}]
			if !ok {
				return fmt.Errorf("proposal %d: voter %s has no vote", id, voter)
			}
			if v.QuadraticWeight*v.QuadraticWeight != v.VoteAmount {
				return fmt.Errorf("proposal %d: vote of %s has weight %d for amount %d",
					id, voter, v.QuadraticWeight, v.VoteAmount)
			}
			sum += v.QuadraticWeight
			counted++
		}
		if sum != p.TotalVotes {
			return fmt.Errorf("proposal %d: total votes %d, sum of weights %d", id, p.TotalVotes, sum)
		}
	}
	if counted != len(s.votes) {
		return fmt.Errorf("%d votes stored but %d reachable from voter lists", len(s.votes), counted)
	}
	return nil
}

// Snapshot is a canonical, id-ordered export of the state. Its
// cramberry encoding is stable for equal states.
type Snapshot struct {
	Config    types.Config     `cramberry:"1"`
	Proposals []ProposalRecord `cramberry:"2"`
}

// ProposalRecord is one proposal with its status and ballots.
type ProposalRecord struct {
	ID       uint64         `cramberry:"1"`
	Proposal types.Proposal `cramberry:"2"`
	Active   bool           `cramberry:"3"`
	Votes    []VoteRecord   `cramberry:"4"`
}

// VoteRecord is one ballot in voter-list order.
type VoteRecord struct {
	Voter types.Address `cramberry:"1"`
	Vote  types.Vote    `cramberry:"2"`
}

// Snapshot exports the state in canonical order.
func (s *State) Snapshot() Snapshot {
	ids := lo.Keys(s.proposals)
	slices.Sort(ids)

	snap := Snapshot{
		Config:    s.config,
		Proposals: make([]ProposalRecord, 0, len(ids)),
	}
	for _, id := range ids {
		rec := ProposalRecord{
			ID:       id,
			Proposal: s.proposals[id],
			Active:   s.status[id],
		}
		for _, voter := range s.voters[id] {
			rec.Votes = append(rec.Votes, VoteRecord{
				Voter: voter,
				Vote:  s.votes[voteKey{id, voter}],
			})
		}
		snap.Proposals = append(snap.Proposals, rec)
	}
	return snap
}
