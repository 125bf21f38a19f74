package governance

import (
	"slices"

	"github.com/samber/lo"

	"github.com/blockberries/quadgov/types"
)

// Read-only accessors. None of them fail: absent records yield the
// zero value and, where it matters, a false ok flag.

// Proposal returns proposal id.
func (s *State) Proposal(id uint64) (types.Proposal, bool) {
	p, ok := s.proposals[id]
	return p, ok
}

// VoteOf returns voter's ballot on proposal id.
func (s *State) VoteOf(id uint64, voter types.Address) (types.Vote, bool) {
	v, ok := s.votes[voteKey{id, voter}]
	return v, ok
}

// ProposalVoters returns the voters of proposal id in voting order.
func (s *State) ProposalVoters(id uint64) []types.Address {
	return slices.Clone(s.voters[id])
}

// ProposalStatus returns the active flag of proposal id.
func (s *State) ProposalStatus(id uint64) (bool, bool) {
	active, ok := s.status[id]
	return active, ok
}

// NextProposalID returns the id the next proposal will receive.
func (s *State) NextProposalID() uint64 { return s.config.NextProposalID }

// VotingThreshold returns the weight required for execution.
func (s *State) VotingThreshold() uint64 { return s.config.VotingThreshold }

// TotalVotes returns the accumulated weight of proposal id, or 0.
func (s *State) TotalVotes(id uint64) uint64 { return s.proposals[id].TotalVotes }

// HasVoted reports whether voter has a ballot on proposal id.
func (s *State) HasVoted(id uint64, voter types.Address) bool {
	_, ok := s.votes[voteKey{id, voter}]
	return ok
}

// QuadraticWeightOf returns the weight of voter's ballot on proposal id, or 0.
func (s *State) QuadraticWeightOf(id uint64, voter types.Address) uint64 {
	return s.votes[voteKey{id, voter}].QuadraticWeight
}

// IsProposalActive reports the status flag of proposal id; false if absent.
func (s *State) IsProposalActive(id uint64) bool { return s.status[id] }

// ProposalCount returns the number of proposals ever created.
func (s *State) ProposalCount() uint64 { return s.config.NextProposalID }

// Config returns a copy of the governance parameters.
func (s *State) Config() types.Config { return s.config }

// PhaseAt derives the phase of proposal id at height now.
func (s *State) PhaseAt(id, now uint64) (Phase, bool) {
	p, ok := s.proposals[id]
	if !ok {
		return 0, false
	}
	return PhaseOf(p, now), true
}

// MaxListLimit caps a single ListProposals page.
const MaxListLimit uint32 = 100

// ListProposals returns up to limit proposals with ids greater than
// *startAfter (or from the first id if startAfter is nil), in id
// order. A zero limit means MaxListLimit.
func (s *State) ListProposals(startAfter *uint64, limit uint32) []types.ProposalEntry {
	if limit == 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	ids := lo.Filter(lo.Keys(s.proposals), func(id uint64, _ int) bool {
		return startAfter == nil || id > *startAfter
	})
	slices.Sort(ids)
	if len(ids) > int(limit) {
		ids = ids[:limit]
	}
	out := make([]types.ProposalEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.ProposalEntry{
			ID:       id,
			Proposal: s.proposals[id],
			Active:   s.status[id],
		})
	}
	return out
}
