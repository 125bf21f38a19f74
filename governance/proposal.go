package governance

import (
	"math/bits"

	"github.com/blockberries/quadgov/types"
)

// CreateProposal records a new proposal requested by env.Caller and
// returns its id. Voting opens at env.Now+1 and stays open for
// duration heights after that.
//
// Checks, first failure wins: proposal cap, duration, amount.
// The charity id is not validated here.
func (s *State) CreateProposal(env Env, charityID, amount, duration uint64) (uint64, error) {
	const op = "create proposal"

	if s.config.NextProposalID >= s.config.MaxProposals {
		return 0, reject(CodeMaxProposalsExceeded, op, "limit %d reached", s.config.MaxProposals)
	}
	if duration == 0 {
		return 0, reject(CodeInvalidDuration, op, "duration must be positive")
	}
	if amount == 0 {
		return 0, reject(CodeInvalidAmount, op, "amount must be positive")
	}
	start, carry := bits.Add64(env.Now, 1, 0)
	if carry != 0 {
		return 0, reject(CodeOverflow, op, "start height overflows")
	}
	end, carry := bits.Add64(start, duration, 0)
	if carry != 0 {
		return 0, reject(CodeOverflow, op, "end height overflows")
	}

	id := s.config.NextProposalID
	s.proposals[id] = types.Proposal{
		CharityID: charityID,
		Amount:    amount,
		StartTime: start,
		EndTime:   end,
		Proposer:  env.Caller,
	}
	s.status[id] = true
	s.config.NextProposalID++
	return id, nil
}

// Vote stakes amount from env.Caller on proposal id. The vote carries
// the quadratic weight of amount. Each caller votes at most once per
// proposal; there is no revision or retraction.
func (s *State) Vote(env Env, id, amount uint64) error {
	const op = "vote"

	p, ok := s.proposals[id]
	if !ok {
		return reject(CodeProposalNotFound, op, "proposal %d", id)
	}
	if id >= s.config.NextProposalID {
		return reject(CodeInvalidProposalID, op, "proposal %d beyond next id %d", id, s.config.NextProposalID)
	}
	if phase := PhaseOf(p, env.Now); phase != PhaseActive {
		return reject(CodeProposalInactive, op, "proposal %d is %s at height %d", id, phase, env.Now)
	}
	key := voteKey{id, env.Caller}
	if _, voted := s.votes[key]; voted {
		return reject(CodeAlreadyVoted, op, "%s on proposal %d", env.Caller, id)
	}
	if amount == 0 || amount < s.config.MinVoteAmount {
		return reject(CodeInvalidVoteAmount, op, "amount %d below minimum %d", amount, s.config.MinVoteAmount)
	}
	w, err := QuadraticWeight(amount)
	if err != nil {
		return err
	}
	total, carry := bits.Add64(p.TotalVotes, w, 0)
	if carry != 0 {
		return reject(CodeOverflow, op, "total votes of proposal %d overflow", id)
	}

	p.TotalVotes = total
	s.proposals[id] = p
	s.votes[key] = types.Vote{VoteAmount: amount, QuadraticWeight: w}
	s.voters[id] = append(s.voters[id], env.Caller)
	return nil
}

// ExecuteProposal marks proposal id executed once its voting window
// has closed and its weight reaches the voting threshold. Execution
// happens at most once and is never rolled back.
func (s *State) ExecuteProposal(env Env, id uint64) error {
	const op = "execute proposal"

	p, ok := s.proposals[id]
	if !ok {
		return reject(CodeProposalNotFound, op, "proposal %d", id)
	}
	if env.Now <= p.EndTime {
		return reject(CodeVotingClosed, op, "voting on proposal %d open until height %d", id, p.EndTime)
	}
	if p.Executed {
		return reject(CodeAlreadyExecuted, op, "proposal %d", id)
	}
	if p.TotalVotes < s.config.VotingThreshold {
		return rejectAs(ErrThresholdNotMet, op, "proposal %d has %d of %d votes",
			id, p.TotalVotes, s.config.VotingThreshold)
	}

	p.Executed = true
	s.proposals[id] = p
	s.status[id] = false
	return nil
}
