package types

// Proposal is one governance request to disburse Amount to a charity.
//
// StartTime and EndTime bound the inclusive voting window in block
// heights. TotalVotes is the sum of the quadratic weights of all
// votes recorded on the proposal.
type Proposal struct {
	CharityID  uint64  `cramberry:"1" json:"charity_id"`
	Amount     uint64  `cramberry:"2" json:"amount"`
	StartTime  uint64  `cramberry:"3" json:"start_time"`
	EndTime    uint64  `cramberry:"4" json:"end_time"`
	TotalVotes uint64  `cramberry:"5" json:"total_votes"`
	Executed   bool    `cramberry:"6" json:"executed"`
	Proposer   Address `cramberry:"7" json:"proposer"`
}

// Vote is one voter's ballot on one proposal.
// QuadraticWeight * QuadraticWeight == VoteAmount always holds.
type Vote struct {
	VoteAmount      uint64 `cramberry:"1" json:"vote_amount"`
	QuadraticWeight uint64 `cramberry:"2" json:"quadratic_weight"`
}

// Config is the governance parameter singleton.
type Config struct {
	// NextProposalID is the id the next proposal receives; it is also
	// the total number of proposals ever created.
	NextProposalID uint64 `cramberry:"1" json:"next_proposal_id"`
	MaxProposals   uint64 `cramberry:"2" json:"max_proposals"`
	// VotingThreshold is the minimum TotalVotes for execution, in [1,100].
	VotingThreshold uint64 `cramberry:"3" json:"voting_threshold"`
	MinVoteAmount   uint64 `cramberry:"4" json:"min_vote_amount"`

	StakingAuthority         Address `cramberry:"5" json:"staking_authority"`
	GoverningAuthority       Address `cramberry:"6" json:"governing_authority"`
	CharityRegistryAuthority Address `cramberry:"7" json:"charity_registry_authority"`
}
