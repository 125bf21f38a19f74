package types

// StateQuery is a request to read governance state.
type StateQuery struct {
	Path QueryPath `cramberry:"1"`
	// Cramberry-encoded query arguments (ProposalQuery, VoteQuery, ...).
	Data []byte `cramberry:"2"`
}

// StateQueryResult is the response to a state query. Absent records
// are reported with Code 0 and an empty Value.
type StateQueryResult struct {
	Code   uint32 `cramberry:"1"`
	Key    []byte `cramberry:"2"`
	Value  []byte `cramberry:"3"`
	Height uint64 `cramberry:"4"`
	Info   string `cramberry:"5"`
}

// Found reports whether the query located a record.
func (r StateQueryResult) Found() bool { return r.Code == 0 && len(r.Value) > 0 }

// ProposalQuery addresses a single proposal.
type ProposalQuery struct {
	ProposalID uint64 `cramberry:"1"`
}

// VoteQuery addresses one voter's ballot on a proposal.
type VoteQuery struct {
	ProposalID uint64  `cramberry:"1"`
	Voter      Address `cramberry:"2"`
}

// PhaseQuery asks for a proposal's phase. The phase is evaluated at
// Height when AtHeight is set, otherwise at the last committed height.
type PhaseQuery struct {
	ProposalID uint64 `cramberry:"1"`
	Height     uint64 `cramberry:"2"`
	AtHeight   bool   `cramberry:"3"`
}

// PhaseAt builds a PhaseQuery for an explicit height, including 0.
func PhaseAt(proposalID, height uint64) PhaseQuery {
	return PhaseQuery{ProposalID: proposalID, Height: height, AtHeight: true}
}

// ListProposalsQuery pages through proposals in id order. When
// HasStartAfter is set only ids greater than StartAfter are listed.
type ListProposalsQuery struct {
	StartAfter    uint64 `cramberry:"1"`
	Limit         uint32 `cramberry:"2"`
	HasStartAfter bool   `cramberry:"3"`
}

// ProposalsAfter builds a ListProposalsQuery resuming after id.
func ProposalsAfter(id uint64, limit uint32) ListProposalsQuery {
	return ListProposalsQuery{StartAfter: id, Limit: limit, HasStartAfter: true}
}

// Cursor returns the exclusive lower bound, or nil to start from the
// first proposal.
func (q ListProposalsQuery) Cursor() *uint64 {
	if !q.HasStartAfter {
		return nil
	}
	after := q.StartAfter
	return &after
}

// ProposalEntry pairs a proposal with its id for listings.
type ProposalEntry struct {
	ID       uint64   `cramberry:"1" json:"id"`
	Proposal Proposal `cramberry:"2" json:"proposal"`
	Active   bool     `cramberry:"3" json:"active"`
}

// ProposalList is the result of a ListProposalsQuery.
type ProposalList struct {
	Proposals []ProposalEntry `cramberry:"1"`
}

// VoterList is the ordered voter list of a proposal.
type VoterList struct {
	Voters []Address `cramberry:"1"`
}

// Uint64Value wraps a scalar query result.
type Uint64Value struct {
	Value uint64 `cramberry:"1"`
}

// BoolValue wraps a boolean query result.
type BoolValue struct {
	Value bool `cramberry:"1"`
}
