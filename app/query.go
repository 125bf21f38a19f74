package app

import (
	"context"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

// Query paths served by App.Query. Request data and response values
// are cramberry-encoded.
const (
	PathProposal        types.QueryPath = "/proposal"         // ProposalQuery → Proposal
	PathVote            types.QueryPath = "/vote"             // VoteQuery → Vote
	PathVoters          types.QueryPath = "/voters"           // ProposalQuery → VoterList
	PathStatus          types.QueryPath = "/status"           // ProposalQuery → BoolValue
	PathNextProposalID  types.QueryPath = "/next_proposal_id" // → Uint64Value
	PathVotingThreshold types.QueryPath = "/voting_threshold" // → Uint64Value
	PathTotalVotes      types.QueryPath = "/total_votes"      // ProposalQuery → Uint64Value
	PathHasVoted        types.QueryPath = "/has_voted"        // VoteQuery → BoolValue
	PathQuadraticWeight types.QueryPath = "/quadratic_weight" // VoteQuery → Uint64Value
	PathActive          types.QueryPath = "/active"           // ProposalQuery → BoolValue
	PathProposalCount   types.QueryPath = "/proposal_count"   // → Uint64Value
	PathConfig          types.QueryPath = "/config"           // → Config
	PathPhase           types.QueryPath = "/phase"            // PhaseQuery → Uint64Value
	PathProposals       types.QueryPath = "/proposals"        // ListProposalsQuery → ProposalList
)

// Query result codes. Absent records are not errors: they are reported
// with code 0 and an empty value.
const (
	QueryCodeUnknownPath uint32 = 1
	QueryCodeBadRequest  uint32 = 2
)

type queryHandler func(s *governance.State, height uint64, data []byte) (any, error)

var queryHandlers = map[types.QueryPath]queryHandler{
	PathProposal: withArgs(func(s *governance.State, _ uint64, q types.ProposalQuery) any {
		if p, ok := s.Proposal(q.ProposalID); ok {
			return p
		}
		return nil
	}),
	PathVote: withArgs(func(s *governance.State, _ uint64, q types.VoteQuery) any {
		if v, ok := s.VoteOf(q.ProposalID, q.Voter); ok {
			return v
		}
		return nil
	}),
	PathVoters: withArgs(func(s *governance.State, _ uint64, q types.ProposalQuery) any {
		return types.VoterList{Voters: s.ProposalVoters(q.ProposalID)}
	}),
	PathStatus: withArgs(func(s *governance.State, _ uint64, q types.ProposalQuery) any {
		if active, ok := s.ProposalStatus(q.ProposalID); ok {
			return types.BoolValue{Value: active}
		}
		return nil
	}),
	PathNextProposalID: noArgs(func(s *governance.State) any {
		return types.Uint64Value{Value: s.NextProposalID()}
	}),
	PathVotingThreshold: noArgs(func(s *governance.State) any {
		return types.Uint64Value{Value: s.VotingThreshold()}
	}),
	PathTotalVotes: withArgs(func(s *governance.State, _ uint64, q types.ProposalQuery) any {
		return types.Uint64Value{Value: s.TotalVotes(q.ProposalID)}
	}),
	PathHasVoted: withArgs(func(s *governance.State, _ uint64, q types.VoteQuery) any {
		return types.BoolValue{Value: s.HasVoted(q.ProposalID, q.Voter)}
	}),
	PathQuadraticWeight: withArgs(func(s *governance.State, _ uint64, q types.VoteQuery) any {
		return types.Uint64Value{Value: s.QuadraticWeightOf(q.ProposalID, q.Voter)}
	}),
	PathActive: withArgs(func(s *governance.State, _ uint64, q types.ProposalQuery) any {
		return types.BoolValue{Value: s.IsProposalActive(q.ProposalID)}
	}),
	PathProposalCount: noArgs(func(s *governance.State) any {
		return types.Uint64Value{Value: s.ProposalCount()}
	}),
	PathConfig: noArgs(func(s *governance.State) any {
		return s.Config()
	}),
	PathPhase: withArgs(func(s *governance.State, height uint64, q types.PhaseQuery) any {
		at := height
		if q.AtHeight {
			at = q.Height
		}
		if phase, ok := s.PhaseAt(q.ProposalID, at); ok {
			return types.Uint64Value{Value: uint64(phase)}
		}
		return nil
	}),
	PathProposals: withArgs(func(s *governance.State, _ uint64, q types.ListProposalsQuery) any {
		return types.ProposalList{Proposals: s.ListProposals(q.Cursor(), q.Limit)}
	}),
}

// withArgs adapts a handler taking decoded arguments of type Q. Empty
// data decodes to the zero Q.
func withArgs[Q any](fn func(*governance.State, uint64, Q) any) queryHandler {
	return func(s *governance.State, height uint64, data []byte) (any, error) {
		var q Q
		if len(data) > 0 {
			if err := cramberry.Unmarshal(data, &q); err != nil {
				return nil, fmt.Errorf("decode %T: %w", q, err)
			}
		}
		return fn(s, height, q), nil
	}
}

func noArgs(fn func(*governance.State) any) queryHandler {
	return func(s *governance.State, _ uint64, _ []byte) (any, error) {
		return fn(s), nil
	}
}

func (app *App) Query(_ context.Context, req types.StateQuery) (types.StateQueryResult, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()

	result := types.StateQueryResult{Key: req.Data, Height: app.height}
	if app.current == nil {
		result.Code = QueryCodeBadRequest
		result.Info = ErrNoState.Error()
		return result, nil
	}

	handler, ok := queryHandlers[req.Path]
	if !ok {
		result.Code = QueryCodeUnknownPath
		result.Info = fmt.Sprintf("unknown query path %q", req.Path)
		return result, nil
	}
	v, err := handler(app.current, app.height, req.Data)
	if err != nil {
		result.Code = QueryCodeBadRequest
		result.Info = err.Error()
		return result, nil
	}
	if v == nil {
		return result, nil
	}
	value, err := cramberry.Marshal(v)
	if err != nil {
		return types.StateQueryResult{}, fmt.Errorf("encode %s result: %w", req.Path, err)
	}
	result.Value = value
	return result, nil
}
