package app

import (
	"errors"
	"strconv"

	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

// Event kinds emitted by applied calls. All parameter setters share
// EventUpdateConfig and are told apart by the "param" attribute.
const (
	EventCreateProposal  = types.KindCreateProposal
	EventVote            = types.KindVote
	EventExecuteProposal = types.KindExecuteProposal
	EventUpdateConfig    = "update_config"
)

const kindUnknown = "unknown"

type execResult struct {
	outcome types.TxOutcome
	kind    string
	reason  string
	weight  uint64
}

// execute applies one transaction to s at the given height. Rejections
// are reported in the outcome and leave s unchanged. A non-nil error
// means a result could not be encoded.
func execute(s *governance.State, height uint64, index uint32, tx types.Tx) (execResult, error) {
	call, op, err := types.DecodeCall(tx)
	if err != nil {
		return execResult{
			outcome: types.TxOutcome{Index: index, Code: CodeMalformedCall, Info: err.Error()},
			kind:    kindUnknown,
		}, nil
	}
	env := governance.Env{Caller: call.Caller, Now: height}

	res := execResult{kind: op.String(), outcome: types.TxOutcome{Index: index}}
	var (
		result any
		event  types.Event
	)

	switch op {
	case types.OpCreateProposal:
		m := call.CreateProposal
		var id uint64
		id, err = s.CreateProposal(env, m.CharityID, m.Amount, m.Duration)
		if err == nil {
			p, _ := s.Proposal(id)
			result = types.Uint64Value{Value: id}
			event = newEvent(EventCreateProposal,
				attr("proposal_id", u64(id), true),
				attr("proposer", string(call.Caller), true),
				attr("charity_id", u64(m.CharityID), true),
				attr("amount", u64(m.Amount), false),
				attr("start_time", u64(p.StartTime), false),
				attr("end_time", u64(p.EndTime), false))
		}

	case types.OpVote:
		m := call.Vote
		err = s.Vote(env, m.ProposalID, m.Amount)
		if err == nil {
			v, _ := s.VoteOf(m.ProposalID, call.Caller)
			res.weight = v.QuadraticWeight
			result = v
			event = newEvent(EventVote,
				attr("proposal_id", u64(m.ProposalID), true),
				attr("voter", string(call.Caller), true),
				attr("amount", u64(v.VoteAmount), false),
				attr("weight", u64(v.QuadraticWeight), false),
				attr("total_votes", u64(s.TotalVotes(m.ProposalID)), false))
		}

	case types.OpExecuteProposal:
		id := call.ExecuteProposal.ProposalID
		err = s.ExecuteProposal(env, id)
		if err == nil {
			p, _ := s.Proposal(id)
			result = p
			event = newEvent(EventExecuteProposal,
				attr("proposal_id", u64(id), true),
				attr("executor", string(call.Caller), true),
				attr("charity_id", u64(p.CharityID), true),
				attr("amount", u64(p.Amount), false),
				attr("total_votes", u64(p.TotalVotes), false))
		}

	case types.OpSetVotingThreshold:
		v := call.SetVotingThreshold.Value
		if err = s.SetVotingThreshold(env, v); err == nil {
			event = configEvent("voting_threshold", u64(v), call.Caller)
		}

	case types.OpSetMinVoteAmount:
		v := call.SetMinVoteAmount.Value
		if err = s.SetMinVoteAmount(env, v); err == nil {
			event = configEvent("min_vote_amount", u64(v), call.Caller)
		}

	case types.OpSetStakingAuthority:
		addr := call.SetStakingAuthority.Address
		if err = s.SetStakingAuthority(env, addr); err == nil {
			event = configEvent("staking_authority", string(addr), call.Caller)
		}

	case types.OpSetGoverningAuthority:
		addr := call.SetGoverningAuthority.Address
		if err = s.SetGoverningAuthority(env, addr); err == nil {
			event = configEvent("governing_authority", string(addr), call.Caller)
		}

	case types.OpSetCharityRegistryAuthority:
		addr := call.SetCharityRegistryAuthority.Address
		if err = s.SetCharityRegistryAuthority(env, addr); err == nil {
			event = configEvent("charity_registry_authority", string(addr), call.Caller)
		}
	}

	if err != nil {
		code, ok := governance.CodeOf(err)
		if !ok {
			code = governance.CodeCalculationError
		}
		res.reason = code.String()
		var gerr *governance.Error
		if errors.As(err, &gerr) {
			res.reason = gerr.Name()
		}
		res.outcome.Code = uint32(code)
		res.outcome.Info = err.Error()
		return res, nil
	}

	if result == nil {
		result = s.Config()
	}
	data, err := cramberry.Marshal(result)
	if err != nil {
		return execResult{}, err
	}
	res.outcome.Data = data
	res.outcome.Events = []types.Event{event}
	return res, nil
}

func newEvent(kind string, attrs ...types.EventAttribute) types.Event {
	return types.Event{Kind: kind, Attributes: attrs}
}

func configEvent(param, value string, authority types.Address) types.Event {
	return newEvent(EventUpdateConfig,
		attr("param", param, true),
		attr("value", value, false),
		attr("authority", string(authority), true))
}

func attr(key, value string, index bool) types.EventAttribute {
	return types.EventAttribute{Key: key, Value: value, Index: index}
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }
