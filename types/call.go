package types

import (
	"errors"
	"fmt"

	"github.com/blockberries/cramberry/pkg/cramberry"
)

// Call kinds, used in events and logs.
const (
	KindCreateProposal              = "create_proposal"
	KindVote                        = "vote"
	KindExecuteProposal             = "execute_proposal"
	KindSetVotingThreshold          = "set_voting_threshold"
	KindSetMinVoteAmount            = "set_min_vote_amount"
	KindSetStakingAuthority         = "set_staking_authority"
	KindSetGoverningAuthority       = "set_governing_authority"
	KindSetCharityRegistryAuthority = "set_charity_registry_authority"
)

// Call is the transaction envelope: the caller identity supplied by
// the runtime plus exactly one governance operation.
//
// Exactly one of the message fields must be set.
type Call struct {
	Caller Address `cramberry:"1"`

	CreateProposal              *MsgCreateProposal  `cramberry:"2"`
	Vote                        *MsgVote            `cramberry:"3"`
	ExecuteProposal             *MsgExecuteProposal `cramberry:"4"`
	SetVotingThreshold          *MsgSetUint         `cramberry:"5"`
	SetMinVoteAmount            *MsgSetUint         `cramberry:"6"`
	SetStakingAuthority         *MsgSetAuthority    `cramberry:"7"`
	SetGoverningAuthority       *MsgSetAuthority    `cramberry:"8"`
	SetCharityRegistryAuthority *MsgSetAuthority    `cramberry:"9"`
}

// MsgCreateProposal requests a new proposal.
type MsgCreateProposal struct {
	CharityID uint64 `cramberry:"1"`
	Amount    uint64 `cramberry:"2"`
	Duration  uint64 `cramberry:"3"`
}

// MsgVote stakes Amount on a proposal.
type MsgVote struct {
	ProposalID uint64 `cramberry:"1"`
	Amount     uint64 `cramberry:"2"`
}

// MsgExecuteProposal executes a closed proposal.
type MsgExecuteProposal struct {
	ProposalID uint64 `cramberry:"1"`
}

// MsgSetUint replaces a numeric parameter.
type MsgSetUint struct {
	Value uint64 `cramberry:"1"`
}

// MsgSetAuthority replaces an authority identity.
type MsgSetAuthority struct {
	Address Address `cramberry:"1"`
}

// Op identifies the message a call carries. It is written as the
// first byte of an encoded call, ahead of the cramberry body, so that
// messages whose fields are all zero survive a round trip.
type Op byte

// Op prefix bytes. OpNone marks a call without exactly one message;
// such a call encodes but never decodes.
const (
	OpNone                        Op = 0x00
	OpCreateProposal              Op = 0x01
	OpVote                        Op = 0x02
	OpExecuteProposal             Op = 0x03
	OpSetVotingThreshold          Op = 0x04
	OpSetMinVoteAmount            Op = 0x05
	OpSetStakingAuthority         Op = 0x06
	OpSetGoverningAuthority       Op = 0x07
	OpSetCharityRegistryAuthority Op = 0x08
)

var opKinds = map[Op]string{
	OpCreateProposal:              KindCreateProposal,
	OpVote:                        KindVote,
	OpExecuteProposal:             KindExecuteProposal,
	OpSetVotingThreshold:          KindSetVotingThreshold,
	OpSetMinVoteAmount:            KindSetMinVoteAmount,
	OpSetStakingAuthority:         KindSetStakingAuthority,
	OpSetGoverningAuthority:       KindSetGoverningAuthority,
	OpSetCharityRegistryAuthority: KindSetCharityRegistryAuthority,
}

// String returns the call kind for op.
func (op Op) String() string {
	if kind, ok := opKinds[op]; ok {
		return kind
	}
	return fmt.Sprintf("op(0x%02x)", byte(op))
}

var (
	// ErrNoMessage is returned for a call without any message.
	ErrNoMessage = errors.New("call carries no message")
	// ErrMultipleMessages is returned for a call with more than one message.
	ErrMultipleMessages = errors.New("call carries more than one message")
	// ErrNoCaller is returned for a call with an empty caller.
	ErrNoCaller = errors.New("call has no caller")
	// ErrUnknownOp is returned when a transaction's prefix byte names no message.
	ErrUnknownOp = errors.New("unknown call op")
)

// Op returns the op of the single message carried by the call, or an
// error if the call does not carry exactly one.
func (c Call) Op() (Op, error) {
	var ops []Op
	if c.CreateProposal != nil {
		ops = append(ops, OpCreateProposal)
	}
	if c.Vote != nil {
		ops = append(ops, OpVote)
	}
	if c.ExecuteProposal != nil {
		ops = append(ops, OpExecuteProposal)
	}
	if c.SetVotingThreshold != nil {
		ops = append(ops, OpSetVotingThreshold)
	}
	if c.SetMinVoteAmount != nil {
		ops = append(ops, OpSetMinVoteAmount)
	}
	if c.SetStakingAuthority != nil {
		ops = append(ops, OpSetStakingAuthority)
	}
	if c.SetGoverningAuthority != nil {
		ops = append(ops, OpSetGoverningAuthority)
	}
	if c.SetCharityRegistryAuthority != nil {
		ops = append(ops, OpSetCharityRegistryAuthority)
	}
	switch len(ops) {
	case 0:
		return OpNone, ErrNoMessage
	case 1:
		return ops[0], nil
	default:
		return OpNone, ErrMultipleMessages
	}
}

// Kind returns the kind of the single message carried by the call,
// or an error if the call does not carry exactly one.
func (c Call) Kind() (string, error) {
	op, err := c.Op()
	if err != nil {
		return "", err
	}
	return op.String(), nil
}

// Validate checks the envelope shape. It does not consult state.
func (c Call) Validate() error {
	if c.Caller == "" {
		return ErrNoCaller
	}
	_, err := c.Op()
	return err
}

// Encode serializes the call into a transaction: one op byte followed
// by the cramberry-encoded call. Calls without exactly one message are
// encoded with OpNone so they can be submitted and rejected.
func (c Call) Encode() (Tx, error) {
	op, _ := c.Op()
	body, err := cramberry.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode call: %w", err)
	}
	return append(Tx{byte(op)}, body...), nil
}

// DecodeCall parses a transaction into a Call, restores the message
// named by the op byte and validates the envelope. It returns the op
// of the decoded message.
func DecodeCall(tx Tx) (Call, Op, error) {
	if len(tx) == 0 {
		return Call{}, OpNone, errors.New("empty transaction")
	}
	op := Op(tx[0])
	if _, ok := opKinds[op]; !ok && op != OpNone {
		return Call{}, OpNone, fmt.Errorf("%w 0x%02x", ErrUnknownOp, tx[0])
	}

	var c Call
	if body := tx[1:]; len(body) > 0 {
		if err := cramberry.Unmarshal(body, &c); err != nil {
			return Call{}, OpNone, fmt.Errorf("decode call: %w", err)
		}
	}
	c.restore(op)

	if err := c.Validate(); err != nil {
		return Call{}, OpNone, err
	}
	got, _ := c.Op()
	if op == OpNone || got != op {
		return Call{}, OpNone, fmt.Errorf("call op 0x%02x does not match its message", byte(op))
	}
	return c, op, nil
}

// restore allocates the message for op when its fields were all zero
// and the body therefore omitted it.
func (c *Call) restore(op Op) {
	switch op {
	case OpCreateProposal:
		if c.CreateProposal == nil {
			c.CreateProposal = &MsgCreateProposal{}
		}
	case OpVote:
		if c.Vote == nil {
			c.Vote = &MsgVote{}
		}
	case OpExecuteProposal:
		if c.ExecuteProposal == nil {
			c.ExecuteProposal = &MsgExecuteProposal{}
		}
	case OpSetVotingThreshold:
		if c.SetVotingThreshold == nil {
			c.SetVotingThreshold = &MsgSetUint{}
		}
	case OpSetMinVoteAmount:
		if c.SetMinVoteAmount == nil {
			c.SetMinVoteAmount = &MsgSetUint{}
		}
	case OpSetStakingAuthority:
		if c.SetStakingAuthority == nil {
			c.SetStakingAuthority = &MsgSetAuthority{}
		}
	case OpSetGoverningAuthority:
		if c.SetGoverningAuthority == nil {
			c.SetGoverningAuthority = &MsgSetAuthority{}
		}
	case OpSetCharityRegistryAuthority:
		if c.SetCharityRegistryAuthority == nil {
			c.SetCharityRegistryAuthority = &MsgSetAuthority{}
		}
	}
}

// --- Call builders ---

// CreateProposalCall builds a createProposal call.
func CreateProposalCall(caller Address, charityID, amount, duration uint64) Call {
	return Call{Caller: caller, CreateProposal: &MsgCreateProposal{
		CharityID: charityID,
		Amount:    amount,
		Duration:  duration,
	}}
}

// VoteCall builds a voteOnProposal call.
func VoteCall(caller Address, proposalID, amount uint64) Call {
	return Call{Caller: caller, Vote: &MsgVote{ProposalID: proposalID, Amount: amount}}
}

// ExecuteProposalCall builds an executeProposal call.
func ExecuteProposalCall(caller Address, proposalID uint64) Call {
	return Call{Caller: caller, ExecuteProposal: &MsgExecuteProposal{ProposalID: proposalID}}
}

// SetVotingThresholdCall builds a setVotingThreshold call.
func SetVotingThresholdCall(caller Address, v uint64) Call {
	return Call{Caller: caller, SetVotingThreshold: &MsgSetUint{Value: v}}
}

// SetMinVoteAmountCall builds a setMinVoteAmount call.
func SetMinVoteAmountCall(caller Address, v uint64) Call {
	return Call{Caller: caller, SetMinVoteAmount: &MsgSetUint{Value: v}}
}

// SetStakingAuthorityCall builds a setStakingAuthority call.
func SetStakingAuthorityCall(caller, addr Address) Call {
	return Call{Caller: caller, SetStakingAuthority: &MsgSetAuthority{Address: addr}}
}

// SetGoverningAuthorityCall builds a setGoverningAuthority call.
func SetGoverningAuthorityCall(caller, addr Address) Call {
	return Call{Caller: caller, SetGoverningAuthority: &MsgSetAuthority{Address: addr}}
}

// SetCharityRegistryAuthorityCall builds a setCharityRegistryAuthority call.
func SetCharityRegistryAuthorityCall(caller, addr Address) Call {
	return Call{Caller: caller, SetCharityRegistryAuthority: &MsgSetAuthority{Address: addr}}
}

// MustEncode encodes the call and panics on failure. Intended for
// tests and fixtures.
func (c Call) MustEncode() Tx {
	tx, err := c.Encode()
	if err != nil {
		panic(err)
	}
	return tx
}
