package governance

import (
	"errors"
	"fmt"
)

// Code identifies a rejection kind. The numeric values are stable and
// are reported as the TxOutcome code of a rejected call.
type Code uint32

const (
	CodeOK                   Code = 0
	CodeNotAuthorized        Code = 100
	CodeProposalNotFound     Code = 101
	CodeProposalInactive     Code = 102
	CodeAlreadyVoted         Code = 104
	CodeVotingClosed         Code = 105
	CodeInvalidVoteAmount    Code = 106
	CodeCalculationError     Code = 108
	CodeInvalidProposalID    Code = 110
	CodeOverflow             Code = 113
	CodeInvalidThreshold     Code = 116
	CodeAlreadyExecuted      Code = 117
	CodeMaxProposalsExceeded Code = 119
	CodeInvalidDuration      Code = 120
	CodeInvalidAmount        Code = 124
)

var codeNames = map[Code]string{
	CodeOK:                   "ok",
	CodeNotAuthorized:        "not authorized",
	CodeProposalNotFound:     "proposal not found",
	CodeProposalInactive:     "proposal inactive",
	CodeAlreadyVoted:         "already voted",
	CodeVotingClosed:         "voting not closed",
	CodeInvalidVoteAmount:    "invalid vote amount",
	CodeCalculationError:     "calculation error",
	CodeInvalidProposalID:    "invalid proposal id",
	CodeOverflow:             "arithmetic overflow",
	CodeInvalidThreshold:     "invalid threshold",
	CodeAlreadyExecuted:      "proposal already executed",
	CodeMaxProposalsExceeded: "max proposals exceeded",
	CodeInvalidDuration:      "invalid duration",
	CodeInvalidAmount:        "invalid amount",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", uint32(c))
}

// ReasonThresholdNotMet refines CodeInvalidThreshold for an execution
// attempted below the voting threshold.
const ReasonThresholdNotMet = "threshold not met"

// Error is a rejected governance call. Two Errors match under
// errors.Is when their codes and reasons are equal, so callers can
// compare against the Err* sentinels regardless of Op or Detail.
//
// Reason tells apart failures that share a code.
type Error struct {
	Code   Code
	Reason string
	Op     string
	Detail string
}

// Name is the reason if set, otherwise the code name.
func (e *Error) Name() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Code.String()
}

func (e *Error) Error() string {
	msg := e.Name()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is reports whether target is an *Error with the same code and reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Reason == e.Reason
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotAuthorized        = &Error{Code: CodeNotAuthorized}
	ErrProposalNotFound     = &Error{Code: CodeProposalNotFound}
	ErrProposalInactive     = &Error{Code: CodeProposalInactive}
	ErrAlreadyVoted         = &Error{Code: CodeAlreadyVoted}
	ErrVotingClosed         = &Error{Code: CodeVotingClosed}
	ErrInvalidVoteAmount    = &Error{Code: CodeInvalidVoteAmount}
	ErrCalculationError     = &Error{Code: CodeCalculationError}
	ErrInvalidProposalID    = &Error{Code: CodeInvalidProposalID}
	ErrOverflow             = &Error{Code: CodeOverflow}
	ErrInvalidThreshold     = &Error{Code: CodeInvalidThreshold}
	ErrAlreadyExecuted      = &Error{Code: CodeAlreadyExecuted}
	ErrMaxProposalsExceeded = &Error{Code: CodeMaxProposalsExceeded}
	ErrInvalidDuration      = &Error{Code: CodeInvalidDuration}
	ErrInvalidAmount        = &Error{Code: CodeInvalidAmount}
	ErrThresholdNotMet      = &Error{Code: CodeInvalidThreshold, Reason: ReasonThresholdNotMet}
)

func reject(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// rejectAs is reject for a sentinel carrying a reason.
func rejectAs(sentinel *Error, op, format string, args ...any) *Error {
	e := reject(sentinel.Code, op, format, args...)
	e.Reason = sentinel.Reason
	return e
}

// CodeOf extracts the rejection code from err. It returns CodeOK for
// a nil error and false if err is not a governance error.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return CodeOK, true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
