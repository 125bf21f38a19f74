package governance

import (
	"fmt"

	"github.com/blockberries/quadgov/types"
)

// Phase is the lifecycle position of a proposal at a given height.
// It is never stored; see PhaseOf.
type Phase uint8

const (
	// PhaseScheduled: the voting window has not opened yet.
	PhaseScheduled Phase = iota + 1
	// PhaseActive: votes are accepted.
	PhaseActive
	// PhaseClosed: the window has passed and the proposal awaits execution.
	PhaseClosed
	// PhaseExecuted: terminal.
	PhaseExecuted
)

func (p Phase) String() string {
	switch p {
	case PhaseScheduled:
		return "Scheduled"
	case PhaseActive:
		return "Active"
	case PhaseClosed:
		return "Closed"
	case PhaseExecuted:
		return "Executed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(p))
	}
}

// PhaseOf derives the phase of p at height now.
func PhaseOf(p types.Proposal, now uint64) Phase {
	switch {
	case p.Executed:
		return PhaseExecuted
	case now < p.StartTime:
		return PhaseScheduled
	case now <= p.EndTime:
		return PhaseActive
	default:
		return PhaseClosed
	}
}
