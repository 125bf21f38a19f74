// Package server provides the engine-side wrapper that enforces the
// governance lifecycle and routes the simulation capability.
package server

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrHeightNotIncreasing is returned for a block at or below the last
// committed height. Block height is the governance clock and never
// moves backwards.
var ErrHeightNotIncreasing = errors.New("quadgov: block height not above last committed height")

type phase uint32

const (
	phaseAwaitingHandshake phase = iota
	phaseHandshaking
	phaseIdle
	phaseExecuting
	phaseExecuted
	phaseCommitting
)

var phaseNames = [...]string{
	phaseAwaitingHandshake: "awaiting handshake",
	phaseHandshaking:       "handshaking",
	phaseIdle:              "idle",
	phaseExecuting:         "executing block",
	phaseExecuted:          "block executed",
	phaseCommitting:        "committing",
}

func (p phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint32(p))
}

// Guard owns the governance clock. It serializes block execution and
// commit, and tracks the committed height and the height of the block
// in flight so that every call observes a strictly later height than
// the one before it.
//
// Out-of-order lifecycle calls are programming errors in the engine
// and panic; a stale height is an input error and is returned.
type Guard struct {
	phase   atomic.Uint32
	started atomic.Bool

	// Held from BeginBlock to EndBlock/AbortBlock and across a commit.
	seq       sync.Mutex
	committed atomic.Uint64
	pending   uint64
}

// NewGuard returns a guard awaiting its handshake.
func NewGuard() *Guard {
	return &Guard{}
}

func (g *Guard) current() phase { return phase(g.phase.Load()) }

// Phase names the current lifecycle phase.
func (g *Guard) Phase() string { return g.current().String() }

// Idle reports whether the guard is between blocks.
func (g *Guard) Idle() bool { return g.current() == phaseIdle }

// Height returns the last committed height.
func (g *Guard) Height() uint64 { return g.committed.Load() }

// BeginHandshake starts the one handshake a guard accepts.
func (g *Guard) BeginHandshake() {
	if !g.phase.CompareAndSwap(uint32(phaseAwaitingHandshake), uint32(phaseHandshaking)) {
		panic(fmt.Sprintf("quadgov: Handshake while %s", g.current()))
	}
}

// EndHandshake records the height the application resumed at (0 on
// genesis) and opens the guard to blocks and concurrent reads.
func (g *Guard) EndHandshake(height uint64) {
	g.committed.Store(height)
	g.phase.Store(uint32(phaseIdle))
	g.started.Store(true)
}

// AbortHandshake returns the guard to awaiting a handshake.
func (g *Guard) AbortHandshake() {
	g.phase.Store(uint32(phaseAwaitingHandshake))
}

// BeginBlock claims the sequential lane for a block at height. It
// blocks while a commit is running and returns ErrHeightNotIncreasing,
// leaving the guard idle, for a height at or below the committed one.
func (g *Guard) BeginBlock(height uint64) error {
	g.seq.Lock()
	if p := g.current(); p != phaseIdle {
		g.seq.Unlock()
		panic(fmt.Sprintf("quadgov: ExecuteBlock while %s", p))
	}
	if committed := g.committed.Load(); height <= committed {
		g.seq.Unlock()
		return fmt.Errorf("%w: block %d, committed %d", ErrHeightNotIncreasing, height, committed)
	}
	g.pending = height
	g.phase.Store(uint32(phaseExecuting))
	return nil
}

// EndBlock marks the block executed; Commit is the only next step.
func (g *Guard) EndBlock() {
	g.phase.Store(uint32(phaseExecuted))
	g.seq.Unlock()
}

// AbortBlock discards the block in flight so it can be retried.
func (g *Guard) AbortBlock() {
	g.pending = 0
	g.phase.Store(uint32(phaseIdle))
	g.seq.Unlock()
}

// BeginCommit claims the sequential lane for committing the executed
// block and returns its height.
func (g *Guard) BeginCommit() uint64 {
	g.seq.Lock()
	if p := g.current(); p != phaseExecuted {
		g.seq.Unlock()
		panic(fmt.Sprintf("quadgov: Commit while %s", p))
	}
	g.phase.Store(uint32(phaseCommitting))
	return g.pending
}

// EndCommit advances the committed height when the commit succeeded
// and returns the guard to idle.
func (g *Guard) EndCommit(ok bool) {
	if ok {
		g.committed.Store(g.pending)
	}
	g.pending = 0
	g.phase.Store(uint32(phaseIdle))
	g.seq.Unlock()
}

// RequireStarted panics unless the handshake has completed. Reads may
// run in any phase after that.
func (g *Guard) RequireStarted() {
	if !g.started.Load() {
		panic("quadgov: call before Handshake completed")
	}
}
