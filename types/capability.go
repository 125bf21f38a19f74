package types

// Capabilities is a bitfield declaring which optional interfaces
// the application supports.
type Capabilities uint8

const (
	// CapSimulation marks support for dry-run execution of calls.
	CapSimulation Capabilities = 1 << iota
)

// Has returns true if all bits in cap are set.
func (c Capabilities) Has(cap Capabilities) bool {
	return c&cap == cap
}

// String returns a human-readable representation.
func (c Capabilities) String() string {
	if c.Has(CapSimulation) {
		return "Simulation"
	}
	return "none"
}
