package types

// TxOutcome is the result of executing a single call.
type TxOutcome struct {
	// Position of this tx in the block (0-indexed).
	Index uint32 `cramberry:"1"`
	// Governance result code. 0 = success, otherwise the rejection kind.
	Code uint32 `cramberry:"2"`
	// Human-readable result info (non-deterministic, for debugging).
	Info string `cramberry:"3"`
	// Cramberry-encoded result of the call (deterministic).
	Data []byte `cramberry:"4"`
	// Events emitted by this call.
	Events []Event `cramberry:"5"`
}

// OK returns true if the call was applied.
func (t TxOutcome) OK() bool { return t.Code == 0 }

// BlockOutcome is the output of executing a finalized block of calls.
type BlockOutcome struct {
	// Per-call results, in block order.
	TxOutcomes []TxOutcome `cramberry:"1"`
	// Block-level events.
	BlockEvents []Event `cramberry:"2"`
	// New governance state root after this block.
	AppHash AppHash `cramberry:"3"`
}

// FinalizedBlock is a decided block delivered for execution. Its
// height is the time counter every call in the block observes.
type FinalizedBlock struct {
	Height        uint64    `cramberry:"1"`
	Time          Timestamp `cramberry:"2"`
	Txs           []Tx      `cramberry:"3"`
	LastBlockHash Hash      `cramberry:"4"`
}

// CommitResult is returned after staged state becomes committed.
type CommitResult struct {
	// Minimum height still needed for queries. 0 = no pruning preference.
	RetainHeight uint64 `cramberry:"1"`
}
