package types

// MempoolContext tells the application whether a call is being
// seen for the first time or re-validated after a commit.
type MempoolContext uint8

const (
	// MempoolFirstSeen indicates the call was just received.
	MempoolFirstSeen MempoolContext = 1
	// MempoolRevalidation indicates the call is being re-checked
	// after state changed.
	MempoolRevalidation MempoolContext = 2
)

// GateVerdict is the decision on whether a call may enter the mempool.
type GateVerdict struct {
	// 0 = accepted. Non-zero = rejected.
	Code uint32 `cramberry:"1"`
	// Rejection reason (debugging only, non-deterministic).
	Info string `cramberry:"2"`
	// Priority for ordering within the mempool. Higher = first.
	Priority int64 `cramberry:"3"`
	// Caller identity, for same-sender sequencing.
	Sender string `cramberry:"4"`
}

// Accepted returns true if the call was admitted.
func (v GateVerdict) Accepted() bool { return v.Code == 0 }
