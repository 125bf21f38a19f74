// Package types defines the wire-level data types of the quadgov
// governance engine: blocks and outcomes exchanged with the driving
// engine, the governance records themselves, and the call envelope
// that carries one governance operation per transaction.
//
// These are plain Go structs with cramberry struct tags for
// deterministic binary serialization. Transport concerns
// (gRPC codec registration) are handled in the transport packages.
package types

// Hash is a 32-byte cryptographic hash.
type Hash [32]byte

// AppHash is a deterministic fingerprint of the governance state
// after execution.
type AppHash [32]byte

// Tx is an opaque transaction. The engine never inspects its
// contents; quadgov decodes it as a cramberry-encoded Call.
type Tx []byte

// QueryPath selects a read-only governance query (e.g., "/proposal").
type QueryPath string

// Address is the identity of a caller or authority. It is an opaque
// principal string supplied by the surrounding runtime.
type Address string

// BlockID uniquely identifies a point in the chain.
type BlockID struct {
	Height uint64 `cramberry:"1"`
	Hash   Hash   `cramberry:"2"`
}
