package types

// HandshakeRequest is sent by the engine on every startup.
type HandshakeRequest struct {
	// The last block the ENGINE committed. Nil = genesis (fresh chain).
	LastCommitted *BlockID `cramberry:"1"`
	// Raw genesis document. Only set when LastCommitted is nil.
	Genesis *GenesisDoc `cramberry:"2"`
}

// HandshakeResponse reports the application's committed state and
// capabilities.
type HandshakeResponse struct {
	// The last block the application committed. Nil = no state yet.
	LastBlock *BlockID `cramberry:"1"`
	// App hash at that height.
	AppHash *AppHash `cramberry:"2"`
	// Capabilities this application supports.
	Capabilities Capabilities `cramberry:"3"`
}
