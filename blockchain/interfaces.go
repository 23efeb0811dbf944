package blockchain

// MempoolItem interface for items that can be stored in the mempool
type MempoolItem interface {
	GetID() string
	GetTimestamp() string
}

// BlockBuilder assembles and signs a block for the forger. The chain treats its
// output as already well-formed.
type BlockBuilder interface {
	CreateBlock(transactions []*Transaction, previousHash string, index uint64) (*Block, error)
	Address() string
}
