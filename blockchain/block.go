package blockchain

import (
	"encoding/json"
	"time"

	"stakeledger/utils"
)

/**
 * Block represents a single block in the blockchain.
 * It carries its ordinal position, the ordered transactions it commits,
 * the hash of its predecessor's payload and the identity of its forger.
 */
type Block struct {
	Index        uint64         `json:"index"`        // Position of the block in the chain
	Transactions []*Transaction `json:"transactions"` // Ordered transactions executed by this block
	PreviousHash string         `json:"previousHash"` // Hash of the previous block's payload
	Forger       string         `json:"forger"`       // Hex-encoded public key of the forger
	Timestamp    int64          `json:"timestamp"`    // Unix seconds (UTC) when the block was assembled
	Signature    string         `json:"signature"`    // Hex-encoded forger signature over the payload
}

// blockPayload is the hashable projection of a Block.
type blockPayload struct {
	Index        uint64         `json:"index"`
	Transactions []*Transaction `json:"transactions"`
	PreviousHash string         `json:"previousHash"`
	Forger       string         `json:"forger"`
	Timestamp    int64          `json:"timestamp"`
}

/**
 * NewBlock initializes an unsigned block.
 *
 * Parameters:
 *   - transactions: Transactions to include, in execution order
 *   - previousHash: Hash of the last block's payload
 *   - forger: Identity of the block producer
 *   - index: Position of the block in the blockchain
 *
 * Returns:
 *   - A pointer to the newly created block
 */
func NewBlock(transactions []*Transaction, previousHash string, forger string, index uint64) *Block {
	if transactions == nil {
		transactions = []*Transaction{}
	}
	return &Block{
		Index:        index,
		Transactions: transactions,
		PreviousHash: previousHash,
		Forger:       forger,
		Timestamp:    time.Now().UTC().Unix(),
	}
}

// Genesis returns the fixed first block of every chain.
func Genesis() *Block {
	return &Block{
		Index:        0,
		Transactions: []*Transaction{},
		PreviousHash: GenesisPreviousHash,
		Forger:       GenesisForger,
		Timestamp:    0,
	}
}

// Payload returns the canonical bytes of every field except the signature.
func (b *Block) Payload() []byte {
	txs := b.Transactions
	if txs == nil {
		txs = []*Transaction{}
	}
	data, _ := json.Marshal(blockPayload{
		Index:        b.Index,
		Transactions: txs,
		PreviousHash: b.PreviousHash,
		Forger:       b.Forger,
		Timestamp:    b.Timestamp,
	})
	return data
}

// Hash digests the block payload; the next block references it as previousHash.
func (b *Block) Hash() string {
	return utils.Hash(b.Payload())
}

// ToJSON returns the nested serializable projection of the block.
func (b *Block) ToJSON() map[string]any {
	txs := make([]map[string]any, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		txs = append(txs, tx.ToJSON())
	}
	return map[string]any{
		"index":        b.Index,
		"transactions": txs,
		"previousHash": b.PreviousHash,
		"forger":       b.Forger,
		"timestamp":    b.Timestamp,
		"signature":    b.Signature,
	}
}
