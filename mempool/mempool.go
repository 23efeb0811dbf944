// mempool/mempool.go
package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"stakeledger/blockchain"
	"stakeledger/utils"
)

var _ blockchain.MempoolItem = (*blockchain.Transaction)(nil)

// ErrDuplicateTransaction is returned for a transaction that is already pooled or committed.
var ErrDuplicateTransaction = errors.New("duplicate transaction")

// CommittedChecker reports whether a transaction is already part of the chain.
type CommittedChecker interface {
	TransactionExists(transaction *blockchain.Transaction) bool
}

// Mempool holds pending transactions until a forger includes them in a block
type Mempool struct {
	items   map[string]*blockchain.Transaction
	chain   CommittedChecker
	mutex   sync.RWMutex
	maxSize int
}

// NewMempool creates a new mempool. chain may be nil, in which case only
// pooled duplicates are rejected. maxSize <= 0 means unbounded.
func NewMempool(chain CommittedChecker, maxSize int) *Mempool {
	return &Mempool{
		items:   make(map[string]*blockchain.Transaction),
		chain:   chain,
		maxSize: maxSize,
	}
}

/**
 * AddTransaction validates a transaction and adds it to the pool.
 *
 * Parameters:
 *   - tx: The transaction to pool
 *
 * Returns:
 *   - error: Validation error, ErrDuplicateTransaction, or a full-pool error
 */
func (mp *Mempool) AddTransaction(tx *blockchain.Transaction) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	if mp.chain != nil && mp.chain.TransactionExists(tx) {
		return fmt.Errorf("%w: %s is already committed", ErrDuplicateTransaction, tx.GetID())
	}

	mp.mutex.Lock()
	defer mp.mutex.Unlock()

	if _, exists := mp.items[tx.GetID()]; exists {
		return fmt.Errorf("%w: %s is already pooled", ErrDuplicateTransaction, tx.GetID())
	}
	if mp.maxSize > 0 && len(mp.items) >= mp.maxSize {
		return fmt.Errorf("mempool is full (%d transactions)", mp.maxSize)
	}
	mp.items[tx.GetID()] = tx
	utils.LogDebug("Pooled transaction %s (%s %v)", tx.GetID(), tx.Type, tx.Amount)
	return nil
}

// GetTransaction retrieves a pooled transaction by id
func (mp *Mempool) GetTransaction(id string) (*blockchain.Transaction, bool) {
	mp.mutex.RLock()
	defer mp.mutex.RUnlock()

	tx, exists := mp.items[id]
	return tx, exists
}

// RemoveProcessed drops transactions that were included in a block
func (mp *Mempool) RemoveProcessed(transactions []*blockchain.Transaction) {
	mp.mutex.Lock()
	defer mp.mutex.Unlock()

	for _, tx := range transactions {
		delete(mp.items, tx.GetID())
	}
}

// GetPendingTransactions returns up to limit pooled transactions, oldest first,
// ties broken by id. limit <= 0 returns all of them.
func (mp *Mempool) GetPendingTransactions(limit int) []*blockchain.Transaction {
	mp.mutex.RLock()
	result := make([]*blockchain.Transaction, 0, len(mp.items))
	for _, tx := range mp.items {
		result = append(result, tx)
	}
	mp.mutex.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp != result[j].Timestamp {
			return result[i].Timestamp < result[j].Timestamp
		}
		return result[i].ID < result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// GetSize returns the number of pooled transactions
func (mp *Mempool) GetSize() int {
	mp.mutex.RLock()
	defer mp.mutex.RUnlock()

	return len(mp.items)
}

// Clear removes every pooled transaction
func (mp *Mempool) Clear() {
	mp.mutex.Lock()
	defer mp.mutex.Unlock()

	mp.items = make(map[string]*blockchain.Transaction)
}
