package blockchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stakeledger/utils"
)

/**
 * Blockchain is the single authority over ledger state transitions.
 * It owns the canonical block sequence, the account model and the stake
 * table. Mutations are serialized through one writer slot; the RWMutex
 * keeps readers from observing a block mid-execution.
 */
type Blockchain struct {
	blocks       []*Block      // Ordered, append-only list of blocks
	accountModel *AccountModel // Balances per identity
	pos          *ProofOfStake // Stake per identity and forger selection
	mutex        sync.RWMutex  // Guards blocks and the ledgers against torn reads
	writer       chan struct{} // Writer slot: at most one mutation in flight
	db           *BlockchainDB // Optional persistence, nil for in-memory chains
}

/**
 * NewBlockchain initializes an in-memory blockchain holding only the genesis block.
 *
 * Returns:
 *   - A pointer to the newly created blockchain
 */
func NewBlockchain() *Blockchain {
	return &Blockchain{
		blocks:       []*Block{Genesis()},
		accountModel: NewAccountModel(),
		pos:          NewProofOfStake(),
		writer:       make(chan struct{}, 1),
	}
}

func (bc *Blockchain) acquireWriter(ctx context.Context) error {
	select {
	case bc.writer <- struct{}{}:
		return nil
	default:
	}
	select {
	case bc.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrWriterBusy, ctx.Err())
	}
}

// lockWriter waits for the writer slot without a deadline.
func (bc *Blockchain) lockWriter() {
	bc.writer <- struct{}{}
}

func (bc *Blockchain) releaseWriter() {
	<-bc.writer
}

// AccountModel exposes the balance ledger owned by this chain.
func (bc *Blockchain) AccountModel() *AccountModel {
	return bc.accountModel
}

// ProofOfStake exposes the stake table owned by this chain.
func (bc *Blockchain) ProofOfStake() *ProofOfStake {
	return bc.pos
}

// ApplyGenesisAllocations credits initial balances and stakes before any block is applied.
// Genesis stake is minted; it does not debit the staker's balance.
func (bc *Blockchain) ApplyGenesisAllocations(balances map[string]float64, stakes map[string]float64) {
	bc.lockWriter()
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	for id, amount := range balances {
		bc.accountModel.UpdateBalance(id, amount)
	}
	for id, amount := range stakes {
		bc.pos.Update(id, amount)
	}
	utils.LogInfo("Applied genesis allocations: %d balances, %d stakes", len(balances), len(stakes))
}

/**
 * AddBlock executes the block's transactions and appends it to the chain.
 * It does not check index continuity, hash linkage or forger eligibility;
 * callers must run those predicates first (or use AcceptBlock).
 *
 * Parameters:
 *   - block: The block to execute and append
 *
 * Returns:
 *   - error: Non-nil when a transaction is malformed or persistence fails; the chain is left untouched
 */
func (bc *Blockchain) AddBlock(block *Block) error {
	bc.lockWriter()
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return bc.addBlockLocked(block)
}

func (bc *Blockchain) addBlockLocked(block *Block) error {
	if block == nil {
		return errors.New("block cannot be nil")
	}
	if err := validateTransactions(block); err != nil {
		return err
	}
	if bc.db != nil {
		if err := bc.db.SaveBlock(block); err != nil {
			return fmt.Errorf("failed to persist block %d: %w", block.Index, err)
		}
	}
	bc.commitLocked(block)
	return nil
}

func validateTransactions(block *Block) error {
	for i, tx := range block.Transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d in block %d: %w", i, block.Index, err)
		}
	}
	return nil
}

// commitLocked executes and appends a block whose transactions were already checked.
func (bc *Blockchain) commitLocked(block *Block) {
	for _, tx := range block.Transactions {
		// types were validated by the caller
		_ = bc.executeTransactionLocked(tx)
	}
	bc.blocks = append(bc.blocks, block)

	BlocksAppended.Inc()
	ChainHeight.Set(float64(block.Index))
	utils.LogDebug("Block %d appended (forger %s, %d transactions)", block.Index, block.Forger, len(block.Transactions))
}

/**
 * AcceptBlock runs the receiving-node admission sequence atomically:
 * block count, last block hash, forger and transaction coverage, then AddBlock.
 *
 * Parameters:
 *   - ctx: Bounds the wait for the writer slot
 *   - block: The candidate block
 *
 * Returns:
 *   - error: *BlockRejectedError when a predicate fails, ErrWriterBusy on timeout,
 *     or a wrapped ErrNilTransaction/ErrUnknownTransactionType/ErrNegativeAmount for a malformed transaction
 */
func (bc *Blockchain) AcceptBlock(ctx context.Context, block *Block) error {
	if block == nil {
		return errors.New("block cannot be nil")
	}
	if err := bc.acquireWriter(ctx); err != nil {
		return err
	}
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	if err := validateTransactions(block); err != nil {
		return err
	}

	predicate := ""
	switch {
	case !bc.blockCountValid(block):
		predicate = PredicateBlockCount
	case !bc.lastBlockHashValid(block):
		predicate = PredicateLastBlockHash
	case !bc.forgerValid(block):
		predicate = PredicateForger
	case !bc.transactionsValid(block.Transactions):
		predicate = PredicateTransactions
	}
	if predicate != "" {
		BlocksRejected.WithLabelValues(predicate).Inc()
		utils.LogInfo("Rejected block %d from forger %s: %s check failed", block.Index, block.Forger, predicate)
		return &BlockRejectedError{Index: block.Index, Predicate: predicate}
	}
	return bc.addBlockLocked(block)
}

// BlockCountValid reports whether block.Index directly follows the last block.
func (bc *Blockchain) BlockCountValid(block *Block) bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.blockCountValid(block)
}

func (bc *Blockchain) blockCountValid(block *Block) bool {
	return bc.lastBlock().Index+1 == block.Index
}

// LastBlockHashValid reports whether block.PreviousHash matches the hash of the last block's payload.
func (bc *Blockchain) LastBlockHashValid(block *Block) bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.lastBlockHashValid(block)
}

func (bc *Blockchain) lastBlockHashValid(block *Block) bool {
	return bc.lastBlock().Hash() == block.PreviousHash
}

// ForgerValid reports whether block.Forger is the forger selected for the block's
// claimed previous hash. Pair it with LastBlockHashValid, since the seed is taken
// from the block itself.
func (bc *Blockchain) ForgerValid(block *Block) bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.forgerValid(block)
}

func (bc *Blockchain) forgerValid(block *Block) bool {
	forger, err := bc.pos.GetForger(block.PreviousHash)
	if err != nil {
		utils.LogDebug("Forger check for block %d: %v", block.Index, err)
		return false
	}
	return forger == block.Forger
}

// GetCoveredTransactions returns, in input order, the transactions the sender's
// current balance covers. Uncovered transactions are dropped with a diagnostic.
func (bc *Blockchain) GetCoveredTransactions(transactions []*Transaction) []*Transaction {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.getCoveredTransactions(transactions)
}

func (bc *Blockchain) getCoveredTransactions(transactions []*Transaction) []*Transaction {
	covered := make([]*Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if bc.transactionCovered(tx) {
			covered = append(covered, tx)
			continue
		}
		TransactionsUncovered.Inc()
		if tx == nil {
			utils.LogInfo("Dropping nil transaction")
			continue
		}
		utils.LogInfo("Transaction %s is not covered by sender %s", tx.ID, tx.SenderKey)
	}
	return covered
}

// TransactionCovered reports whether the sender can afford the transaction.
// EXCHANGE transactions are always covered.
func (bc *Blockchain) TransactionCovered(transaction *Transaction) bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.transactionCovered(transaction)
}

func (bc *Blockchain) transactionCovered(transaction *Transaction) bool {
	if transaction == nil {
		return false
	}
	if transaction.Type == Exchange {
		return true
	}
	return bc.accountModel.GetBalance(transaction.SenderKey) >= transaction.Amount
}

// TransactionsValid reports whether every proposed transaction is covered.
func (bc *Blockchain) TransactionsValid(transactions []*Transaction) bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.transactionsValid(transactions)
}

func (bc *Blockchain) transactionsValid(transactions []*Transaction) bool {
	return len(bc.getCoveredTransactions(transactions)) == len(transactions)
}

// ExecuteTransactions applies each transaction in order. No transaction is applied
// when any of them is nil, has an unknown type or a negative amount.
func (bc *Blockchain) ExecuteTransactions(transactions []*Transaction) error {
	for i, tx := range transactions {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	bc.lockWriter()
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	for _, tx := range transactions {
		_ = bc.executeTransactionLocked(tx)
	}
	return nil
}

// ExecuteTransaction applies one transaction to the account model and stake table.
func (bc *Blockchain) ExecuteTransaction(transaction *Transaction) error {
	if transaction == nil {
		return ErrNilTransaction
	}
	bc.lockWriter()
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()
	return bc.executeTransactionLocked(transaction)
}

func (bc *Blockchain) executeTransactionLocked(tx *Transaction) error {
	switch tx.Type {
	case Stake:
		if tx.SenderKey != tx.ReceiverKey {
			utils.LogDebug("Ignoring stake transaction %s: sender %s differs from receiver %s", tx.ID, tx.SenderKey, tx.ReceiverKey)
			return nil
		}
		bc.pos.Update(tx.SenderKey, tx.Amount)
		bc.accountModel.UpdateBalance(tx.SenderKey, -tx.Amount)
	case Transfer, Exchange:
		bc.accountModel.UpdateBalance(tx.SenderKey, -tx.Amount)
		bc.accountModel.UpdateBalance(tx.ReceiverKey, tx.Amount)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransactionType, string(tx.Type))
	}
	TransactionsExecuted.WithLabelValues(string(tx.Type)).Inc()
	return nil
}

// FindNextForger selects the forger of the next block from the last block's hash.
func (bc *Blockchain) FindNextForger() (string, error) {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.pos.GetForger(bc.lastBlock().Hash())
}

/**
 * CreateBlock is the block-producer path: it filters pooled transactions to the
 * covered ones, has the forger's builder assemble and sign the block, then
 * executes and appends it without further validation.
 *
 * Parameters:
 *   - pooledTransactions: Candidate transactions from the pool
 *   - forgerWallet: Builder that packages and signs the block
 *
 * Returns:
 *   - *Block: The appended block
 *   - error: Builder or persistence failure; the chain is unchanged in that case
 */
func (bc *Blockchain) CreateBlock(pooledTransactions []*Transaction, forgerWallet BlockBuilder) (*Block, error) {
	return bc.TryCreateBlock(context.Background(), pooledTransactions, forgerWallet)
}

// TryCreateBlock is CreateBlock bounded by ctx while waiting for the writer slot.
// It returns ErrWriterBusy when the slot is not acquired in time, so the forger can skip its turn.
func (bc *Blockchain) TryCreateBlock(ctx context.Context, pooledTransactions []*Transaction, forgerWallet BlockBuilder) (*Block, error) {
	if forgerWallet == nil {
		return nil, errors.New("forger wallet cannot be nil")
	}
	if err := bc.acquireWriter(ctx); err != nil {
		return nil, err
	}
	defer bc.releaseWriter()
	bc.mutex.Lock()
	defer bc.mutex.Unlock()

	covered := bc.getCoveredTransactions(pooledTransactions)
	newBlock, err := forgerWallet.CreateBlock(covered, bc.lastBlock().Hash(), uint64(len(bc.blocks)))
	if err != nil {
		return nil, fmt.Errorf("forger failed to create block: %w", err)
	}
	if newBlock == nil {
		return nil, errors.New("forger returned a nil block")
	}
	if err := bc.addBlockLocked(newBlock); err != nil {
		return nil, err
	}
	utils.LogInfo("Forged block %d with %d of %d pooled transactions", newBlock.Index, len(covered), len(pooledTransactions))
	return newBlock, nil
}

// TransactionExists scans every committed block for a structurally equal transaction.
func (bc *Blockchain) TransactionExists(transaction *Transaction) bool {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	for _, block := range bc.blocks {
		for _, tx := range block.Transactions {
			if transaction.Equals(tx) {
				return true
			}
		}
	}
	return false
}

// ToJSON returns {"blocks": [...]} for inspection and persistence layers.
func (bc *Blockchain) ToJSON() map[string]any {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	blocks := make([]map[string]any, 0, len(bc.blocks))
	for _, block := range bc.blocks {
		blocks = append(blocks, block.ToJSON())
	}
	return map[string]any{"blocks": blocks}
}

func (bc *Blockchain) lastBlock() *Block {
	return bc.blocks[len(bc.blocks)-1]
}

/**
 * GetLength returns the number of blocks in the blockchain.
 *
 * Returns:
 *   - int: Length of the blockchain
 */
func (bc *Blockchain) GetLength() int {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return len(bc.blocks)
}

// GetLastBlock returns the most recent block in the blockchain.
func (bc *Blockchain) GetLastBlock() *Block {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.lastBlock()
}

// GetBlocks returns a copy of the block sequence.
func (bc *Blockchain) GetBlocks() []*Block {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	out := make([]*Block, len(bc.blocks))
	copy(out, bc.blocks)
	return out
}

// GetBlockByIndex returns the block at index, if present.
func (bc *Blockchain) GetBlockByIndex(index uint64) (*Block, bool) {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	if index >= uint64(len(bc.blocks)) {
		return nil, false
	}
	return bc.blocks[index], true
}

// GetBalance returns an identity's balance consistently with committed blocks.
func (bc *Blockchain) GetBalance(identity string) float64 {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.accountModel.GetBalance(identity)
}

// GetStake returns an identity's stake consistently with committed blocks.
func (bc *Blockchain) GetStake(identity string) float64 {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.pos.GetStake(identity)
}

// Accounts returns a snapshot of every balance.
func (bc *Blockchain) Accounts() map[string]float64 {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.accountModel.Accounts()
}

// Stakers returns a snapshot of the stake table.
func (bc *Blockchain) Stakers() map[string]float64 {
	bc.mutex.RLock()
	defer bc.mutex.RUnlock()
	return bc.pos.Stakers()
}
