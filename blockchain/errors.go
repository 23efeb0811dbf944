package blockchain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTransactionType is returned for a transaction type outside the enum.
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	// ErrNegativeAmount is returned for a transaction with amount < 0.
	ErrNegativeAmount = errors.New("transaction amount must not be negative")
	// ErrNilTransaction is returned for a missing transaction, such as a JSON null inside a block.
	ErrNilTransaction = errors.New("transaction is nil")
	// ErrNoEligibleForger is returned when the stake table holds no positive stake.
	ErrNoEligibleForger = errors.New("no eligible forger")
	// ErrWriterBusy is returned when the chain writer slot could not be acquired in time.
	ErrWriterBusy = errors.New("chain writer busy")
)

// Block predicates reported by BlockRejectedError.
const (
	PredicateBlockCount    = "blockCount"
	PredicateLastBlockHash = "lastBlockHash"
	PredicateForger        = "forger"
	PredicateTransactions  = "transactions"
)

// BlockRejectedError reports which admission predicate a candidate block failed.
type BlockRejectedError struct {
	Index     uint64
	Predicate string
}

func (e *BlockRejectedError) Error() string {
	return fmt.Sprintf("block %d rejected: %s check failed", e.Index, e.Predicate)
}
