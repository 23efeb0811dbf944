package consensus

import (
	"context"

	"stakeledger/blockchain"
)

// RoundOutcome labels the result of one forging round
type RoundOutcome string

const (
	// OutcomeForged means the local wallet produced and appended a block
	OutcomeForged RoundOutcome = "forged"
	// OutcomeNotSelected means another identity holds the slot
	OutcomeNotSelected RoundOutcome = "not_selected"
	// OutcomeNoForger means no identity has positive stake
	OutcomeNoForger RoundOutcome = "no_forger"
	// OutcomeBusy means the writer slot was not acquired before the round deadline
	OutcomeBusy RoundOutcome = "busy"
	// OutcomeFailed means block creation failed
	OutcomeFailed RoundOutcome = "failed"
)

// Chain is the part of the blockchain a forger drives
type Chain interface {
	FindNextForger() (string, error)
	TryCreateBlock(ctx context.Context, pooled []*blockchain.Transaction, builder blockchain.BlockBuilder) (*blockchain.Block, error)
}

// Pool supplies pending transactions and forgets the ones a block included
type Pool interface {
	GetPendingTransactions(limit int) []*blockchain.Transaction
	RemoveProcessed(transactions []*blockchain.Transaction)
}

var _ Chain = (*blockchain.Blockchain)(nil)
