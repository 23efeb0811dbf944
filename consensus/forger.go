package consensus

import (
	"context"
	"errors"
	"time"

	"stakeledger/blockchain"
	"stakeledger/utils"
)

/**
 * Forger runs the block-producer loop for one wallet. On every tick it asks
 * the chain for the next forger and, when the slot belongs to the local
 * wallet, creates a block from the pooled transactions.
 */
type Forger struct {
	chain        Chain
	pool         Pool
	builder      blockchain.BlockBuilder
	interval     time.Duration
	roundTimeout time.Duration
}

// NewForger creates a forger. The round deadline defaults to half the interval.
func NewForger(chain Chain, pool Pool, builder blockchain.BlockBuilder, interval time.Duration) *Forger {
	return &Forger{
		chain:        chain,
		pool:         pool,
		builder:      builder,
		interval:     interval,
		roundTimeout: interval / 2,
	}
}

// Run ticks until ctx is cancelled.
func (f *Forger) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	utils.LogInfo("Forger started for %s (interval %s)", f.builder.Address(), f.interval)
	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("Forger stopped")
			return
		case <-ticker.C:
			f.Round(ctx)
		}
	}
}

/**
 * Round performs a single forging attempt.
 *
 * Parameters:
 *   - ctx: Parent context; the writer wait is additionally bounded by the round deadline
 *
 * Returns:
 *   - RoundOutcome: What happened this round
 *   - *blockchain.Block: The forged block when the outcome is OutcomeForged
 */
func (f *Forger) Round(ctx context.Context) (RoundOutcome, *blockchain.Block) {
	outcome, block := f.round(ctx)
	ForgingRounds.WithLabelValues(string(outcome)).Inc()
	return outcome, block
}

func (f *Forger) round(ctx context.Context) (RoundOutcome, *blockchain.Block) {
	forger, err := f.chain.FindNextForger()
	if errors.Is(err, blockchain.ErrNoEligibleForger) {
		utils.LogDebug("No eligible forger, skipping round")
		return OutcomeNoForger, nil
	}
	if err != nil {
		utils.LogError("Forger selection failed: %v", err)
		return OutcomeFailed, nil
	}
	if forger != f.builder.Address() {
		utils.LogDebug("Slot belongs to %s", forger)
		return OutcomeNotSelected, nil
	}

	roundCtx := ctx
	if f.roundTimeout > 0 {
		var cancel context.CancelFunc
		roundCtx, cancel = context.WithTimeout(ctx, f.roundTimeout)
		defer cancel()
	}

	start := time.Now()
	pending := f.pool.GetPendingTransactions(blockchain.MaxBlockTransactions)
	block, err := f.chain.TryCreateBlock(roundCtx, pending, f.builder)
	if errors.Is(err, blockchain.ErrWriterBusy) {
		utils.LogWarn("Writer busy, skipping forging turn")
		return OutcomeBusy, nil
	}
	if err != nil {
		utils.LogError("Failed to forge block: %v", err)
		return OutcomeFailed, nil
	}
	ForgingDuration.Observe(time.Since(start).Seconds())

	f.pool.RemoveProcessed(block.Transactions)
	utils.LogEvent("block_forged", map[string]interface{}{
		"index":        block.Index,
		"transactions": len(block.Transactions),
		"pending":      len(pending),
	})
	return OutcomeForged, block
}
