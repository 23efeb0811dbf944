package blockchain

// TransactionType enumerates the kinds of balance movements the ledger executes.
type TransactionType string

const (
	// Transfer moves an amount from sender to receiver, subject to coverage.
	Transfer TransactionType = "TRANSFER"
	// Exchange moves an amount from sender to receiver without a coverage check.
	Exchange TransactionType = "EXCHANGE"
	// Stake locks an amount of the sender's balance as forging stake.
	Stake TransactionType = "STAKE"
)

const (
	// GenesisPreviousHash is the fixed previous hash of the genesis block.
	GenesisPreviousHash = "genesisHash"
	// GenesisForger is the placeholder forger of the genesis block.
	GenesisForger = "genesis"
	// MaxBlockTransactions caps how many pooled transactions a forger packs into one block.
	MaxBlockTransactions = 100
)
