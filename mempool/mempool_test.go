package mempool

import (
	"errors"
	"testing"

	"stakeledger/blockchain"
	"stakeledger/utils"
)

func init() {
	utils.InitLogger(false, true)
}

type fakeChain struct {
	committed map[string]bool
}

func (f *fakeChain) TransactionExists(tx *blockchain.Transaction) bool {
	return f.committed[tx.ID]
}

func tx(id string, ts int64) *blockchain.Transaction {
	return &blockchain.Transaction{ID: id, Type: blockchain.Transfer, SenderKey: "A", ReceiverKey: "B", Amount: 1, Timestamp: ts}
}

func TestAddTransaction(t *testing.T) {
	chain := &fakeChain{committed: map[string]bool{"old": true}}
	mp := NewMempool(chain, 0)

	if err := mp.AddTransaction(tx("1", 10)); err != nil {
		t.Fatalf("AddTransaction failed: %v", err)
	}
	if err := mp.AddTransaction(tx("1", 10)); !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("Expected ErrDuplicateTransaction for pooled tx, got %v", err)
	}
	if err := mp.AddTransaction(tx("old", 1)); !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("Expected ErrDuplicateTransaction for committed tx, got %v", err)
	}

	bad := tx("2", 1)
	bad.Type = blockchain.TransactionType("MINT")
	if err := mp.AddTransaction(bad); !errors.Is(err, blockchain.ErrUnknownTransactionType) {
		t.Errorf("Expected ErrUnknownTransactionType, got %v", err)
	}
	if mp.GetSize() != 1 {
		t.Errorf("Expected 1 pooled transaction, got %d", mp.GetSize())
	}
	if _, ok := mp.GetTransaction("1"); !ok {
		t.Errorf("Expected to find pooled transaction")
	}
}

func TestMempoolCapacity(t *testing.T) {
	mp := NewMempool(nil, 2)
	_ = mp.AddTransaction(tx("a", 1))
	_ = mp.AddTransaction(tx("b", 1))
	if err := mp.AddTransaction(tx("c", 1)); err == nil {
		t.Errorf("Expected a full mempool to reject transactions")
	}
}

func TestGetPendingTransactionsOrder(t *testing.T) {
	mp := NewMempool(nil, 0)
	for _, item := range []*blockchain.Transaction{tx("c", 5), tx("b", 1), tx("a", 5), tx("d", 3)} {
		if err := mp.AddTransaction(item); err != nil {
			t.Fatalf("AddTransaction failed: %v", err)
		}
	}

	pending := mp.GetPendingTransactions(0)
	want := []string{"b", "d", "a", "c"}
	if len(pending) != len(want) {
		t.Fatalf("Expected %d transactions, got %d", len(want), len(pending))
	}
	for i, id := range want {
		if pending[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, pending[i].ID)
		}
	}

	limited := mp.GetPendingTransactions(2)
	if len(limited) != 2 || limited[0].ID != "b" || limited[1].ID != "d" {
		t.Errorf("Unexpected limited result: %v", limited)
	}
}

func TestRemoveProcessedAndClear(t *testing.T) {
	mp := NewMempool(nil, 0)
	a, b := tx("a", 1), tx("b", 2)
	_ = mp.AddTransaction(a)
	_ = mp.AddTransaction(b)

	mp.RemoveProcessed([]*blockchain.Transaction{a})
	if mp.GetSize() != 1 {
		t.Errorf("Expected 1 transaction after removal, got %d", mp.GetSize())
	}
	mp.Clear()
	if mp.GetSize() != 0 {
		t.Errorf("Expected empty mempool after Clear")
	}
}

func TestAddTransactionAgainstChain(t *testing.T) {
	bc := blockchain.NewBlockchain()
	committed := tx("committed", 1)
	if err := bc.AddBlock(blockchain.NewBlock([]*blockchain.Transaction{committed}, bc.GetLastBlock().Hash(), "f", 1)); err != nil {
		t.Fatalf("AddBlock failed: %v", err)
	}

	mp := NewMempool(bc, 0)
	if err := mp.AddTransaction(tx("committed", 1)); !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("Expected committed transaction to be rejected, got %v", err)
	}
}
