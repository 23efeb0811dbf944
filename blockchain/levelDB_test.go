package blockchain

import (
	"testing"
)

func TestInitializeBlockchainPersistsAndReplays(t *testing.T) {
	dataDir := t.TempDir()
	balances := map[string]float64{"A": 100}
	stakes := map[string]float64{"A": 5}

	bc, db, err := InitializeBlockchain(dataDir, balances, stakes)
	if err != nil {
		t.Fatalf("InitializeBlockchain failed: %v", err)
	}
	if bc.GetBalance("A") != 100 || bc.GetStake("A") != 5 {
		t.Fatalf("Genesis allocations not applied")
	}

	builder := &stubBuilder{address: "A"}
	for _, amount := range []float64{10, 20} {
		if _, err := bc.CreateBlock([]*Transaction{mustTx(t, "A", "B", amount, Transfer)}, builder); err != nil {
			t.Fatalf("CreateBlock failed: %v", err)
		}
	}
	if _, err := bc.CreateBlock([]*Transaction{mustTx(t, "A", "A", 30, Stake)}, builder); err != nil {
		t.Fatalf("CreateBlock failed: %v", err)
	}
	lastHash := bc.GetLastBlock().Hash()

	height, found, err := db.GetBlockchainHeight()
	if err != nil || !found || height != 3 {
		t.Fatalf("Expected stored height 3, got %d (found=%v, err=%v)", height, found, err)
	}
	stored, err := db.GetBlockByHash(lastHash)
	if err != nil {
		t.Fatalf("GetBlockByHash failed: %v", err)
	}
	if stored.Index != 3 {
		t.Errorf("Expected block 3 by hash, got %d", stored.Index)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	restored, db2, err := InitializeBlockchain(dataDir, balances, stakes)
	if err != nil {
		t.Fatalf("Reopening failed: %v", err)
	}
	defer db2.Close()

	if restored.GetLength() != 4 {
		t.Errorf("Expected 4 blocks after replay, got %d", restored.GetLength())
	}
	if restored.GetLastBlock().Hash() != lastHash {
		t.Errorf("Replayed chain tip differs from the stored one")
	}
	if restored.GetBalance("A") != 40 || restored.GetBalance("B") != 30 || restored.GetStake("A") != 35 {
		t.Errorf("Unexpected replayed state A=%v B=%v stake(A)=%v",
			restored.GetBalance("A"), restored.GetBalance("B"), restored.GetStake("A"))
	}
}

func TestBlockchainDBMissingBlock(t *testing.T) {
	db, err := NewBlockchainDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewBlockchainDB failed: %v", err)
	}
	defer db.Close()

	if _, err := db.GetBlockByIndex(7); err == nil {
		t.Errorf("Expected an error for a missing block")
	}
	blocks, err := db.GetAllBlocks()
	if err != nil || len(blocks) != 0 {
		t.Errorf("Expected an empty store, got %d blocks (err=%v)", len(blocks), err)
	}
}
