package wallet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakeledger/blockchain"
	"stakeledger/utils"
)

func init() {
	utils.InitLogger(false, true)
}

func TestLoadWalletCreatesAndReloads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")

	first, err := LoadWallet(dir, "correct horse")
	require.NoError(t, err)
	require.Len(t, first.Address(), 64)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadWallet(dir, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, first.Address(), second.Address())
}

func TestLoadWalletWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadWallet(dir, "one")
	require.NoError(t, err)

	_, err = LoadWallet(dir, "two")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeystoreCorrupt))
}

func TestLoadWalletRejectsEmptyArguments(t *testing.T) {
	_, err := LoadWallet("", "pass")
	assert.Error(t, err)
	_, err = LoadWallet(t.TempDir(), "")
	assert.Error(t, err)
}

func TestLoadWalletTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("short"), 0600))

	_, err := LoadWallet(dir, "pass")
	assert.ErrorIs(t, err, ErrKeystoreCorrupt)
}

func TestCreateTransactionIsSigned(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)

	tx, err := w.CreateTransaction("receiver", 12.5, blockchain.Transfer)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), tx.SenderKey)
	assert.Equal(t, "receiver", tx.ReceiverKey)
	assert.True(t, Verify(w.Address(), tx.Payload(), tx.Signature))

	_, err = w.CreateTransaction("receiver", 1, blockchain.TransactionType("MINT"))
	assert.ErrorIs(t, err, blockchain.ErrUnknownTransactionType)
}

func TestCreateBlockIsSignedByForger(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)

	block, err := w.CreateBlock(nil, "prev", 4)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), block.Forger)
	assert.Equal(t, uint64(4), block.Index)
	assert.Equal(t, "prev", block.PreviousHash)
	assert.True(t, Verify(w.Address(), block.Payload(), block.Signature))

	other, err := NewWallet()
	require.NoError(t, err)
	assert.False(t, Verify(other.Address(), block.Payload(), block.Signature))
	assert.False(t, Verify("not-hex", block.Payload(), block.Signature))
}

func TestWalletForgesOnChain(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)

	bc := blockchain.NewBlockchain()
	bc.ApplyGenesisAllocations(map[string]float64{w.Address(): 50}, map[string]float64{w.Address(): 1})

	forger, err := bc.FindNextForger()
	require.NoError(t, err)
	require.Equal(t, w.Address(), forger)

	tx, err := w.CreateTransaction("bob", 20, blockchain.Transfer)
	require.NoError(t, err)
	block, err := bc.CreateBlock([]*blockchain.Transaction{tx}, w)
	require.NoError(t, err)

	assert.Equal(t, 2, bc.GetLength())
	assert.Equal(t, w.Address(), block.Forger)
	assert.Equal(t, 30.0, bc.GetBalance(w.Address()))
	assert.Equal(t, 20.0, bc.GetBalance("bob"))
}
