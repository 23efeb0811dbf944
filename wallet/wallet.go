package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stakeledger/blockchain"
	"stakeledger/utils"
)

// Signer signs payloads and names the identity behind the key.
type Signer interface {
	Sign(data []byte) ([]byte, error)
	PublicKey() []byte
	Address() string
}

/**
 * Wallet holds a node's ed25519 key pair. Its address (the hex-encoded public
 * key) is the identity used in the account model and the stake table.
 */
type Wallet struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	address    string
}

var (
	_ Signer                  = (*Wallet)(nil)
	_ blockchain.BlockBuilder = (*Wallet)(nil)
)

// NewWallet generates an ephemeral key pair that is never written to disk.
func NewWallet() (*Wallet, error) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return fromPrivateKey(privateKey), nil
}

/**
 * LoadWallet opens the encrypted key file in keyDir, creating a fresh key
 * pair on first use.
 *
 * Parameters:
 *   - keyDir: Directory holding node_key.enc
 *   - passphrase: Passphrase the key file is sealed with
 *
 * Returns:
 *   - *Wallet: The loaded or newly created wallet
 *   - error: Wraps ErrKeystoreCorrupt when the file cannot be decrypted
 */
func LoadWallet(keyDir string, passphrase string) (*Wallet, error) {
	if keyDir == "" {
		return nil, errors.New("key directory cannot be empty")
	}
	if passphrase == "" {
		return nil, errors.New("passphrase cannot be empty")
	}

	keyPath := filepath.Join(keyDir, keyFileName)
	if _, err := os.Stat(keyPath); errors.Is(err, os.ErrNotExist) {
		w, err := NewWallet()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(keyDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create key directory %s: %w", keyDir, err)
		}
		if err := sealKey(keyPath, w.privateKey, passphrase); err != nil {
			return nil, err
		}
		utils.LogInfo("Generated new wallet %s at %s", w.address, keyPath)
		return w, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat key file %s: %w", keyPath, err)
	}

	privateKey, err := openKey(keyPath, passphrase)
	if err != nil {
		return nil, err
	}
	w := fromPrivateKey(privateKey)
	utils.LogInfo("Loaded wallet %s from %s", w.address, keyPath)
	return w, nil
}

func fromPrivateKey(privateKey ed25519.PrivateKey) *Wallet {
	publicKey := privateKey.Public().(ed25519.PublicKey)
	return &Wallet{
		privateKey: privateKey,
		publicKey:  publicKey,
		address:    hex.EncodeToString(publicKey),
	}
}

// Sign signs data with the wallet's private key.
func (w *Wallet) Sign(data []byte) ([]byte, error) {
	if w.privateKey == nil {
		return nil, errors.New("private key is not initialized")
	}
	return ed25519.Sign(w.privateKey, data), nil
}

// PublicKey returns the raw public key.
func (w *Wallet) PublicKey() []byte {
	return w.publicKey
}

// Address returns the hex-encoded public key.
func (w *Wallet) Address() string {
	return w.address
}

// CreateTransaction builds and signs a transaction sent from this wallet.
func (w *Wallet) CreateTransaction(receiver string, amount float64, txType blockchain.TransactionType) (*blockchain.Transaction, error) {
	tx, err := blockchain.NewTransaction(w.address, receiver, amount, txType)
	if err != nil {
		return nil, err
	}
	signature, err := w.Sign(tx.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	tx.Signature = hex.EncodeToString(signature)
	return tx, nil
}

/**
 * CreateBlock assembles a block forged by this wallet and signs its payload.
 *
 * Parameters:
 *   - transactions: Covered transactions, in execution order
 *   - previousHash: Hash of the last block's payload
 *   - index: Position of the new block
 *
 * Returns:
 *   - *blockchain.Block: The signed block
 */
func (w *Wallet) CreateBlock(transactions []*blockchain.Transaction, previousHash string, index uint64) (*blockchain.Block, error) {
	block := blockchain.NewBlock(transactions, previousHash, w.address, index)
	signature, err := w.Sign(block.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to sign block %d: %w", index, err)
	}
	block.Signature = hex.EncodeToString(signature)
	return block, nil
}

// Verify checks a hex signature over payload against a hex-encoded public key.
func Verify(address string, payload []byte, signature string) bool {
	publicKey, err := hex.DecodeString(address)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), payload, sig)
}
