package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyFileName     = "node_key.enc"
	saltSize        = 16
	pbkdf2Iteration = 4096
)

// ErrKeystoreCorrupt is returned when the key file cannot be parsed or authenticated.
var ErrKeystoreCorrupt = errors.New("keystore is corrupt or passphrase is wrong")

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iteration, 32, sha256.New)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// sealKey writes salt || nonce || ciphertext to path with owner-only permissions.
func sealKey(path string, privateKey ed25519.PrivateKey, passphrase string) error {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := make([]byte, 0, saltSize+len(nonce)+len(privateKey)+gcm.Overhead())
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = gcm.Seal(sealed, nonce, privateKey, nil)

	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write key file %s: %w", path, err)
	}
	return nil
}

// openKey reads and decrypts a key file written by sealKey.
func openKey(path string, passphrase string) (ed25519.PrivateKey, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	if len(sealed) < saltSize {
		return nil, fmt.Errorf("%w: missing salt", ErrKeystoreCorrupt)
	}
	gcm, err := newGCM(passphrase, sealed[:saltSize])
	if err != nil {
		return nil, err
	}
	nonceEnd := saltSize + gcm.NonceSize()
	if len(sealed) < nonceEnd {
		return nil, fmt.Errorf("%w: missing nonce", ErrKeystoreCorrupt)
	}

	plain, err := gcm.Open(nil, sealed[saltSize:nonceEnd], sealed[nonceEnd:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeystoreCorrupt, err)
	}
	if len(plain) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: unexpected key length %d", ErrKeystoreCorrupt, len(plain))
	}
	return ed25519.PrivateKey(plain), nil
}
