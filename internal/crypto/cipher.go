// Package crypto implements the vault cipher: per-user AES-256-GCM
// encryption for memories at rest. Keys are derived deterministically from
// the user identity and a process-wide secret, never stored, and recomputed
// on each handle construction.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

const (
	// nonceSize is the GCM standard nonce size (12 bytes).
	nonceSize = 12
	// keySize is the AES-256 key length (32 bytes).
	keySize = 32
)

// ErrDecryption indicates that a vault blob could not be decrypted with the
// derived key: either the ciphertext is corrupt or the key (user identity or
// process secret) does not match the one used to encrypt.
var ErrDecryption = errors.New("vault decryption failed")

// Cipher encrypts and decrypts vault blobs for one user. It is stateless per
// call and safe for concurrent use; the derived key is read-only after
// construction.
type Cipher struct {
	aead cipher.AEAD
}

// DeriveKey produces the per-user 32-byte key from the user ID and the
// process secret. The derivation is a one-way hash so the secret never
// appears in derived material.
func DeriveKey(userID, secret string) []byte {
	sum := sha256.Sum256([]byte(userID + ":" + secret))
	return sum[:keySize]
}

// New builds a Cipher for the given user.
func New(userID, secret string) (*Cipher, error) {
	return NewWithKey(DeriveKey(userID, secret))
}

// NewWithKey builds a Cipher from a raw 32-byte key.
func NewWithKey(key []byte) (*Cipher, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("key must be exactly %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext into a self-contained ciphertext with the nonce
// prepended: [nonce(12)] + [sealed data].
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Any authentication
// failure, including a key derived for a different user, yields
// ErrDecryption rather than garbage.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return plaintext, nil
}
