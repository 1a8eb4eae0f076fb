package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/echosoul/echosoul/internal/crypto"
)

const testSecret = "process-secret-for-tests"

func newCipher(t *testing.T, userID string) *crypto.Cipher {
	t.Helper()
	c, err := crypto.New(userID, testSecret)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	c := newCipher(t, "user-a")
	plaintext := []byte("a private memory nobody else should read")

	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext should not equal plaintext")
	}

	recovered, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	if !bytes.Equal(recovered, plaintext) {
		t.Errorf("recovered %q, want %q", recovered, plaintext)
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c := newCipher(t, "user-a")
	plaintext := []byte("same plaintext")

	c1, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("first Encrypt: %v", err)
	}

	c2, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("second Encrypt: %v", err)
	}

	// Random nonce means ciphertexts should differ
	if bytes.Equal(c1, c2) {
		t.Error("two encryptions of same plaintext produced identical ciphertext (nonce not random)")
	}
}

func TestDecrypt_DifferentUserFails(t *testing.T) {
	a := newCipher(t, "user-a")
	b := newCipher(t, "user-b")

	ciphertext, err := a.Encrypt([]byte("secret X"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	_, err = b.Decrypt(ciphertext)
	if !errors.Is(err, crypto.ErrDecryption) {
		t.Fatalf("expected ErrDecryption for a key derived from another user, got %v", err)
	}
}

func TestDecrypt_DifferentSecretFails(t *testing.T) {
	a := newCipher(t, "user-a")

	other, err := crypto.New("user-a", "a-different-process-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ciphertext, err := a.Encrypt([]byte("secret X"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := other.Decrypt(ciphertext); !errors.Is(err, crypto.ErrDecryption) {
		t.Fatalf("expected ErrDecryption for a key derived from another secret, got %v", err)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	c := newCipher(t, "user-a")

	ciphertext, err := c.Encrypt([]byte("tamper test"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// Flip a byte in the ciphertext body (after nonce)
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := c.Decrypt(ciphertext); !errors.Is(err, crypto.ErrDecryption) {
		t.Fatalf("expected ErrDecryption for tampered ciphertext, got %v", err)
	}
}

func TestDecrypt_TooShort(t *testing.T) {
	c := newCipher(t, "user-a")
	if _, err := c.Decrypt([]byte("short")); !errors.Is(err, crypto.ErrDecryption) {
		t.Fatalf("expected ErrDecryption for too-short ciphertext, got %v", err)
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	k1 := crypto.DeriveKey("user-a", testSecret)
	k2 := crypto.DeriveKey("user-a", testSecret)
	if !bytes.Equal(k1, k2) {
		t.Error("derivation should be deterministic for the same user and secret")
	}

	k3 := crypto.DeriveKey("user-b", testSecret)
	if bytes.Equal(k1, k3) {
		t.Error("different users must derive different keys")
	}
}

func TestEncryptDecrypt_EmptyPlaintext(t *testing.T) {
	c := newCipher(t, "user-a")

	ciphertext, err := c.Encrypt([]byte{})
	if err != nil {
		t.Fatalf("Encrypt empty: %v", err)
	}

	recovered, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt empty: %v", err)
	}

	if len(recovered) != 0 {
		t.Errorf("expected empty plaintext, got %q", recovered)
	}
}
