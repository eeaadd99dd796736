// Package crypto provides the symmetric cipher used to protect access tokens
// at rest. One process-wide key is loaded at startup and injected wherever
// encryption is needed; it is never re-read per call.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when a ciphertext cannot be opened, either because
// it was produced under a different key or because it is corrupt. Callers
// must surface it; retrying cannot succeed.
var ErrDecrypt = errors.New("decrypt token")

// KeySize is the required key length for AES-256-GCM.
const KeySize = 32

// TokenCipher encrypts and decrypts access tokens with AES-256-GCM.
// The ciphertext layout is nonce || ciphertext || tag.
type TokenCipher struct {
	aead cipher.AEAD
}

// NewTokenCipher creates a TokenCipher from a 32-byte key. Key validation
// happens here, once, so a malformed key fails the process at startup rather
// than surfacing per call.
func NewTokenCipher(key []byte) (*TokenCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &TokenCipher{aead: aead}, nil
}

// Encrypt encrypts a plaintext token into an opaque blob.
func (c *TokenCipher) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends to nonce, producing: nonce || ciphertext || tag.
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Decrypt reverses Encrypt. Any tampering, truncation, or key mismatch
// yields an error wrapping ErrDecrypt.
func (c *TokenCipher) Decrypt(blob []byte) (string, error) {
	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}
