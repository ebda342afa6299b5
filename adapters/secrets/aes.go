// Package secrets provides encryption for seller credentials at rest.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"github.com/Heht571/LLMRouter/ports"
)

// AESGCM seals secrets with AES-256-GCM. The key is derived from the
// configured master secret with SHA-256 so operators can supply a
// passphrase of any length.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates a cipher from the master secret.
func NewAESGCM(masterSecret string) (*AESGCM, error) {
	if masterSecret == "" {
		return nil, errors.New("master secret is empty")
	}
	key := sha256.Sum256([]byte(masterSecret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// Seal encrypts a plaintext secret. The nonce is prepended to the ciphertext.
func (c *AESGCM) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open decrypts a sealed secret.
func (c *AESGCM) Open(ciphertext []byte) (string, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:c.aead.NonceSize()], ciphertext[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Ensure interface compliance.
var _ ports.SecretCipher = (*AESGCM)(nil)
