// Package crypto protects replica key shares at rest with AES-256-GCM
// envelope encryption: each sealed payload gets its own data key, wrapped
// by a master key held in a KMS.
package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// KMS wraps and unwraps per-payload data keys under a master key.
type KMS interface {
	GenerateDataKey(ctx context.Context, keyID string) (plaintext, ciphertext []byte, err error)
	Decrypt(ctx context.Context, ciphertext []byte, keyID string) ([]byte, error)
	KeyID() string
}

// LocalKMS holds the master key in process memory. It serves development
// and single-host deployments; hosted KMS backends implement the same
// interface.
type LocalKMS struct {
	master []byte
}

// NewLocalKMS builds a KMS from a hex-encoded 32-byte master key.
func NewLocalKMS(masterHex string) (*LocalKMS, error) {
	master, err := hex.DecodeString(masterHex)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(master) != 32 {
		return nil, fmt.Errorf("master key: want 32 bytes, got %d", len(master))
	}
	return &LocalKMS{master: master}, nil
}

// KeyID identifies the local master key.
func (l *LocalKMS) KeyID() string { return "local" }

// GenerateDataKey returns a fresh 32-byte data key and the same key
// wrapped under the master key.
func (l *LocalKMS) GenerateDataKey(_ context.Context, keyID string) ([]byte, []byte, error) {
	if keyID != l.KeyID() {
		return nil, nil, fmt.Errorf("unknown key id %q", keyID)
	}
	plaintext := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, plaintext); err != nil {
		return nil, nil, fmt.Errorf("generate data key: %w", err)
	}
	ciphertext, err := l.wrap(plaintext)
	if err != nil {
		return nil, nil, err
	}
	return plaintext, ciphertext, nil
}

// Decrypt unwraps a data key.
func (l *LocalKMS) Decrypt(_ context.Context, ciphertext []byte, keyID string) ([]byte, error) {
	if keyID != l.KeyID() {
		return nil, fmt.Errorf("unknown key id %q", keyID)
	}
	gcm, err := l.gcm()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("wrapped key too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap data key: %w", err)
	}
	return plaintext, nil
}

func (l *LocalKMS) wrap(plaintext []byte) ([]byte, error) {
	gcm, err := l.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return append(nonce, gcm.Seal(nil, nonce, plaintext, nil)...), nil
}

func (l *LocalKMS) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(l.master)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
