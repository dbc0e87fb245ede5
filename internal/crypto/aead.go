package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// EncryptedData is one sealed payload with its wrapped data key. It
// serializes to JSON for storage next to the plaintext it replaces.
type EncryptedData struct {
	Ciphertext       []byte `json:"ciphertext"`
	EncryptedDataKey []byte `json:"encrypted_data_key"`
	Nonce            []byte `json:"nonce"`
	KeyID            string `json:"key_id"`
	AdditionalData   []byte `json:"additional_data,omitempty"`
}

// AEADEncryptor seals payloads with AES-256-GCM under per-payload data
// keys.
type AEADEncryptor struct {
	kms KMS
}

// NewAEADEncryptor creates an encryptor over the given KMS.
func NewAEADEncryptor(kms KMS) *AEADEncryptor {
	return &AEADEncryptor{kms: kms}
}

// Seal encrypts plaintext under a fresh data key. additionalData is
// authenticated but not encrypted; Open fails if it differs.
func (a *AEADEncryptor) Seal(ctx context.Context, plaintext, additionalData []byte) (*EncryptedData, error) {
	keyID := a.kms.KeyID()
	dataKey, wrappedKey, err := a.kms.GenerateDataKey(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("generate data key: %w", err)
	}

	gcm, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return &EncryptedData{
		Ciphertext:       gcm.Seal(nil, nonce, plaintext, additionalData),
		EncryptedDataKey: wrappedKey,
		Nonce:            nonce,
		KeyID:            keyID,
		AdditionalData:   additionalData,
	}, nil
}

// Open decrypts a sealed payload.
func (a *AEADEncryptor) Open(ctx context.Context, data *EncryptedData) ([]byte, error) {
	dataKey, err := a.kms.Decrypt(ctx, data.EncryptedDataKey, data.KeyID)
	if err != nil {
		return nil, fmt.Errorf("decrypt data key: %w", err)
	}

	gcm, err := newGCM(dataKey)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, data.Nonce, data.Ciphertext, data.AdditionalData)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
