// Package crypto implements at-rest encryption of credential secrets.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"conduit/config"
	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
)

const (
	keySize = 32
	ivSize  = 16
	tagSize = 16
)

// aesGCMCipher implements service.Cipher with AES-256-GCM and a 16-byte IV.
type aesGCMCipher struct {
	aead cipher.AEAD
}

// NewCipher builds the process-wide cipher from configuration.
func NewCipher(cfg *config.Config) (service.Cipher, error) {
	return NewAESGCMCipher(cfg.Encryption.Key)
}

// NewAESGCMCipher builds a cipher from a 64 character hex key.
func NewAESGCMCipher(hexKey string) (service.Cipher, error) {
	if len(hexKey) != keySize*2 {
		return nil, errors.Errorf("encryption key must be %d hex characters, got %d", keySize*2, len(hexKey))
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "encryption key is not valid hex")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create AES block")
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	return &aesGCMCipher{aead: aead}, nil
}

func (c *aesGCMCipher) Encrypt(plaintext string) (entity.EncryptedPayload, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return entity.EncryptedPayload{}, errors.Wrap(err, "failed to generate IV")
	}

	sealed := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - tagSize

	return entity.EncryptedPayload{
		Ciphertext: sealed[:split],
		IV:         iv,
		AuthTag:    sealed[split:],
	}, nil
}

func (c *aesGCMCipher) Decrypt(payload entity.EncryptedPayload) (string, error) {
	if len(payload.IV) != ivSize {
		return "", domainerrors.ErrIntegrity.WrapMessage("unexpected IV length")
	}
	if len(payload.AuthTag) != tagSize {
		return "", domainerrors.ErrIntegrity.WrapMessage("unexpected auth tag length")
	}

	sealed := make([]byte, 0, len(payload.Ciphertext)+tagSize)
	sealed = append(sealed, payload.Ciphertext...)
	sealed = append(sealed, payload.AuthTag...)

	plaintext, err := c.aead.Open(nil, payload.IV, sealed, nil)
	if err != nil {
		return "", domainerrors.ErrIntegrity.WrapMessage("authentication tag mismatch")
	}

	return string(plaintext), nil
}

func (c *aesGCMCipher) EncryptJSON(data map[string]any) (entity.EncryptedPayload, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return entity.EncryptedPayload{}, errors.Wrap(err, "failed to marshal payload")
	}

	return c.Encrypt(string(raw))
}

func (c *aesGCMCipher) DecryptJSON(payload entity.EncryptedPayload) (map[string]any, error) {
	plaintext, err := c.Decrypt(payload)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(plaintext), &data); err != nil {
		return nil, domainerrors.ErrDeserialization.WrapMessage(err.Error())
	}
	if data == nil {
		return nil, domainerrors.ErrDeserialization.WrapMessage("payload is not a JSON object")
	}

	return data, nil
}

func (c *aesGCMCipher) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func (c *aesGCMCipher) GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", errors.Errorf("token length must be positive, got %d", length)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(buf), nil
}
