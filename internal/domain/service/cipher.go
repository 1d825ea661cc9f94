package service

import "conduit/internal/domain/entity"

// Cipher protects secret material at rest.
type Cipher interface {
	// Encrypt seals plaintext under a fresh random IV.
	Encrypt(plaintext string) (entity.EncryptedPayload, error)

	// Decrypt opens a payload produced by Encrypt. A payload whose tag does not
	// verify returns domainerrors.ErrIntegrity.
	Decrypt(payload entity.EncryptedPayload) (string, error)

	EncryptJSON(data map[string]any) (entity.EncryptedPayload, error)

	// DecryptJSON returns domainerrors.ErrDeserialization when the plaintext is not a JSON object.
	DecryptJSON(payload entity.EncryptedPayload) (map[string]any, error)

	// HashToken returns the hex SHA-256 digest of token.
	HashToken(token string) string

	// GenerateToken returns length random bytes, hex encoded.
	GenerateToken(length int) (string, error)
}
