// Package impl contains the application-specific business rules implementations.
package impl

import (
	"slices"
	"strings"
	"time"

	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/service"
	"conduit/internal/errors"
)

// decryptSecret opens every encrypted field of cred into the matching secret variant.
// Integrity failures are returned unchanged so callers never act on garbage.
func decryptSecret(cipher service.Cipher, cred *entity.Credential) (entity.CredentialSecret, error) {
	switch cred.AuthType() {
	case entity.AuthTypeOAuth2:
		return decryptOAuthSecret(cipher, cred)
	case entity.AuthTypeAPIKey:
		data, err := cipher.DecryptJSON(cred.Payload)
		if err != nil {
			return nil, err
		}
		key, _ := data["apiKey"].(string)
		name, _ := data["name"].(string)

		return entity.APIKeySecret{Key: key, Name: name}, nil
	default:
		return nil, domainerrors.ErrUnsupportedAuthType.WrapMessage("credential app has no known auth type")
	}
}

func decryptOAuthSecret(cipher service.Cipher, cred *entity.Credential) (entity.OAuthSecret, error) {
	secret := entity.OAuthSecret{
		ExpiresAt: cred.OAuthExpiresAt,
		Scopes:    slices.Clone(cred.OAuthScopes),
	}

	if !cred.Payload.IsZero() {
		metadata, err := cipher.DecryptJSON(cred.Payload)
		if err != nil {
			return entity.OAuthSecret{}, err
		}
		secret.Metadata = metadata
	}

	if cred.HasAccessToken() {
		token, err := cipher.Decrypt(*cred.AccessToken)
		if err != nil {
			return entity.OAuthSecret{}, errors.Wrap(err, "access token")
		}
		secret.AccessToken = token
	}

	if cred.HasRefreshToken() {
		token, err := cipher.Decrypt(*cred.RefreshToken)
		if err != nil {
			return entity.OAuthSecret{}, errors.Wrap(err, "refresh token")
		}
		secret.RefreshToken = token
	}

	return secret, nil
}

// encryptOptional seals a token, returning nil for an empty one.
func encryptOptional(cipher service.Cipher, plaintext string) (*entity.EncryptedPayload, error) {
	if plaintext == "" {
		return nil, nil
	}

	payload, err := cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}

	return &payload, nil
}

// splitScopes splits a provider scope string, dropping empty entries.
func splitScopes(raw, sep string) []string {
	var scopes []string
	for _, s := range strings.Split(raw, sep) {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	return scopes
}

func ptr[T any](v T) *T {
	return &v
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
