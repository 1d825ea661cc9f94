package entity

import "time"

// CredentialSecret is the decrypted secret material of a Credential.
// It is either an OAuthSecret or an APIKeySecret.
type CredentialSecret interface {
	isCredentialSecret()
}

// OAuthSecret holds decrypted OAuth tokens plus the identity metadata captured at connect time.
type OAuthSecret struct {
	AccessToken  string
	RefreshToken string // Empty when the provider issued no refresh token.
	ExpiresAt    *time.Time
	Scopes       []string
	Metadata     map[string]any // e.g. {email, name, picture} or {teamId, teamName, botUserId, appId}
}

// APIKeySecret holds a decrypted static API key.
type APIKeySecret struct {
	Key  string
	Name string
}

func (OAuthSecret) isCredentialSecret()  {}
func (APIKeySecret) isCredentialSecret() {}

// MetadataString returns a string metadata value, or "" when absent.
func (s OAuthSecret) MetadataString(key string) string {
	v, _ := s.Metadata[key].(string)

	return v
}
