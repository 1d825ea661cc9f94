package entity

import (
	"time"

	"github.com/google/uuid"
)

// EncryptedPayload is the output of a single authenticated encryption call.
// The three parts are always stored and read together.
type EncryptedPayload struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
}

// IsZero reports whether the payload carries no ciphertext at all.
func (p EncryptedPayload) IsZero() bool {
	return len(p.Ciphertext) == 0 && len(p.IV) == 0 && len(p.AuthTag) == 0
}

// Credential is a user's connection to an App. Secret material never leaves
// this struct in clear form and is never serialized.
type Credential struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	AppID  uuid.UUID `json:"app_id"`
	App    *App      `json:"app,omitempty"` // Joined app descriptor, nil when not loaded.

	Payload      EncryptedPayload  `json:"-"` // JSON payload: {apiKey, name} or OAuth identity metadata.
	AccessToken  *EncryptedPayload `json:"-"` // OAuth access token, nil for API key apps.
	RefreshToken *EncryptedPayload `json:"-"` // OAuth refresh token, nil when the provider issued none.

	OAuthExpiresAt *time.Time `json:"oauth_expires_at,omitempty"`
	OAuthScopes    []string   `json:"oauth_scopes,omitempty"`

	IsValid         bool       `json:"is_valid"`
	LastValidatedAt *time.Time `json:"last_validated_at,omitempty"`
	ValidationError *string    `json:"validation_error,omitempty"` // Set whenever IsValid is false.

	N8nCredentialID *string `json:"n8n_credential_id,omitempty"` // Remote credential id in the workflow engine.

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthType returns the auth type of the joined app, or "" when the app is not loaded.
func (c *Credential) AuthType() AuthType {
	if c.App == nil {
		return ""
	}

	return c.App.AuthType
}

// HasAccessToken reports whether the credential has been connected through OAuth.
func (c *Credential) HasAccessToken() bool {
	return c.AccessToken != nil && !c.AccessToken.IsZero()
}

// HasRefreshToken reports whether a refresh token is stored.
func (c *Credential) HasRefreshToken() bool {
	return c.RefreshToken != nil && !c.RefreshToken.IsZero()
}

// MarkValid records a successful validation at the given time.
func (c *Credential) MarkValid(at time.Time) {
	c.IsValid = true
	c.ValidationError = nil
	c.LastValidatedAt = &at
}

// MarkInvalid records a failed validation with the reason shown to the user.
func (c *Credential) MarkInvalid(reason string, at time.Time) {
	c.IsValid = false
	c.ValidationError = &reason
	c.LastValidatedAt = &at
}
