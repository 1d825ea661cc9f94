package entity

import (
	"time"

	"github.com/google/uuid"
)

// OAuthState is carried through the provider redirect and checked on callback.
type OAuthState struct {
	UserID    uuid.UUID
	Provider  Provider
	IssuedAt  time.Time
	ReturnURL string
}

// OAuthTokens is the result of a code exchange or token refresh.
type OAuthTokens struct {
	AccessToken  string
	RefreshToken string // Empty when the provider did not issue one.
	ExpiresIn    int    // Seconds, 0 when the token does not expire.
	Scope        string // Raw granted scope string as returned by the provider.
	TokenType    string

	// Extra carries provider specific fields of the token response
	// (Slack: teamId, teamName, botUserId, appId).
	Extra map[string]any
}

// ExpiresAt converts ExpiresIn into an absolute time, or nil when the token does not expire.
func (t *OAuthTokens) ExpiresAt(now time.Time) *time.Time {
	if t == nil || t.ExpiresIn <= 0 {
		return nil
	}
	at := now.Add(time.Duration(t.ExpiresIn) * time.Second)

	return &at
}

// OAuthIdentity is what a provider reports about the owner of an access token.
type OAuthIdentity struct {
	ID      string
	Email   string
	Name    string
	Picture string
	Team    string
	TeamID  string
	UserID  string
}
