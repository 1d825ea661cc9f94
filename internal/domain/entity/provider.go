// Package entity contains the core business objects of the project.
package entity

import "slices"

// Provider identifies a third-party service that has provider-specific behavior
// (OAuth flow, validation probe or remote payload shape).
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderSlack  Provider = "slack"
	ProviderOpenAI Provider = "openai"
)

// OAuthProviders lists the providers that implement the OAuth connect flow.
var OAuthProviders = []Provider{ProviderGoogle, ProviderSlack}

// String returns the string representation of the Provider.
func (p Provider) String() string {
	return string(p)
}

// IsValid checks if the Provider is a known value.
func (p Provider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderSlack, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// SupportsOAuth reports whether the provider has an OAuth connect flow.
func (p Provider) SupportsOAuth() bool {
	return slices.Contains(OAuthProviders, p)
}

// ParseProvider converts an app slug into a Provider. ok is false for apps
// without provider-specific behavior.
func ParseProvider(slug string) (Provider, bool) {
	p := Provider(slug)

	return p, p.IsValid()
}

// SupportsRefresh reports whether the provider issues expiring access tokens
// that can be renewed with a refresh token.
func (p Provider) SupportsRefresh() bool {
	return p == ProviderGoogle
}
