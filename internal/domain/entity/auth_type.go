// Package entity contains the core business objects of the project.
package entity

// AuthType describes how an App is connected.
type AuthType string

const (
	// AuthTypeOAuth2 apps are connected through a provider consent screen.
	AuthTypeOAuth2 AuthType = "oauth2"
	// AuthTypeAPIKey apps are connected by submitting a static key.
	AuthTypeAPIKey AuthType = "api_key"
)

// String returns the string representation of the AuthType.
func (a AuthType) String() string {
	return string(a)
}

// IsValid checks if the AuthType is a valid value.
func (a AuthType) IsValid() bool {
	switch a {
	case AuthTypeOAuth2, AuthTypeAPIKey:
		return true
	default:
		return false
	}
}
