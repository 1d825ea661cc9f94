package entity

import (
	"time"

	"github.com/google/uuid"
)

// App is a connectable third-party service. Apps are reference data seeded out of band.
type App struct {
	ID        uuid.UUID      `json:"id"`                 // The unique ID of the app.
	Slug      string         `json:"slug"`               // Unique key, e.g. "google", "openai".
	Name      string         `json:"name"`               // Display name.
	IconURL   string         `json:"icon_url,omitempty"` // Optional icon shown in the catalog.
	AuthType  AuthType       `json:"auth_type"`          // How the app is connected.
	Metadata  map[string]any `json:"metadata,omitempty"` // Provider specific data such as scopes or key help text.
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Provider returns the provider-specific identity of the app, if any.
func (a *App) Provider() (Provider, bool) {
	if a == nil {
		return "", false
	}

	return ParseProvider(a.Slug)
}
