// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"conduit/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateAPIKeyInput represents the input for connecting an API key app.
type CreateAPIKeyInput struct {
	UserID  uuid.UUID
	AppSlug string
	APIKey  string
	Name    string // Defaults to "<App name> API Key".
}

// CredentialUsecase defines the interface for credential management use cases.
type CredentialUsecase interface {
	// ListCredentials returns the user's credentials, newest first, without secret material.
	ListCredentials(ctx context.Context, userID uuid.UUID) ([]*entity.Credential, error)

	// GetCredential returns ErrCredentialNotFound for rows owned by another user.
	GetCredential(ctx context.Context, id, userID uuid.UUID) (*entity.Credential, error)

	CreateAPIKeyCredential(ctx context.Context, input *CreateAPIKeyInput) (*entity.Credential, error)

	// DeleteCredential removes the remote copy best-effort, then the local row.
	DeleteCredential(ctx context.Context, id, userID uuid.UUID) error

	// TestCredential probes the provider and records the outcome on the credential.
	TestCredential(ctx context.Context, id, userID uuid.UUID) (*entity.ValidationResult, error)

	// GetDecryptedSecret returns the access token or API key, or nil when not yet connected.
	GetDecryptedSecret(ctx context.Context, id uuid.UUID) (*string, error)

	MarkValid(ctx context.Context, id uuid.UUID) error
	MarkInvalid(ctx context.Context, id uuid.UUID, reason string) error
}
