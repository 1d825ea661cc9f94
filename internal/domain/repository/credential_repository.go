package repository

import (
	"context"
	"errors"
	"time"

	"conduit/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrCredentialNotFound is returned when no credential matches the lookup.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrDuplicateCredential is returned when a (user, app) pair already has a credential.
	ErrDuplicateCredential = errors.New("credential already exists for user and app")
)

// CredentialRepository persists credentials. Every method that returns a
// credential also loads its App.
type CredentialRepository interface {
	// Create inserts a new credential and fills in generated fields.
	Create(ctx context.Context, cred *entity.Credential) error

	// Update writes every mutable column of the credential, including all encrypted triples.
	Update(ctx context.Context, cred *entity.Credential) error

	// UpdateStatus writes only the validity fields.
	UpdateStatus(ctx context.Context, id uuid.UUID, isValid bool, validationError *string, validatedAt time.Time) error

	// SetN8nCredentialID records (or clears, with nil) the remote credential id.
	SetN8nCredentialID(ctx context.Context, id uuid.UUID, remoteID *string) error

	Delete(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error)
	FindByUserAndApp(ctx context.Context, userID, appID uuid.UUID) (*entity.Credential, error)

	// ListByUser returns the user's credentials, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Credential, error)

	// ListOAuthWithExpiryByUser returns the user's OAuth credentials that carry an expiry.
	ListOAuthWithExpiryByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Credential, error)

	// ListRefreshable returns OAuth credentials of all users that expire at or
	// before the given time and have a refresh token.
	ListRefreshable(ctx context.Context, expiresBefore time.Time) ([]*entity.Credential, error)
}
