package usecase

import (
	"context"

	"github.com/google/uuid"
)

// CredentialMirror keeps the workflow engine's copy of a credential in step with the local row.
type CredentialMirror interface {
	// Sync replaces the remote credential and records the new remote id.
	Sync(ctx context.Context, id uuid.UUID) (string, error)

	// Remove deletes the remote credential. Failures are logged, never returned.
	Remove(ctx context.Context, id uuid.UUID)

	// Resync is Sync after the secret changed, e.g. a token refresh.
	Resync(ctx context.Context, id uuid.UUID) error

	// SyncAll syncs every credential of the user and returns how many succeeded.
	SyncAll(ctx context.Context, userID uuid.UUID) (int, error)
}
