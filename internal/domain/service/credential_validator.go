package service

import (
	"context"

	"conduit/internal/domain/entity"
)

// CredentialValidator probes a provider to tell whether a secret still works.
// Validate never fails: every outcome is a ValidationResult.
type CredentialValidator interface {
	Validate(ctx context.Context, appSlug string, secret entity.CredentialSecret) entity.ValidationResult
	HasValidator(appSlug string) bool
}
