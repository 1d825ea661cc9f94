// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"conduit/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrAppNotFound is returned when no app matches the lookup.
var ErrAppNotFound = errors.New("app not found")

// AppRepository reads the app catalog.
type AppRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.App, error)
	FindBySlug(ctx context.Context, slug string) (*entity.App, error)
	List(ctx context.Context) ([]*entity.App, error)
}
