package postgres

import (
	"context"

	"conduit/internal/domain/entity"
	"conduit/internal/domain/repository"
	"conduit/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// appRepository implements the repository.AppRepository interface.
type appRepository struct {
	db *gorm.DB
}

// NewAppRepository is the constructor for appRepository.
func NewAppRepository(db *gorm.DB) repository.AppRepository {
	return &appRepository{
		db: db,
	}
}

// FindByID retrieves an app by its unique ID.
func (repo *appRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.App, error) {
	var appM model.AppModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&appM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAppNotFound
		}

		return nil, errors.Wrap(err, "failed to find app by ID")
	}

	return toAppDomain(&appM), nil
}

// FindBySlug retrieves an app by its slug.
func (repo *appRepository) FindBySlug(ctx context.Context, slug string) (*entity.App, error) {
	var appM model.AppModel

	if err := repo.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&appM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAppNotFound
		}

		return nil, errors.Wrap(err, "failed to find app by slug")
	}

	return toAppDomain(&appM), nil
}

// List retrieves the whole catalog ordered by name.
func (repo *appRepository) List(ctx context.Context) ([]*entity.App, error) {
	var appModels []*model.AppModel

	if err := repo.db.WithContext(ctx).
		Order("name ASC").
		Find(&appModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list apps")
	}

	apps := make([]*entity.App, 0, len(appModels))
	for _, appM := range appModels {
		apps = append(apps, toAppDomain(appM))
	}

	return apps, nil
}
