package postgres

import (
	"context"
	"time"

	"conduit/internal/domain/entity"
	domainerrors "conduit/internal/domain/errors"
	"conduit/internal/domain/repository"
	"conduit/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// credentialRepository implements the repository.CredentialRepository interface.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{
		db: db,
	}
}

// Create persists a new credential. The joined App is never written.
func (repo *credentialRepository) Create(ctx context.Context, cred *entity.Credential) error {
	credM := fromCredentialDomain(cred)

	if err := repo.db.WithContext(ctx).Omit("App").Create(credM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateCredential
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrAppNotFound.WrapMessage("invalid user or app reference")
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required credential data")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create credential")
	}

	cred.ID = credM.ID
	cred.CreatedAt = credM.CreatedAt
	cred.UpdatedAt = credM.UpdatedAt

	return nil
}

// Update overwrites every mutable column, so nil tokens clear their triples.
func (repo *credentialRepository) Update(ctx context.Context, cred *entity.Credential) error {
	credM := fromCredentialDomain(cred)
	now := time.Now()

	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", cred.ID).
		Updates(map[string]any{
			"encrypted_payload":       credM.EncryptedPayload,
			"payload_iv":              credM.PayloadIV,
			"payload_auth_tag":        credM.PayloadAuthTag,
			"access_token_encrypted":  credM.AccessTokenEncrypted,
			"access_token_iv":         credM.AccessTokenIV,
			"access_token_auth_tag":   credM.AccessTokenAuthTag,
			"refresh_token_encrypted": credM.RefreshTokenEncrypted,
			"refresh_token_iv":        credM.RefreshTokenIV,
			"refresh_token_auth_tag":  credM.RefreshTokenAuthTag,
			"oauth_expires_at":        credM.OAuthExpiresAt,
			"oauth_scopes":            gorm.Expr("?::jsonb", scopesJSON(credM.OAuthScopes)),
			"is_valid":                credM.IsValid,
			"last_validated_at":       credM.LastValidatedAt,
			"validation_error":        credM.ValidationError,
			"n8n_credential_id":       credM.N8nCredentialID,
			"updated_at":              now,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update credential")
	}

	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	cred.UpdatedAt = now

	return nil
}

// UpdateStatus writes only the validity columns.
func (repo *credentialRepository) UpdateStatus(ctx context.Context, id uuid.UUID, isValid bool, validationError *string, validatedAt time.Time) error {
	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_valid":          isValid,
			"validation_error":  validationError,
			"last_validated_at": validatedAt,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update credential status")
	}

	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

// SetN8nCredentialID records the remote id, or clears it when remoteID is nil.
func (repo *credentialRepository) SetN8nCredentialID(ctx context.Context, id uuid.UUID, remoteID *string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"n8n_credential_id": remoteID,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to set n8n credential id")
	}

	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

// Delete removes a credential row.
func (repo *credentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.CredentialModel{})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete credential")
	}

	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

// FindByID retrieves a credential and its app.
func (repo *credentialRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Credential, error) {
	var credM model.CredentialModel

	if err := repo.db.WithContext(ctx).
		Preload("App").
		Where("id = ?", id).
		First(&credM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.Wrap(err, "failed to find credential by ID")
	}

	return toCredentialDomain(&credM), nil
}

// FindByUserAndApp retrieves the single credential a user holds for an app.
func (repo *credentialRepository) FindByUserAndApp(ctx context.Context, userID, appID uuid.UUID) (*entity.Credential, error) {
	var credM model.CredentialModel

	if err := repo.db.WithContext(ctx).
		Preload("App").
		Where("user_id = ? AND app_id = ?", userID, appID).
		First(&credM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.Wrap(err, "failed to find credential by user and app")
	}

	return toCredentialDomain(&credM), nil
}

// ListByUser retrieves all credentials of a user, newest first.
func (repo *credentialRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Credential, error) {
	var credModels []*model.CredentialModel

	if err := repo.db.WithContext(ctx).
		Preload("App").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&credModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list credentials by user")
	}

	return toCredentialDomains(credModels), nil
}

// ListOAuthWithExpiryByUser retrieves the user's OAuth credentials that carry an expiry.
func (repo *credentialRepository) ListOAuthWithExpiryByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Credential, error) {
	var credModels []*model.CredentialModel

	if err := repo.db.WithContext(ctx).
		Joins("App").
		Where("credentials.user_id = ?", userID).
		Where(`"App".auth_type = ?`, entity.AuthTypeOAuth2.String()).
		Where("credentials.oauth_expires_at IS NOT NULL").
		Order("credentials.oauth_expires_at ASC").
		Find(&credModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list expiring credentials by user")
	}

	return toCredentialDomains(credModels), nil
}

// ListRefreshable retrieves OAuth credentials of every user that expire by
// expiresBefore and still hold a refresh token.
func (repo *credentialRepository) ListRefreshable(ctx context.Context, expiresBefore time.Time) ([]*entity.Credential, error) {
	var credModels []*model.CredentialModel

	if err := repo.db.WithContext(ctx).
		Joins("App").
		Where(`"App".auth_type = ?`, entity.AuthTypeOAuth2.String()).
		Where("credentials.oauth_expires_at IS NOT NULL AND credentials.oauth_expires_at <= ?", expiresBefore).
		Where("credentials.refresh_token_encrypted IS NOT NULL").
		Order("credentials.oauth_expires_at ASC").
		Find(&credModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list refreshable credentials")
	}

	return toCredentialDomains(credModels), nil
}
