package postgres

import (
	"encoding/json"

	"conduit/internal/domain/entity"
	"conduit/internal/infra/persistence/model"
)

// --- Mapper Functions ---

// toCredentialDomain converts a GORM CredentialModel to a domain Credential entity.
func toCredentialDomain(data *model.CredentialModel) *entity.Credential {
	if data == nil {
		return nil
	}

	return &entity.Credential{
		ID:     data.ID,
		UserID: data.UserID,
		AppID:  data.AppID,
		App:    toAppDomain(data.App),
		Payload: entity.EncryptedPayload{
			Ciphertext: data.EncryptedPayload,
			IV:         data.PayloadIV,
			AuthTag:    data.PayloadAuthTag,
		},
		AccessToken:     toPayload(data.AccessTokenEncrypted, data.AccessTokenIV, data.AccessTokenAuthTag),
		RefreshToken:    toPayload(data.RefreshTokenEncrypted, data.RefreshTokenIV, data.RefreshTokenAuthTag),
		OAuthExpiresAt:  data.OAuthExpiresAt,
		OAuthScopes:     data.OAuthScopes,
		IsValid:         data.IsValid,
		LastValidatedAt: data.LastValidatedAt,
		ValidationError: data.ValidationError,
		N8nCredentialID: data.N8nCredentialID,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

func toCredentialDomains(models []*model.CredentialModel) []*entity.Credential {
	creds := make([]*entity.Credential, 0, len(models))
	for _, credM := range models {
		creds = append(creds, toCredentialDomain(credM))
	}

	return creds
}

// fromCredentialDomain converts a domain Credential entity to a GORM CredentialModel.
func fromCredentialDomain(data *entity.Credential) *model.CredentialModel {
	if data == nil {
		return nil
	}

	credM := &model.CredentialModel{
		ID:               data.ID,
		UserID:           data.UserID,
		AppID:            data.AppID,
		EncryptedPayload: data.Payload.Ciphertext,
		PayloadIV:        data.Payload.IV,
		PayloadAuthTag:   data.Payload.AuthTag,
		OAuthExpiresAt:   data.OAuthExpiresAt,
		OAuthScopes:      data.OAuthScopes,
		IsValid:          data.IsValid,
		LastValidatedAt:  data.LastValidatedAt,
		ValidationError:  data.ValidationError,
		N8nCredentialID:  data.N8nCredentialID,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
	if data.AccessToken != nil && !data.AccessToken.IsZero() {
		credM.AccessTokenEncrypted = data.AccessToken.Ciphertext
		credM.AccessTokenIV = data.AccessToken.IV
		credM.AccessTokenAuthTag = data.AccessToken.AuthTag
	}
	if data.RefreshToken != nil && !data.RefreshToken.IsZero() {
		credM.RefreshTokenEncrypted = data.RefreshToken.Ciphertext
		credM.RefreshTokenIV = data.RefreshToken.IV
		credM.RefreshTokenAuthTag = data.RefreshToken.AuthTag
	}

	return credM
}

// toPayload rebuilds an optional triple; a missing ciphertext means no token.
func toPayload(ciphertext, iv, authTag []byte) *entity.EncryptedPayload {
	if len(ciphertext) == 0 && len(iv) == 0 && len(authTag) == 0 {
		return nil
	}

	return &entity.EncryptedPayload{Ciphertext: ciphertext, IV: iv, AuthTag: authTag}
}

func scopesJSON(scopes []string) string {
	if scopes == nil {
		return "null"
	}
	raw, err := json.Marshal(scopes)
	if err != nil {
		return "null"
	}

	return string(raw)
}

// toAppDomain converts a GORM AppModel to a domain App entity.
func toAppDomain(data *model.AppModel) *entity.App {
	if data == nil {
		return nil
	}

	return &entity.App{
		ID:        data.ID,
		Slug:      data.Slug,
		Name:      data.Name,
		IconURL:   data.IconURL,
		AuthType:  entity.AuthType(data.AuthType),
		Metadata:  data.Metadata,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:        data.ID,
		Email:     data.Email,
		Name:      data.Name,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}
