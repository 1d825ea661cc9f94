package model

import (
	"time"

	"github.com/google/uuid"
)

// CredentialModel is the GORM-specific struct for the 'credentials' table.
// Every encrypted field is stored as its own (ciphertext, iv, auth tag) column triple.
type CredentialModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_credentials_user_app;index"`
	AppID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_credentials_user_app"`
	App    *AppModel `gorm:"foreignKey:AppID;references:ID;constraint:OnDelete:CASCADE"`

	EncryptedPayload []byte `gorm:"type:bytea;not null"`
	PayloadIV        []byte `gorm:"column:payload_iv;type:bytea;not null"`
	PayloadAuthTag   []byte `gorm:"type:bytea;not null"`

	AccessTokenEncrypted []byte `gorm:"type:bytea"`
	AccessTokenIV        []byte `gorm:"column:access_token_iv;type:bytea"`
	AccessTokenAuthTag   []byte `gorm:"type:bytea"`

	RefreshTokenEncrypted []byte `gorm:"type:bytea"`
	RefreshTokenIV        []byte `gorm:"column:refresh_token_iv;type:bytea"`
	RefreshTokenAuthTag   []byte `gorm:"type:bytea"`

	OAuthExpiresAt *time.Time `gorm:"column:oauth_expires_at;index"`
	OAuthScopes    []string   `gorm:"column:oauth_scopes;type:jsonb;serializer:json"`

	IsValid         bool    `gorm:"not null;default:true"`
	LastValidatedAt *time.Time
	ValidationError *string `gorm:"type:text"`
	N8nCredentialID *string `gorm:"column:n8n_credential_id;type:varchar(64)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (CredentialModel) TableName() string {
	return "credentials"
}
