package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table owned by the account service.
// This service only reads it to name remote credentials.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email     string    `gorm:"type:varchar(255);unique;not null"`
	Name      string    `gorm:"type:varchar(100)"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// All returns every model managed by auto-migration, parents first.
func All() []any {
	return []any{
		&UserModel{},
		&AppModel{},
		&CredentialModel{},
	}
}
