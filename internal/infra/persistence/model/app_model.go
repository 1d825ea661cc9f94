package model

import (
	"time"

	"github.com/google/uuid"
)

// AppModel is the GORM-specific struct for the 'apps' table.
// Rows are catalog data seeded outside this service.
type AppModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Slug      string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name      string         `gorm:"type:varchar(255);not null"`
	IconURL   string         `gorm:"type:text"`
	AuthType  string         `gorm:"type:varchar(20);not null"`
	Metadata  map[string]any `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (AppModel) TableName() string {
	return "apps"
}
