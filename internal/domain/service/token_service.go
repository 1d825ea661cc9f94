// Package service defines interfaces for core, stateless domain logic.
package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims for the JWT access tokens.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Type   string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenService validates the bearer tokens presented by API callers.
type TokenService interface {
	// GenerateAccessToken signs an access token for the given user.
	GenerateAccessToken(userID uuid.UUID) (string, error)

	// ValidateToken checks the validity of an access token string.
	ValidateToken(tokenString string) (*Claims, error)
}
