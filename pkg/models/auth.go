package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// IsStaff is a nil-safe shortcut for Role.IsStaff.
func (c *JWTClaims) IsStaff() bool {
	return c != nil && c.Role.IsStaff()
}

// Is reports whether the claims belong to userID.
func (c *JWTClaims) Is(userID string) bool {
	return c != nil && userID != "" && c.UserID == userID
}
