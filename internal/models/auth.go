package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	Role      UserRole `json:"role"`
	CollegeID string   `json:"college_id,omitempty"`
	StudentID string   `json:"student_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	FullName  string   `json:"full_name"`
	CollegeID string   `json:"college_id,omitempty"`
	StudentID string   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// IsSuperAdmin reports whether the claims belong to a super admin.
func (c *JWTClaims) IsSuperAdmin() bool {
	return c != nil && c.Role == RoleSuperAdmin
}

// IsOfficer reports whether the claims belong to a placement officer.
func (c *JWTClaims) IsOfficer() bool {
	return c != nil && c.Role == RolePlacementOfficer
}
