package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleRegistrar UserRole = "REGISTRAR"
	RoleTeacher   UserRole = "TEACHER"
	RoleStudent   UserRole = "STUDENT"
)

// Valid reports whether the role is known.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleRegistrar, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// JWTClaims represents the JWT payload for access tokens. Student tokens carry
// the student id as UserID.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
