package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
	IsAdmin    bool   `json:"is_admin"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	jwt.RegisteredClaims
}
