package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are the JWT claims carried by the admin session cookie.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
