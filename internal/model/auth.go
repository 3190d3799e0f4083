package model

import "github.com/golang-jwt/jwt/v5"

// AdminClaims are JWT claims for admin dashboard sessions
type AdminClaims struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ExpiresAt int64  `json:"expiresAt"`
}
