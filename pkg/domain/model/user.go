package model

import "time"

// User statuses.
const (
	UserStatusActive = 1
	UserStatusBanned = 2
)

// AdminGroupID is the group whose members pass AdminAuth.
const AdminGroupID uint = 1

// User is an account allowed to mutate the catalog.
type User struct {
	ID           uint
	Email        string
	PasswordHash string
	GroupID      uint
	Status       int
	CreatedAt    time.Time
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}
