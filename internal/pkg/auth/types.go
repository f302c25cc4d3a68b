package auth

import "github.com/golang-jwt/jwt/v5"

// ClaimsKey is the gin.Context key under which parsed claims are stored.
const ClaimsKey = "user_claims"

// CustomClaims carries public (encoded) user and group IDs.
type CustomClaims struct {
	UserID      string `json:"user_id"`
	UserGroupID string `json:"user_group_id"`
	jwt.RegisteredClaims
}
