package auth

import (
	"fmt"
	"time"

	"github.com/probelab/probelab-app/pkg/idgen"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "probelab-app"

// GenerateToken issues a short-lived access token for the given user.
func GenerateToken(userID, userGroupID uint, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("JWT secret must not be empty")
	}

	accessTokenExpires := time.Now().Add(time.Minute * 15)

	publicUserID, err := idgen.GeneratePublicID(userID, idgen.EntityTypeUser)
	if err != nil {
		return "", fmt.Errorf("encoding public user id: %w", err)
	}
	publicGroupID, err := idgen.GeneratePublicID(userGroupID, idgen.EntityTypeGroup)
	if err != nil {
		return "", fmt.Errorf("encoding public group id: %w", err)
	}

	claims := CustomClaims{
		UserID:      publicUserID,
		UserGroupID: publicGroupID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(accessTokenExpires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// GenerateRefreshToken issues a long-lived refresh token.
func GenerateRefreshToken(userID uint, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("JWT secret must not be empty")
	}

	refreshTokenExpires := time.Now().Add(time.Hour * 24 * 30)

	publicUserID, err := idgen.GeneratePublicID(userID, idgen.EntityTypeUser)
	if err != nil {
		return "", fmt.Errorf("encoding public user id: %w", err)
	}

	claims := CustomClaims{
		UserID: publicUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshTokenExpires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseToken validates a token and returns its claims.
func ParseToken(tokenString string, secretKey []byte) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
