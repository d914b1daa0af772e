// Package auth mints and verifies the server's HS256 access tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/speakfluent/speakfluent/internal/common"
)

// GenerateToken signs an access token carrying the username as subject.
func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// GetUsernameFromToken verifies tokenString and returns the subject. Any
// parse, signature, or expiry failure maps to common.ErrInvalidToken.
func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
