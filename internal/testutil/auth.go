package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NewAccessToken signs an HS256 access token for userID the way the identity
// provider does.
func NewAccessToken(t *testing.T, secret, userID, email string) string {
	t.Helper()
	return signToken(t, secret, jwt.MapClaims{
		"user_id":    userID,
		"email":      email,
		"token_type": "access",
		"sub":        userID,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(15 * time.Minute).Unix(),
	})
}

// NewExpiredAccessToken signs a token that expired a minute ago.
func NewExpiredAccessToken(t *testing.T, secret, userID string) string {
	t.Helper()
	return signToken(t, secret, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}
