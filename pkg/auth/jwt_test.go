package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims *JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTService_ParseToken_Valid(t *testing.T) {
	// Arrange
	jwtService := NewJWTService("test-secret")
	tokenString := signTestToken(t, "test-secret", &JWTClaims{
		UserID:      "user-1",
		DisplayName: "alice",
		IsAdmin:     false,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	// Act
	claims, err := jwtService.ParseToken(tokenString)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.DisplayName)
	assert.False(t, claims.IsAdmin)
}

func TestJWTService_ParseToken_WrongSecret(t *testing.T) {
	jwtService := NewJWTService("test-secret")
	tokenString := signTestToken(t, "other-secret", &JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := jwtService.ParseToken(tokenString)

	assert.Nil(t, claims)
	assert.Error(t, err, "A token signed with another key must not verify")
}

func TestJWTService_ParseToken_Expired(t *testing.T) {
	jwtService := NewJWTService("test-secret")
	tokenString := signTestToken(t, "test-secret", &JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	claims, err := jwtService.ParseToken(tokenString)

	assert.Nil(t, claims)
	assert.Error(t, err)
}

func TestJWTService_ParseToken_MissingUserID(t *testing.T) {
	jwtService := NewJWTService("test-secret")
	tokenString := signTestToken(t, "test-secret", &JWTClaims{
		DisplayName: "nobody",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := jwtService.ParseToken(tokenString)

	assert.Nil(t, claims)
	assert.Error(t, err, "A token without a user id is useless to this service")
}
