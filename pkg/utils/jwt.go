package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	accessSecret  string
	refreshSecret string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
)

// InitJWT initializes JWT secrets and expiry times
func InitJWT(accessSec, refreshSec string, accessExp, refreshExp time.Duration) {
	accessSecret = accessSec
	refreshSecret = refreshSec
	accessExpiry = accessExp
	refreshExpiry = refreshExp
}

// Claims represents JWT custom claims
type Claims struct {
	UserID                uint   `json:"user_id"`
	Role                  string `json:"role"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	NeedsCredentialUpdate bool   `json:"needs_credential_update,omitempty"`
	jwt.RegisteredClaims
}

// TokenSubject is the identity an access token is minted for
type TokenSubject struct {
	UserID                uint
	Role                  string
	Name                  string
	Email                 string
	NeedsCredentialUpdate bool
}

// IssuedToken is a signed access token plus the fields the session keeps
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// GenerateAccessToken generates a short-lived JWT access token with a unique id
func GenerateAccessToken(sub TokenSubject) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(accessExpiry)
	jti := uuid.NewString()

	claims := Claims{
		UserID:                sub.UserID,
		Role:                  sub.Role,
		Name:                  sub.Name,
		Email:                 sub.Email,
		NeedsCredentialUpdate: sub.NeedsCredentialUpdate,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(accessSecret))
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ID: jti, ExpiresAt: expiresAt}, nil
}

// GenerateRefreshToken generates a cryptographically random refresh token
func GenerateRefreshToken() (string, error) {
	return uuid.New().String(), nil
}

// GenerateRandomPassword returns a throwaway password for seeded accounts
func GenerateRandomPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// ValidateAccessToken validates and parses a JWT access token
func ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(accessSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		if claims.ID == "" || claims.ExpiresAt == nil {
			return nil, errors.New("token is missing id or expiry")
		}
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// HashRefreshToken creates a SHA-256 hash of the refresh token for secure storage
func HashRefreshToken(token string) string {
	hash := sha256.Sum256([]byte(refreshSecret + token))
	return hex.EncodeToString(hash[:])
}

// GetRefreshTokenExpiry returns the refresh token expiry duration
func GetRefreshTokenExpiry() time.Duration {
	return refreshExpiry
}

// GetAccessTokenExpiry returns the access token expiry duration
func GetAccessTokenExpiry() time.Duration {
	return accessExpiry
}
