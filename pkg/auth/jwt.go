package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
)

// JWTSecretKey for signing API access tokens
// REQUIRED: Application will panic if not set
var JWTSecretKey string

var accessTokenTTL time.Duration
var refreshTokenTTL time.Duration

func init() {
	// JWT_SECRET_KEY is REQUIRED - app will panic if not configured
	JWTSecretKey = env.MustGetEnvString("JWT_SECRET_KEY")

	accessTokenTTL = env.GetEnvDurationOrDefault("JWT_ACCESS_TTL", 24*time.Hour)
	refreshTokenTTL = env.GetEnvDurationOrDefault("JWT_REFRESH_TTL", 7*24*time.Hour)
}

// TokenClaims represents the claims in an API token
type TokenClaims struct {
	ClientID  string `json:"client_id"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// TokenPair bundles the access and refresh tokens handed to a client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func signToken(clientID, tokenType string, ttl time.Duration) (string, error) {
	if JWTSecretKey == "" {
		return "", errors.New("JWT_SECRET_KEY not configured")
	}

	now := time.Now()
	claims := TokenClaims{
		ClientID:  clientID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecretKey))
}

// GenerateTokenPair creates an access/refresh token pair for an API client.
func GenerateTokenPair(clientID string) (*TokenPair, error) {
	access, err := signToken(clientID, "access", accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := signToken(clientID, "refresh", refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

// ValidateToken validates a JWT and returns its claims.
func ValidateToken(tokenString string) (*TokenClaims, error) {
	if JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(JWTSecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
