package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// apiKeys holds the keys allowed to exchange for a bearer token (API_KEYS,
// comma separated).
var apiKeys []string

func init() {
	raw := env.GetEnvStringOrDefault("API_KEYS", "")
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			apiKeys = append(apiKeys, key)
		}
	}
}

// ValidAPIKey reports whether the supplied key matches a configured key.
// Comparison is constant time per candidate.
func ValidAPIKey(key string) bool {
	if key == "" {
		return false
	}
	for _, candidate := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			return true
		}
	}
	return false
}

// BearerAuth validates the JWT access token from the Authorization header.
// Token format: "Bearer <jwt_token>". Validation is stateless.
func BearerAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return router.ResponseUnauthorized(c, "Missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return router.ResponseUnauthorized(c, "Invalid Authorization header format. Use: Bearer <token>")
		}

		tokenString := parts[1]
		if tokenString == "" {
			return router.ResponseUnauthorized(c, "Missing token")
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			return router.ResponseUnauthorized(c, "Invalid or expired token")
		}
		if claims.TokenType != "access" {
			return router.ResponseUnauthorized(c, "Refresh token cannot be used for API access")
		}

		c.Locals("client_id", claims.ClientID)
		return c.Next()
	}
}
