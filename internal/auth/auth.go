package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/types"
	"github.com/desterroshop/whatsapp-gateway/pkg/auth"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// Login handles POST /auth. A valid API key is exchanged for a JWT token
// pair scoped to that key.
func Login(c *fiber.Ctx) error {
	var req types.AuthRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.APIKey == "" {
		req.APIKey = c.Get("X-API-Key")
	}
	if req.APIKey == "" {
		return router.ResponseUnprocessable(c, "API key is required")
	}

	if !auth.ValidAPIKey(req.APIKey) {
		log.Print(c).Warn("Authentication rejected, unknown API key")
		return router.ResponseUnauthorized(c, "Invalid API key")
	}

	pair, err := auth.GenerateTokenPair(req.APIKey)
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to generate token pair")
		return router.ResponseInternalError(c, "Failed to generate tokens")
	}

	return router.ResponseSuccessWithData(c, "Authenticated", pair)
}

// Refresh handles POST /auth/refresh.
func Refresh(c *fiber.Ctx) error {
	var req types.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return router.ResponseUnprocessable(c, "Refresh token is required")
	}

	claims, err := auth.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return router.ResponseUnauthorized(c, "Invalid refresh token")
	}

	pair, err := auth.GenerateTokenPair(claims.ClientID)
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to generate token pair")
		return router.ResponseInternalError(c, "Failed to generate tokens")
	}

	return router.ResponseSuccessWithData(c, "Token refreshed", pair)
}
