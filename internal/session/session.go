package session

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/internal/types"
	"github.com/desterroshop/whatsapp-gateway/pkg/breaker"
	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

func execute(c *fiber.Ctx, op func(ctx context.Context, client *gateway.Client) (gateway.Result, error)) (gateway.Result, error) {
	client := app.Client(c)
	return breaker.Execute(c.UserContext(), app.Breaker, app.ServiceWhatsAppAPI,
		func(ctx context.Context) (gateway.Result, error) {
			return op(ctx, client)
		}, nil)
}

// List handles GET /sessions.
func List(c *fiber.Ctx) error {
	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.GetSessions(ctx)
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success", result)
}

// Create handles POST /sessions.
func Create(c *fiber.Ctx) error {
	var req types.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.SessionID == "" {
		return router.ResponseUnprocessable(c, "Session id is required")
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.CreateSession(ctx, req.SessionID)
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseCreatedWithData(c, "Session created", result)
}

// Delete handles DELETE /sessions/:id.
func Delete(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.DeleteSession(ctx, sessionID)
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Session deleted", result)
}

// Status handles GET /sessions/:id/status. With ?wait=1 the handler polls the
// remote status until the session connects or WHATSAPP_QR_TIMEOUT elapses,
// which lets pairing flows block on a single request instead of polling.
func Status(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if c.QueryBool("wait") {
		interval := env.GetEnvDurationOrDefault("WHATSAPP_QR_POLL_INTERVAL", 2*time.Second)
		timeout := env.GetEnvDurationOrDefault("WHATSAPP_QR_TIMEOUT", 60*time.Second)
		connected, err := app.Client(c).WaitForConnection(c.UserContext(), sessionID, interval, timeout)
		if err != nil {
			return app.RespondError(c, err)
		}
		return router.ResponseSuccessWithData(c, "Success", fiber.Map{
			"connected": connected,
		})
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.GetSessionStatus(ctx, sessionID)
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success", result)
}

// QR handles GET /sessions/:id/qr. With ?format=png the pairing code is
// rendered as an image instead of returned as text.
func QR(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.GetQRCode(ctx, sessionID)
	})
	if err != nil {
		return app.RespondError(c, err)
	}

	if c.Query("format") == "png" {
		code := result.String("qr")
		if code == "" {
			return router.ResponseNotFound(c, "No QR code available for this session")
		}
		png, err := qrcode.Encode(code, qrcode.Medium, 256)
		if err != nil {
			log.Print(c).WithError(err).Error("Failed to render QR code")
			return router.ResponseInternalError(c, "Failed to render QR code")
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}

	return router.ResponseSuccessWithData(c, "Success", result)
}
