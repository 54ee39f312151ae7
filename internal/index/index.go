package index

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// Index handles GET / with a liveness summary: the health of the remote
// WhatsApp server and the breaker guarding it.
func Index(c *fiber.Ctx) error {
	status, _ := app.Breaker.Status(c.UserContext(), app.ServiceWhatsAppAPI)

	remote := "unreachable"
	if _, err := app.Gateway.GetStatus(c.UserContext()); err == nil {
		remote = "ok"
	}

	return router.ResponseSuccessWithData(c, "WhatsApp Gateway", fiber.Map{
		"remote":          remote,
		"circuit_breaker": status,
	})
}

// Health handles GET /health for load balancer probes. It never calls the
// remote server.
func Health(c *fiber.Ctx) error {
	if app.DB != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := app.DB.PingContext(ctx); err != nil {
			log.Print(c).WithError(err).Warn("Database ping failed")
			return router.ResponseServiceUnavailable(c, "Database unavailable")
		}
	}
	return router.ResponseSuccess(c, "ok")
}
