package circuit

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// List handles GET /circuit-breaker and returns every tracked service.
func List(c *fiber.Ctx) error {
	statuses, err := app.Breaker.All(c.UserContext())
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to read breaker states")
		return router.ResponseInternalError(c, "Failed to read breaker states")
	}
	return router.ResponseSuccessWithData(c, "Success", fiber.Map{"services": statuses})
}

// Show handles GET /circuit-breaker/:service.
func Show(c *fiber.Ctx) error {
	service := c.Params("service")

	status, err := app.Breaker.Status(c.UserContext(), service)
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to read breaker state")
		return router.ResponseInternalError(c, "Failed to read breaker state")
	}
	return router.ResponseSuccessWithData(c, "Success", status)
}

// Reset handles POST /circuit-breaker/:service/reset. The breaker returns to
// closed with a zero failure count regardless of its previous state.
func Reset(c *fiber.Ctx) error {
	service := c.Params("service")

	if err := app.Breaker.Reset(c.UserContext(), service); err != nil {
		log.Print(c).WithError(err).Error("Failed to reset breaker")
		return router.ResponseInternalError(c, "Failed to reset breaker")
	}
	log.Print(c).WithField("service", service).Info("Circuit breaker reset")
	return router.ResponseSuccess(c, "Circuit breaker reset")
}
