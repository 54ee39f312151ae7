package logs

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/breaker"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// ByCorrelationID handles GET /logs/correlation/:id, proxying the remote
// server's log search for one correlation id.
func ByCorrelationID(c *fiber.Ctx) error {
	correlationID := c.Params("id")
	if correlationID == "" {
		return router.ResponseBadRequest(c, "Correlation id is required")
	}

	client := app.Client(c)
	result, err := breaker.Execute(c.UserContext(), app.Breaker, app.ServiceWhatsAppAPI,
		func(ctx context.Context) (gateway.Result, error) {
			return client.GetLogsByCorrelationID(ctx, correlationID)
		}, nil)
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success", result)
}
