package history

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// Handler serves the local message log. Lookups normalize the requested
// number with the same country code used when recording, so callers can query
// with any formatting.
type Handler struct {
	store       *Store
	countryCode string
}

func NewHandler(store *Store, countryCode string) *Handler {
	return &Handler{store: store, countryCode: countryCode}
}

// ListByNumber handles GET /history/:number.
func (h *Handler) ListByNumber(c *fiber.Ctx) error {
	if h.store == nil {
		return router.ResponseServiceUnavailable(c, "Message log is not configured")
	}

	number := c.Params("number")
	if number == "" {
		return router.ResponseBadRequest(c, "Phone number is required")
	}
	number = gateway.NormalizePhone(number, h.countryCode)
	limit := c.QueryInt("limit", 50)

	messages, err := h.store.ListByNumber(c.UserContext(), number, limit)
	if err != nil && err != sql.ErrNoRows {
		log.Print(c).WithError(err).Error("Failed to list message history")
		return router.ResponseInternalError(c, "Failed to list message history")
	}
	if messages == nil {
		messages = []Message{}
	}

	return router.ResponseSuccessWithData(c, "Success", fiber.Map{
		"number":   number,
		"messages": messages,
	})
}
