package transactions

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/internal/types"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// Begin handles POST /transaction/begin.
func Begin(c *fiber.Ctx) error {
	var req types.BeginTransactionRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	transactionID, err := app.Transactions.Begin(c.UserContext(), req.TransactionID, req.Options)
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseCreatedWithData(c, "Transaction started", fiber.Map{
		"transaction_id": transactionID,
	})
}

// Commit handles POST /transaction/:id/commit.
func Commit(c *fiber.Ctx) error {
	transactionID := c.Params("id")

	if err := app.Transactions.Commit(c.UserContext(), transactionID); err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Transaction committed", fiber.Map{
		"transaction_id": transactionID,
	})
}

// Rollback handles POST /transaction/:id/rollback.
func Rollback(c *fiber.Ctx) error {
	transactionID := c.Params("id")

	if err := app.Transactions.Rollback(c.UserContext(), transactionID); err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Transaction rolled back", fiber.Map{
		"transaction_id": transactionID,
	})
}

// Status handles GET /transaction/:id. The remote server is authoritative,
// the local record only marks whether this instance opened it.
func Status(c *fiber.Ctx) error {
	transactionID := c.Params("id")

	result, err := app.Transactions.Status(c.UserContext(), transactionID)
	if err != nil {
		return app.RespondError(c, err)
	}
	result["locally_tracked"] = app.Transactions.IsActive(c.UserContext(), transactionID)
	return router.ResponseSuccessWithData(c, "Success", result)
}

// List handles GET /transaction and returns the locally tracked open
// transactions.
func List(c *fiber.Ctx) error {
	records, err := app.Transactions.Active(c.UserContext())
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to list local transaction records")
		return router.ResponseInternalError(c, "Failed to list transactions")
	}
	return router.ResponseSuccessWithData(c, "Success", fiber.Map{"transactions": records})
}
