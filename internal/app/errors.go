package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/pkg/breaker"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
	"github.com/desterroshop/whatsapp-gateway/pkg/transaction"
)

// RespondError maps gateway, breaker and transaction failures onto the HTTP
// response envelope. Unrecognized errors become a 500.
func RespondError(c *fiber.Ctx, err error) error {
	var validationErr *gateway.ValidationError
	if errors.As(err, &validationErr) {
		return router.ResponseUnprocessable(c, validationErr.Error())
	}

	var authErr *gateway.AuthenticationError
	if errors.As(err, &authErr) {
		return router.ResponseUnauthorized(c, authErr.Error())
	}

	var openErr *breaker.CircuitOpenError
	if errors.As(err, &openErr) {
		return router.ResponseServiceUnavailable(c, openErr.Error())
	}

	var connErr *gateway.ConnectivityError
	if errors.As(err, &connErr) {
		return router.ResponseGatewayTimeout(c, connErr.Error())
	}

	var remoteErr *gateway.RemoteServiceError
	if errors.As(err, &remoteErr) {
		return router.ResponseBadGateway(c, remoteErr.Error())
	}

	var txErr *transaction.Error
	if errors.As(err, &txErr) {
		return router.ResponseBadGateway(c, txErr.Error())
	}

	log.Print(c).WithError(err).Error("Unhandled gateway error")
	return router.ResponseInternalError(c, "Internal server error")
}
