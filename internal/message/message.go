package message

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/internal/history"
	"github.com/desterroshop/whatsapp-gateway/internal/types"
	"github.com/desterroshop/whatsapp-gateway/pkg/breaker"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// TransactionHeader lets callers bind an outbound message to an open
// transaction without changing the request body.
const TransactionHeader = "X-Transaction-ID"

// execute runs a gateway call through the circuit breaker with a
// request-scoped client.
func execute(c *fiber.Ctx, op func(ctx context.Context, client *gateway.Client) (gateway.Result, error)) (gateway.Result, error) {
	client := app.Client(c)
	if txID := c.Get(TransactionHeader); txID != "" {
		client = client.WithTransaction(txID)
	}
	return breaker.Execute(c.UserContext(), app.Breaker, app.ServiceWhatsAppAPI,
		func(ctx context.Context) (gateway.Result, error) {
			return op(ctx, client)
		}, nil)
}

// record appends an outbound message to the local log when it is configured.
func record(c *fiber.Ctx, result gateway.Result, sessionID, to, body, msgType string) {
	if app.History == nil {
		return
	}
	if sessionID == "" {
		sessionID = app.Gateway.DefaultSession()
	}
	err := app.History.Record(c.UserContext(), history.Message{
		SessionID: sessionID,
		MessageID: result.String("messageId"),
		Direction: "outbound",
		To:        gateway.NormalizePhone(to, app.Gateway.CountryCode()),
		Body:      body,
		Type:      msgType,
	})
	if err != nil {
		log.Print(c).WithError(err).Warn("Failed to record outbound message")
	}
}

func respond(c *fiber.Ctx, result gateway.Result, err error) error {
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Message sent", result)
}

// SendText handles POST /messages/send-text.
func SendText(c *fiber.Ctx) error {
	var req types.SendTextRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.Message == "" {
		return router.ResponseUnprocessable(c, "Message is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendText(ctx, req.To, req.Message, req.Options, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Message, "text")
	}
	return respond(c, result, err)
}

// SendTemplate handles POST /messages/send-template.
func SendTemplate(c *fiber.Ctx) error {
	var req types.SendTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.Template == "" {
		return router.ResponseUnprocessable(c, "Template name is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendTemplate(ctx, req.To, req.Template, req.Data, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Template, "template")
	}
	return respond(c, result, err)
}

// SendImage handles POST /messages/send-image.
func SendImage(c *fiber.Ctx) error {
	return sendMediaKind(c, "image", func(ctx context.Context, client *gateway.Client, req types.SendMediaRequest) (gateway.Result, error) {
		return client.SendImage(ctx, req.To, req.URL, req.Caption, req.SessionID)
	})
}

// SendFile handles POST /messages/send-file.
func SendFile(c *fiber.Ctx) error {
	return sendMediaKind(c, "document", func(ctx context.Context, client *gateway.Client, req types.SendMediaRequest) (gateway.Result, error) {
		return client.SendFile(ctx, req.To, req.URL, req.Filename, req.SessionID)
	})
}

// SendAudio handles POST /messages/send-audio.
func SendAudio(c *fiber.Ctx) error {
	return sendMediaKind(c, "audio", func(ctx context.Context, client *gateway.Client, req types.SendMediaRequest) (gateway.Result, error) {
		return client.SendAudio(ctx, req.To, req.URL, req.SessionID)
	})
}

// SendVideo handles POST /messages/send-video.
func SendVideo(c *fiber.Ctx) error {
	return sendMediaKind(c, "video", func(ctx context.Context, client *gateway.Client, req types.SendMediaRequest) (gateway.Result, error) {
		return client.SendVideo(ctx, req.To, req.URL, req.Caption, req.SessionID)
	})
}

// SendSticker handles POST /messages/send-sticker.
func SendSticker(c *fiber.Ctx) error {
	return sendMediaKind(c, "sticker", func(ctx context.Context, client *gateway.Client, req types.SendMediaRequest) (gateway.Result, error) {
		return client.SendSticker(ctx, req.To, req.URL, req.SessionID)
	})
}

// SendMedia handles POST /messages/send-media, the generic media entry point.
func SendMedia(c *fiber.Ctx) error {
	var req types.SendMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.URL == "" {
		return router.ResponseUnprocessable(c, "Media URL is required")
	}
	if req.Type == "" {
		return router.ResponseUnprocessable(c, "Media type is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendMedia(ctx, req.To, req.URL, req.Type, req.Caption, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.URL, req.Type)
	}
	return respond(c, result, err)
}

func sendMediaKind(c *fiber.Ctx, kind string, op func(ctx context.Context, client *gateway.Client, req types.SendMediaRequest) (gateway.Result, error)) error {
	var req types.SendMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.URL == "" {
		return router.ResponseUnprocessable(c, "Media URL is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return op(ctx, client, req)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.URL, kind)
	}
	return respond(c, result, err)
}

// SendLocation handles POST /messages/send-location.
func SendLocation(c *fiber.Ctx) error {
	var req types.SendLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendLocation(ctx, req.To, req.Latitude, req.Longitude, req.Title, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Title, "location")
	}
	return respond(c, result, err)
}

// SendContact handles POST /messages/send-contact.
func SendContact(c *fiber.Ctx) error {
	var req types.SendContactRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if len(req.Contact) == 0 {
		return router.ResponseUnprocessable(c, "Contact data is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendContact(ctx, req.To, req.Contact, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, "", "contact")
	}
	return respond(c, result, err)
}

// SendButtons handles POST /messages/send-buttons.
func SendButtons(c *fiber.Ctx) error {
	var req types.SendButtonsRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.Body == "" || len(req.Buttons) == 0 {
		return router.ResponseUnprocessable(c, "Body text and buttons are required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendButtons(ctx, req.To, req.Body, req.Buttons, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Body, "buttons")
	}
	return respond(c, result, err)
}

// SendList handles POST /messages/send-list.
func SendList(c *fiber.Ctx) error {
	var req types.SendListRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.Title == "" || req.ButtonText == "" || len(req.Sections) == 0 {
		return router.ResponseUnprocessable(c, "Title, button text and sections are required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendList(ctx, req.To, req.Title, req.Description, req.ButtonText, req.Sections, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Title, "list")
	}
	return respond(c, result, err)
}

// SendPoll handles POST /messages/send-poll.
func SendPoll(c *fiber.Ctx) error {
	var req types.SendPollRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.Question == "" || len(req.Options) < 2 {
		return router.ResponseUnprocessable(c, "A question and at least two options are required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendPoll(ctx, req.To, req.Question, req.Options, req.MultiSelect, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Question, "poll")
	}
	return respond(c, result, err)
}

// SendProduct handles POST /messages/send-product.
func SendProduct(c *fiber.Ctx) error {
	var req types.SendProductRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.CatalogID == "" || req.ProductID == "" {
		return router.ResponseUnprocessable(c, "Catalog id and product id are required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendProduct(ctx, req.To, req.CatalogID, req.ProductID, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.ProductID, "product")
	}
	return respond(c, result, err)
}

// SendCatalog handles POST /messages/send-catalog.
func SendCatalog(c *fiber.Ctx) error {
	var req types.SendCatalogRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.CatalogID == "" {
		return router.ResponseUnprocessable(c, "Catalog id is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendCatalog(ctx, req.To, req.CatalogID, req.Products, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.CatalogID, "catalog")
	}
	return respond(c, result, err)
}

// SendOrder handles POST /messages/send-order.
func SendOrder(c *fiber.Ctx) error {
	var req types.SendOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if len(req.Order) == 0 {
		return router.ResponseUnprocessable(c, "Order data is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendOrder(ctx, req.To, req.Order, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, "", "order")
	}
	return respond(c, result, err)
}

// SendReaction handles POST /messages/send-reaction.
func SendReaction(c *fiber.Ctx) error {
	var req types.SendReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.MessageID == "" {
		return router.ResponseUnprocessable(c, "Message id is required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.SendReaction(ctx, req.To, req.MessageID, req.Emoji, req.SessionID)
	})
	if err == nil {
		record(c, result, req.SessionID, req.To, req.Emoji, "reaction")
	}
	return respond(c, result, err)
}

// Schedule handles POST /schedule.
func Schedule(c *fiber.Ctx) error {
	var req types.ScheduleMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.Message == "" || req.ScheduleAt == "" {
		return router.ResponseUnprocessable(c, "Message and schedule time are required")
	}
	if err := gateway.ValidatePhone(req.To); err != nil {
		return app.RespondError(c, err)
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.ScheduleMessage(ctx, req.To, req.Message, req.ScheduleAt, req.Options, req.SessionID)
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseCreatedWithData(c, "Message scheduled", result)
}

// CancelScheduled handles DELETE /schedule/:id.
func CancelScheduled(c *fiber.Ctx) error {
	messageID := c.Params("id")
	if messageID == "" {
		return router.ResponseBadRequest(c, "Message id is required")
	}

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.CancelScheduledMessage(ctx, messageID)
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Scheduled message cancelled", result)
}

// List handles GET /messages, proxying the remote server's message history
// for a phone number.
func List(c *fiber.Ctx) error {
	number := c.Query("phone")
	if number == "" {
		return router.ResponseBadRequest(c, "Query parameter phone is required")
	}
	limit := c.QueryInt("limit", 50)

	result, err := execute(c, func(ctx context.Context, client *gateway.Client) (gateway.Result, error) {
		return client.GetMessages(ctx, number, limit, c.Query("session_id"))
	})
	if err != nil {
		return app.RespondError(c, err)
	}
	return router.ResponseSuccessWithData(c, "Success", result)
}
