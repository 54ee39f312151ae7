package webhook

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/pkg/log"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"
)

// Controller exposes the inbound webhook endpoint and the subscription CRUD.
type Controller struct {
	verifier   *Verifier
	dispatcher *Dispatcher
	store      *Store
}

func NewController(verifier *Verifier, dispatcher *Dispatcher, store *Store) *Controller {
	return &Controller{verifier: verifier, dispatcher: dispatcher, store: store}
}

// Receive handles POST /webhook, the endpoint the remote WhatsApp server
// pushes events to. The signature is checked over the raw request body
// before any parsing.
func (ct *Controller) Receive(c *fiber.Ctx) error {
	raw := c.Body()

	if err := ct.verifier.Verify(raw, c.Get(SignatureHeader)); err != nil {
		var sigErr *SignatureInvalidError
		if errors.As(err, &sigErr) {
			log.Print(c).Warn("Webhook rejected, invalid signature")
			return router.ResponseForbidden(c, "Invalid webhook signature")
		}
		return router.ResponseInternalError(c, "Webhook verification failed")
	}

	var event Event
	if err := json.Unmarshal(raw, &event); err != nil || event.Event == "" {
		return router.ResponseUnprocessable(c, "Invalid webhook payload")
	}

	ct.dispatcher.Dispatch(c.UserContext(), event)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// ListSubscriptions handles GET /webhook/subscriptions.
func (ct *Controller) ListSubscriptions(c *fiber.Ctx) error {
	if ct.store == nil {
		return router.ResponseServiceUnavailable(c, "Subscriber forwarding is not configured")
	}

	subscriptions, err := ct.store.AllSubscriptions(c.UserContext())
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to list webhook subscriptions")
		return router.ResponseInternalError(c, "Failed to list subscriptions")
	}
	if subscriptions == nil {
		subscriptions = []Subscription{}
	}
	return router.ResponseSuccessWithData(c, "Success", fiber.Map{"subscriptions": subscriptions})
}

// CreateSubscription handles POST /webhook/subscriptions.
func (ct *Controller) CreateSubscription(c *fiber.Ctx) error {
	if ct.store == nil {
		return router.ResponseServiceUnavailable(c, "Subscriber forwarding is not configured")
	}

	var req struct {
		URL    string   `json:"url"`
		Secret string   `json:"secret"`
		Events []string `json:"events"`
	}
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}
	if req.URL == "" {
		return router.ResponseUnprocessable(c, "Subscription URL is required")
	}

	events := make([]EventType, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, EventType(e))
	}

	id, err := ct.store.CreateSubscription(c.UserContext(), req.URL, req.Secret, events)
	if err != nil {
		log.Print(c).WithError(err).Error("Failed to create webhook subscription")
		return router.ResponseInternalError(c, "Failed to create subscription")
	}
	return router.ResponseCreatedWithData(c, "Subscription created", fiber.Map{"id": id})
}

// DeleteSubscription handles DELETE /webhook/subscriptions/:id.
func (ct *Controller) DeleteSubscription(c *fiber.Ctx) error {
	if ct.store == nil {
		return router.ResponseServiceUnavailable(c, "Subscriber forwarding is not configured")
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return router.ResponseBadRequest(c, "Invalid subscription id")
	}

	if err := ct.store.DeleteSubscription(c.UserContext(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return router.ResponseNotFound(c, "Subscription not found")
		}
		log.Print(c).WithError(err).Error("Failed to delete webhook subscription")
		return router.ResponseInternalError(c, "Failed to delete subscription")
	}
	return router.ResponseSuccess(c, "Subscription deleted")
}
