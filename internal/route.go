package internal

import (
	"github.com/gofiber/fiber/v2"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/auth"
	"github.com/desterroshop/whatsapp-gateway/pkg/router"

	ctlAuth "github.com/desterroshop/whatsapp-gateway/internal/auth"
	ctlCircuit "github.com/desterroshop/whatsapp-gateway/internal/circuit"
	ctlHistory "github.com/desterroshop/whatsapp-gateway/internal/history"
	ctlIndex "github.com/desterroshop/whatsapp-gateway/internal/index"
	ctlLogs "github.com/desterroshop/whatsapp-gateway/internal/logs"
	ctlMessage "github.com/desterroshop/whatsapp-gateway/internal/message"
	ctlSession "github.com/desterroshop/whatsapp-gateway/internal/session"
	ctlTransactions "github.com/desterroshop/whatsapp-gateway/internal/transactions"
	ctlWebhook "github.com/desterroshop/whatsapp-gateway/internal/webhook"
)

func Routes(fiberApp *fiber.App) {
	base := router.BaseURL

	// Route for Index
	// ---------------------------------------------
	if base == "" {
		fiberApp.Get("/", ctlIndex.Index)
	} else {
		fiberApp.Get(base, ctlIndex.Index)
		fiberApp.Get(base+"/", ctlIndex.Index)
	}
	fiberApp.Get(base+"/health", ctlIndex.Health)
	fiberApp.Get(base+"/status", ctlIndex.Index)

	// Route for Authentication
	// ---------------------------------------------
	fiberApp.Post(base+"/auth", ctlAuth.Login)
	fiberApp.Post(base+"/auth/refresh", ctlAuth.Refresh)

	// Route for Inbound Webhook (signature verified, not JWT)
	// ---------------------------------------------
	webhookCtl := ctlWebhook.NewController(app.Verifier, app.Dispatcher, app.Webhooks)
	fiberApp.Post(base+"/webhook", webhookCtl.Receive)

	bearer := auth.BearerAuth()

	// Route for Messages
	// ---------------------------------------------
	fiberApp.Post(base+"/messages/send-text", bearer, ctlMessage.SendText)
	fiberApp.Post(base+"/messages/send-template", bearer, ctlMessage.SendTemplate)
	fiberApp.Post(base+"/messages/send-image", bearer, ctlMessage.SendImage)
	fiberApp.Post(base+"/messages/send-file", bearer, ctlMessage.SendFile)
	fiberApp.Post(base+"/messages/send-audio", bearer, ctlMessage.SendAudio)
	fiberApp.Post(base+"/messages/send-video", bearer, ctlMessage.SendVideo)
	fiberApp.Post(base+"/messages/send-sticker", bearer, ctlMessage.SendSticker)
	fiberApp.Post(base+"/messages/send-media", bearer, ctlMessage.SendMedia)
	fiberApp.Post(base+"/messages/send-location", bearer, ctlMessage.SendLocation)
	fiberApp.Post(base+"/messages/send-contact", bearer, ctlMessage.SendContact)
	fiberApp.Post(base+"/messages/send-buttons", bearer, ctlMessage.SendButtons)
	fiberApp.Post(base+"/messages/send-list", bearer, ctlMessage.SendList)
	fiberApp.Post(base+"/messages/send-poll", bearer, ctlMessage.SendPoll)
	fiberApp.Post(base+"/messages/send-product", bearer, ctlMessage.SendProduct)
	fiberApp.Post(base+"/messages/send-catalog", bearer, ctlMessage.SendCatalog)
	fiberApp.Post(base+"/messages/send-order", bearer, ctlMessage.SendOrder)
	fiberApp.Post(base+"/messages/send-reaction", bearer, ctlMessage.SendReaction)
	fiberApp.Get(base+"/messages", bearer, ctlMessage.List)

	// Route for Scheduled Messages
	// ---------------------------------------------
	fiberApp.Post(base+"/schedule", bearer, ctlMessage.Schedule)
	fiberApp.Delete(base+"/schedule/:id", bearer, ctlMessage.CancelScheduled)

	// Route for Sessions
	// ---------------------------------------------
	fiberApp.Get(base+"/sessions", bearer, ctlSession.List)
	fiberApp.Post(base+"/sessions", bearer, ctlSession.Create)
	fiberApp.Delete(base+"/sessions/:id", bearer, ctlSession.Delete)
	fiberApp.Get(base+"/sessions/:id/status", bearer, ctlSession.Status)
	fiberApp.Get(base+"/sessions/:id", bearer, ctlSession.Status)
	fiberApp.Get(base+"/sessions/:id/qr", bearer, ctlSession.QR)

	// Route for Circuit Breaker
	// ---------------------------------------------
	fiberApp.Get(base+"/circuit-breaker", bearer, ctlCircuit.List)
	fiberApp.Get(base+"/circuit-breaker/:service", bearer, ctlCircuit.Show)
	fiberApp.Post(base+"/circuit-breaker/:service/reset", bearer, ctlCircuit.Reset)

	// Route for Transactions
	// ---------------------------------------------
	fiberApp.Get(base+"/transaction", bearer, ctlTransactions.List)
	fiberApp.Post(base+"/transaction/begin", bearer, ctlTransactions.Begin)
	fiberApp.Post(base+"/transaction/:id/commit", bearer, ctlTransactions.Commit)
	fiberApp.Post(base+"/transaction/:id/rollback", bearer, ctlTransactions.Rollback)
	fiberApp.Get(base+"/transaction/:id", bearer, ctlTransactions.Status)

	// Route for Message History
	// ---------------------------------------------
	historyCtl := ctlHistory.NewHandler(app.History, app.Gateway.CountryCode())
	fiberApp.Get(base+"/history/:number", bearer, historyCtl.ListByNumber)

	// Route for Correlated Logs
	// ---------------------------------------------
	fiberApp.Get(base+"/logs/correlation/:id", bearer, ctlLogs.ByCorrelationID)

	// Route for Webhook Subscriptions
	// ---------------------------------------------
	fiberApp.Get(base+"/webhook/subscriptions", bearer, webhookCtl.ListSubscriptions)
	fiberApp.Post(base+"/webhook/subscriptions", bearer, webhookCtl.CreateSubscription)
	fiberApp.Delete(base+"/webhook/subscriptions/:id", bearer, webhookCtl.DeleteSubscription)
}
