package webhook

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(secret string) (*fiber.App, *Dispatcher) {
	dispatcher := NewDispatcher(nil)
	controller := NewController(NewVerifier(secret), dispatcher, nil)

	app := fiber.New()
	app.Post("/webhook", controller.Receive)
	return app, dispatcher
}

func postWebhook(t *testing.T, app *fiber.App, body []byte, signature string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestReceiveValidEvent(t *testing.T) {
	app, dispatcher := newTestApp("top-secret")

	var received *MessageReceived
	dispatcher.Subscribe(Handlers{
		OnMessageReceived: func(n MessageReceived) { received = &n },
	})

	body := []byte(`{"event":"message.received","timestamp":1700000000000,"data":{"from":"5521999998888","body":"hi"}}`)
	resp := postWebhook(t, app, body, Sign(body, "top-secret"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Equal(t, true, decoded["success"])

	require.NotNil(t, received)
	assert.Equal(t, "5521999998888", received.From)
}

func TestReceiveInvalidSignature(t *testing.T) {
	app, dispatcher := newTestApp("top-secret")

	dispatched := false
	dispatcher.Subscribe(Handlers{
		OnMessageReceived: func(MessageReceived) { dispatched = true },
		OnSessionEvent:    func(SessionEvent) { dispatched = true },
	})

	body := []byte(`{"event":"message.received","data":{}}`)
	resp := postWebhook(t, app, body, "sha256=deadbeef")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, dispatched)
}

func TestReceiveMissingSignatureFailsClosed(t *testing.T) {
	app, _ := newTestApp("top-secret")

	body := []byte(`{"event":"message.received","data":{}}`)
	resp := postWebhook(t, app, body, "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReceiveInvalidPayload(t *testing.T) {
	app, _ := newTestApp("top-secret")

	body := []byte(`{"data":{}}`)
	resp := postWebhook(t, app, body, Sign(body, "top-secret"))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestReceiveNoSecretSkipsVerification(t *testing.T) {
	app, dispatcher := newTestApp("")

	var seen string
	dispatcher.Subscribe(Handlers{
		OnSessionEvent: func(n SessionEvent) { seen = n.Event },
	})

	body := []byte(`{"event":"session.ready","data":{"sessionId":"default"}}`)
	resp := postWebhook(t, app, body, "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "session.ready", seen)
}
