package session

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desterroshop/whatsapp-gateway/internal/app"
	"github.com/desterroshop/whatsapp-gateway/pkg/gateway"
)

func TestStatusWaitPollsUntilConnected(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls < 2 {
			_, _ = w.Write([]byte(`{"connected":false}`))
			return
		}
		_, _ = w.Write([]byte(`{"connected":true}`))
	}))
	defer server.Close()

	prev := app.Gateway
	app.Gateway = gateway.NewClient(gateway.Config{
		BaseURL:        server.URL,
		APIToken:       "test-token",
		DefaultSession: "default",
		CountryCode:    "55",
	})
	t.Cleanup(func() { app.Gateway = prev })

	t.Setenv("WHATSAPP_QR_POLL_INTERVAL", "5ms")
	t.Setenv("WHATSAPP_QR_TIMEOUT", "500ms")

	fiberApp := fiber.New()
	fiberApp.Get("/sessions/:id/status", Status)

	req := httptest.NewRequest(http.MethodGet, "/sessions/sess-1/status?wait=1", nil)
	resp, err := fiberApp.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["connected"])
	assert.GreaterOrEqual(t, calls, 2)
}
