package history

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fiberApp := fiber.New()
	fiberApp.Get("/history/:number", NewHandler(NewStore(db), "55").ListByNumber)
	return fiberApp, mock
}

func messageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "session_id", "message_id", "direction",
		"from_number", "to_number", "body", "type", "metadata", "created_at",
	})
}

// Lookups must hit the same canonical number the writers store, so a query
// with local formatting still finds rows keyed by the prefixed form.
func TestListByNumberQueriesCanonicalForm(t *testing.T) {
	fiberApp, mock := newTestHandler(t)

	rows := messageRows().AddRow(
		int64(1), "default", "msg-1", "outbound",
		"", "5521999998888", "hello", "text", nil, time.Now(),
	)
	mock.ExpectQuery("FROM whatsapp_messages").
		WithArgs("5521999998888", 50).
		WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/history/21999998888", nil)
	resp, err := fiberApp.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "5521999998888", data["number"])

	messages, ok := data["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByNumberAlreadyCanonicalIsUnchanged(t *testing.T) {
	fiberApp, mock := newTestHandler(t)

	mock.ExpectQuery("FROM whatsapp_messages").
		WithArgs("5521999998888", 50).
		WillReturnRows(messageRows())

	req := httptest.NewRequest(http.MethodGet, "/history/5521999998888", nil)
	resp, err := fiberApp.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}
