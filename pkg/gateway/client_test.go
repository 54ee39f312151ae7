package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method  string
	path    string
	headers http.Header
	body    map[string]interface{}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *captured) {
	t.Helper()

	cap := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.method = r.Method
		cap.path = r.URL.Path
		cap.headers = r.Header.Clone()
		cap.body = map[string]interface{}{}
		_ = json.NewDecoder(r.Body).Decode(&cap.body)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:        server.URL,
		APIToken:       "test-token",
		DefaultSession: "default",
		CountryCode:    "55",
	})
	return client, cap
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true,"messageId":"msg-1"}`))
}

func TestSendTextSuccess(t *testing.T) {
	client, cap := newTestClient(t, okHandler)

	result, err := client.SendText(context.Background(), "+55 21 99999-8888", "hello", nil, "")
	require.NoError(t, err)

	assert.True(t, result.Bool("success", false))
	assert.Equal(t, "msg-1", result.String("messageId"))
	assert.Equal(t, http.MethodPost, cap.method)
	assert.Equal(t, "/messages/send-text", cap.path)
	assert.Equal(t, "Bearer test-token", cap.headers.Get("Authorization"))
	assert.Equal(t, "5521999998888", cap.body["to"])
	assert.Equal(t, "default", cap.body["sessionId"])
}

func TestSendTextValidation(t *testing.T) {
	client, _ := newTestClient(t, okHandler)

	_, err := client.SendText(context.Background(), "", "hello", nil, "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = client.SendText(context.Background(), "5521999998888", "", nil, "")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "message", validationErr.Field)
}

func TestCorrelationIDHeader(t *testing.T) {
	client, cap := newTestClient(t, okHandler)

	_, err := client.WithCorrelationID("corr-123").SendText(context.Background(), "5521999998888", "hi", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "corr-123", cap.headers.Get("X-Correlation-ID"))
}

func TestWithCorrelationIDGeneratesWhenEmpty(t *testing.T) {
	client, _ := newTestClient(t, okHandler)

	tagged := client.WithCorrelationID("")
	assert.NotEmpty(t, tagged.CorrelationID())
	assert.NotEqual(t, tagged.CorrelationID(), client.WithCorrelationID("").CorrelationID())
}

func TestTransactionIDInjectedIntoPayload(t *testing.T) {
	client, cap := newTestClient(t, okHandler)

	_, err := client.WithTransaction("tx-9").SendText(context.Background(), "5521999998888", "hi", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "tx-9", cap.body["transaction_id"])
}

func TestClientCopiesAreIndependent(t *testing.T) {
	client, _ := newTestClient(t, okHandler)

	tagged := client.WithCorrelationID("corr-a").WithTransaction("tx-a")
	assert.Empty(t, client.CorrelationID())
	assert.Empty(t, client.TransactionID())
	assert.Equal(t, "corr-a", tagged.CorrelationID())
	assert.Equal(t, "tx-a", tagged.TransactionID())
}

func TestAPIKeyFallback(t *testing.T) {
	cap := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.headers = r.Header.Clone()
		okHandler(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "key-1"})
	_, err := client.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cap.headers.Get("Authorization"))
	assert.Equal(t, "key-1", cap.headers.Get("X-API-Key"))
}

func TestAuthenticationErrorClassification(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetStatus(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.False(t, Countable(err))
}

func TestRemoteServiceErrorTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 2048)
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(long))
	})

	_, err := client.GetStatus(context.Background())
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Len(t, remoteErr.Body, maxErrorBody)
	assert.True(t, Countable(err))
}

func TestConnectivityErrorClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(okHandler))
	server.Close() // refused connection

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.GetStatus(context.Background())
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.True(t, Countable(err))
}

func TestMalformedResponseIsRemoteServiceError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.GetStatus(context.Background())
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
}

func TestSendReactionRejectsNonEmoji(t *testing.T) {
	client, _ := newTestClient(t, okHandler)

	_, err := client.SendReaction(context.Background(), "5521999998888", "msg-1", "zzz", "")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "emoji", validationErr.Field)
}

func TestSendReactionEmptyEmojiRemoves(t *testing.T) {
	client, cap := newTestClient(t, okHandler)

	_, err := client.SendReaction(context.Background(), "5521999998888", "msg-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "", cap.body["emoji"])
}

func TestScheduleMessageNormalizesPhone(t *testing.T) {
	client, cap := newTestClient(t, okHandler)

	result, err := client.ScheduleMessage(context.Background(), "+55 (21) 99999-8888", "later", "2026-09-01T10:00:00Z", nil, "")
	require.NoError(t, err)

	assert.True(t, result.Bool("success", false))
	assert.Equal(t, "/schedule", cap.path)
	assert.Equal(t, "5521999998888", cap.body["to"])
	assert.Equal(t, "later", cap.body["message"])
	assert.Equal(t, "2026-09-01T10:00:00Z", cap.body["scheduleAt"])
	assert.Equal(t, "default", cap.body["sessionId"])
}

func TestScheduleMessageCarriesTransactionID(t *testing.T) {
	client, cap := newTestClient(t, okHandler)

	options := map[string]interface{}{"priority": "high"}
	_, err := client.WithTransaction("tx-9").ScheduleMessage(context.Background(), "21999998888", "later", "2026-09-01T10:00:00Z", options, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "tx-9", cap.body["transaction_id"])
	assert.Equal(t, "sess-1", cap.body["sessionId"])
	assert.Equal(t, "high", cap.body["priority"])
	assert.Equal(t, "5521999998888", cap.body["to"])
}

func TestScheduleMessageValidation(t *testing.T) {
	client, _ := newTestClient(t, okHandler)

	var validationErr *ValidationError

	_, err := client.ScheduleMessage(context.Background(), "", "later", "2026-09-01T10:00:00Z", nil, "")
	require.ErrorAs(t, err, &validationErr)

	_, err = client.ScheduleMessage(context.Background(), "21999998888", "", "2026-09-01T10:00:00Z", nil, "")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "message", validationErr.Field)

	_, err = client.ScheduleMessage(context.Background(), "21999998888", "later", "", nil, "")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "schedule_at", validationErr.Field)
}
