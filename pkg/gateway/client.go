package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/desterroshop/whatsapp-gateway/pkg/env"
	"github.com/desterroshop/whatsapp-gateway/pkg/log"
)

const maxErrorBody = 512

// Config carries the connection settings for the remote WhatsApp server.
type Config struct {
	BaseURL        string
	APIToken       string
	APIKey         string
	DefaultSession string
	CountryCode    string
	Timeout        time.Duration

	// Outbound send throttle. Zero SendRate disables throttling.
	SendRate  float64
	SendBurst int

	// HTTPClient overrides the default client, used by tests.
	HTTPClient *http.Client
}

// ConfigFromEnv builds a Config from the WHATSAPP_* environment surface.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:        env.GetEnvStringOrDefault("WHATSAPP_API_URL", "http://localhost:3000"),
		APIToken:       env.GetEnvStringOrDefault("WHATSAPP_API_TOKEN", ""),
		APIKey:         env.GetEnvStringOrDefault("WHATSAPP_API_KEY", ""),
		DefaultSession: env.GetEnvStringOrDefault("WHATSAPP_DEFAULT_SESSION", "default"),
		CountryCode:    env.GetEnvStringOrDefault("WHATSAPP_COUNTRY_CODE", "55"),
		Timeout:        env.GetEnvDurationOrDefault("WHATSAPP_REQUEST_TIMEOUT", 30*time.Second),
		SendRate:       env.GetEnvFloatOrDefault("WHATSAPP_SEND_RATE", 0),
		SendBurst:      env.GetEnvIntOrDefault("WHATSAPP_SEND_BURST", 1),
	}
}

// Client talks JSON-over-HTTP to the remote WhatsApp automation server.
//
// A Client value is immutable: WithToken, WithAPIKey, WithCorrelationID and
// WithTransaction return configured copies, so one shared Client can serve
// many concurrent logical requests without cross-talk. The embedded
// http.Client and rate limiter are themselves safe for concurrent use and are
// shared across copies.
type Client struct {
	baseURL        string
	apiToken       string
	apiKey         string
	defaultSession string
	countryCode    string
	correlationID  string
	transactionID  string

	http    *http.Client
	limiter *rate.Limiter
}

// Result is a decoded JSON response from the remote server.
type Result map[string]interface{}

// Bool returns a boolean field, defaulting when absent or mistyped.
func (r Result) Bool(key string, def bool) bool {
	if v, ok := r[key].(bool); ok {
		return v
	}
	return def
}

// String returns a string field or empty.
func (r Result) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// NewClient builds a Client from a Config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.SendRate > 0 {
		burst := cfg.SendBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), burst)
	}

	defaultSession := cfg.DefaultSession
	if defaultSession == "" {
		defaultSession = "default"
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiToken:       cfg.APIToken,
		apiKey:         cfg.APIKey,
		defaultSession: defaultSession,
		countryCode:    cfg.CountryCode,
		http:           httpClient,
		limiter:        limiter,
	}
}

// WithToken returns a copy of the client using the given bearer token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.apiToken = token
	return &clone
}

// WithAPIKey returns a copy of the client authenticating with an API key.
func (c *Client) WithAPIKey(key string) *Client {
	clone := *c
	clone.apiKey = key
	return &clone
}

// WithCorrelationID returns a copy of the client that tags every outbound
// call and log line with the given correlation id. An empty id generates a
// fresh one.
func (c *Client) WithCorrelationID(correlationID string) *Client {
	clone := *c
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	clone.correlationID = correlationID
	return &clone
}

// WithTransaction returns a copy of the client that embeds the transaction id
// in every outbound payload so the remote server groups the operations.
func (c *Client) WithTransaction(transactionID string) *Client {
	clone := *c
	clone.transactionID = transactionID
	return &clone
}

// CorrelationID returns the attached correlation id, if any.
func (c *Client) CorrelationID() string { return c.correlationID }

// TransactionID returns the attached transaction id, if any.
func (c *Client) TransactionID() string { return c.transactionID }

// DefaultSession returns the configured default session id.
func (c *Client) DefaultSession() string { return c.defaultSession }

// CountryCode returns the configured country-code prefix used for phone
// normalization, so callers can key local records by the same canonical form
// that goes over the wire.
func (c *Client) CountryCode() string { return c.countryCode }

// session resolves an optional session id against the configured default.
func (c *Client) session(sessionID string) string {
	if sessionID == "" {
		return c.defaultSession
	}
	return sessionID
}

// normalize applies the canonical phone form with the configured country code.
func (c *Client) normalize(phone string) string {
	return NormalizePhone(phone, c.countryCode)
}

// payload builds the base body for a session-scoped operation, attaching the
// transaction id when one is set.
func (c *Client) payload(sessionID string, fields map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"sessionId": c.session(sessionID),
	}
	for k, v := range fields {
		body[k] = v
	}
	if c.transactionID != "" {
		body["transaction_id"] = c.transactionID
	}
	return body
}

// do issues one HTTP call and classifies the outcome. Failures are logged
// with operation, target and correlation id before being returned.
func (c *Client) do(ctx context.Context, op, method, path, target string, body interface{}) (Result, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &ValidationError{Field: "payload", Reason: err.Error()}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &ValidationError{Field: "request", Reason: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	} else if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.correlationID != "" {
		req.Header.Set("X-Correlation-ID", c.correlationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		connErr := &ConnectivityError{Op: op, Err: err}
		log.Op(op, target, c.correlationID).WithError(err).Error("Gateway connectivity failure")
		return nil, connErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		connErr := &ConnectivityError{Op: op, Err: err}
		log.Op(op, target, c.correlationID).WithError(err).Error("Gateway response read failure")
		return nil, connErr
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		authErr := &AuthenticationError{Op: op, Status: resp.StatusCode}
		log.Op(op, target, c.correlationID).WithField("status", resp.StatusCode).Error("Gateway authentication rejected")
		return nil, authErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		remoteErr := &RemoteServiceError{Op: op, Status: resp.StatusCode, Body: snippet}
		log.Op(op, target, c.correlationID).WithField("status", resp.StatusCode).Error("Gateway remote service failure: " + snippet)
		return nil, remoteErr
	}

	result := Result{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			remoteErr := &RemoteServiceError{Op: op, Status: resp.StatusCode, Body: "malformed JSON response"}
			log.Op(op, target, c.correlationID).WithError(err).Error("Gateway response decode failure")
			return nil, remoteErr
		}
	}
	return result, nil
}

// send wraps do for message delivery operations, applying the outbound
// throttle when one is configured.
func (c *Client) send(ctx context.Context, op, path, target string, body interface{}) (Result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			connErr := &ConnectivityError{Op: op, Err: err}
			log.Op(op, target, c.correlationID).WithError(err).Error("Gateway send throttle aborted")
			return nil, connErr
		}
	}
	return c.do(ctx, op, http.MethodPost, path, target, body)
}
