package gateway

import (
	"context"
	"net/http"
)

// TransactionRemote is the transaction-control capability of the gateway
// client, consumed by the transaction coordinator.
type TransactionRemote interface {
	BeginTransaction(ctx context.Context, transactionID string, options map[string]interface{}) (Result, error)
	CommitTransaction(ctx context.Context, transactionID string) (Result, error)
	RollbackTransaction(ctx context.Context, transactionID string) (Result, error)
	GetTransactionStatus(ctx context.Context, transactionID string) (Result, error)
}

var _ TransactionRemote = (*Client)(nil)

// Authenticate exchanges an API key for a remote access token. An empty key
// falls back to the configured one.
func (c *Client) Authenticate(ctx context.Context, apiKey string) (Result, error) {
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, &ValidationError{Field: "api_key", Reason: "api key is required"}
	}
	return c.do(ctx, "Authenticate", http.MethodPost, "/auth", "", map[string]interface{}{
		"api_key": apiKey,
	})
}

// RefreshToken exchanges a refresh token for a fresh remote access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (Result, error) {
	if refreshToken == "" {
		return nil, &ValidationError{Field: "refresh_token", Reason: "refresh token is required"}
	}
	return c.do(ctx, "RefreshToken", http.MethodPost, "/auth/refresh", "", map[string]interface{}{
		"refresh_token": refreshToken,
	})
}

// BeginTransaction opens a server-side transaction under the given id.
func (c *Client) BeginTransaction(ctx context.Context, transactionID string, options map[string]interface{}) (Result, error) {
	if transactionID == "" {
		return nil, &ValidationError{Field: "transaction_id", Reason: "transaction id is required"}
	}
	return c.do(ctx, "BeginTransaction", http.MethodPost, "/transaction/begin", transactionID, map[string]interface{}{
		"transaction_id": transactionID,
		"options":        options,
	})
}

// CommitTransaction makes all operations grouped under the id durable.
func (c *Client) CommitTransaction(ctx context.Context, transactionID string) (Result, error) {
	if transactionID == "" {
		return nil, &ValidationError{Field: "transaction_id", Reason: "transaction id is required"}
	}
	return c.do(ctx, "CommitTransaction", http.MethodPost, "/transaction/commit", transactionID, map[string]interface{}{
		"transaction_id": transactionID,
	})
}

// RollbackTransaction discards all operations grouped under the id.
func (c *Client) RollbackTransaction(ctx context.Context, transactionID string) (Result, error) {
	if transactionID == "" {
		return nil, &ValidationError{Field: "transaction_id", Reason: "transaction id is required"}
	}
	return c.do(ctx, "RollbackTransaction", http.MethodPost, "/transaction/rollback", transactionID, map[string]interface{}{
		"transaction_id": transactionID,
	})
}

// GetTransactionStatus reports the remote server's view of a transaction.
func (c *Client) GetTransactionStatus(ctx context.Context, transactionID string) (Result, error) {
	if transactionID == "" {
		return nil, &ValidationError{Field: "transaction_id", Reason: "transaction id is required"}
	}
	return c.do(ctx, "GetTransactionStatus", http.MethodGet, "/transaction/"+transactionID, transactionID, nil)
}

// GetCircuitBreakerStatus fetches the remote server's breaker view, either
// for one service or all of them.
func (c *Client) GetCircuitBreakerStatus(ctx context.Context, service string) (Result, error) {
	path := "/circuit-breaker"
	if service != "" {
		path += "/" + service
	}
	return c.do(ctx, "GetCircuitBreakerStatus", http.MethodGet, path, service, nil)
}

// ResetCircuitBreaker forces a remote-side breaker back to closed.
func (c *Client) ResetCircuitBreaker(ctx context.Context, service string) (Result, error) {
	if service == "" {
		return nil, &ValidationError{Field: "service", Reason: "service name is required"}
	}
	return c.do(ctx, "ResetCircuitBreaker", http.MethodPost, "/circuit-breaker/"+service+"/reset", service, nil)
}

// GetLogsByCorrelationID fetches remote log lines tagged with a correlation id.
func (c *Client) GetLogsByCorrelationID(ctx context.Context, correlationID string) (Result, error) {
	if correlationID == "" {
		return nil, &ValidationError{Field: "correlation_id", Reason: "correlation id is required"}
	}
	return c.do(ctx, "GetLogsByCorrelationID", http.MethodGet, "/logs/correlation/"+correlationID, correlationID, nil)
}

// GetStatus probes the remote server's health endpoint.
func (c *Client) GetStatus(ctx context.Context) (Result, error) {
	return c.do(ctx, "GetStatus", http.MethodGet, "/status", "", nil)
}
