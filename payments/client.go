// Package payments integrates the PayFlow gateway, a third-party
// aggregator fronting M-Pesa STK push. PayFlow uses Bearer auth and a
// plain JSON request/response API; request pacing is handled with a token
// bucket limiter.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var ErrGatewayRejected = errors.New("payflow gateway rejected the request")

// TxStatus is PayFlow's transaction state.
type TxStatus string

const (
	TxPending TxStatus = "pending"
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

type STKPushRequest struct {
	Phone       string `json:"phone"`
	AmountKES   int    `json:"amount"`
	Reference   string `json:"reference"`
	Description string `json:"description,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type STKPushResponse struct {
	CheckoutID string   `json:"checkout_id"`
	Status     TxStatus `json:"status"`
	Message    string   `json:"message,omitempty"`
}

type TransactionStatus struct {
	CheckoutID string   `json:"checkout_id"`
	Status     TxStatus `json:"status"`
	Receipt    *string  `json:"receipt,omitempty"`
	Reason     *string  `json:"reason,omitempty"`
}

// Gateway is what the payment service and poller depend on; Client is the
// live implementation.
type Gateway interface {
	InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutID string) (*TransactionStatus, error)
}

// Client is the HTTP client for the PayFlow API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a PayFlow client with rate limiting.
func NewClient(baseURL, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

func (c *Client) InitiateSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResponse, error) {
	var resp STKPushResponse
	if err := c.post(ctx, "/api/v1/stkpush", req, &resp); err != nil {
		return nil, err
	}
	if resp.CheckoutID == "" {
		return nil, fmt.Errorf("%w: no checkout id in response", ErrGatewayRejected)
	}
	return &resp, nil
}

func (c *Client) QueryStatus(ctx context.Context, checkoutID string) (*TransactionStatus, error) {
	var status TransactionStatus
	if err := c.get(ctx, "/api/v1/transactions/"+checkoutID, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) post(ctx context.Context, path string, payload, dst interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), dst)
}

func (c *Client) get(ctx context.Context, path string, dst interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, dst)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, dst interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Warn("payflow request failed",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s returned %d: %s", ErrGatewayRejected, path, resp.StatusCode, truncate(respBody, 200))
	}

	if err := json.Unmarshal(respBody, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
