package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/kilianp07/parkagent/auth"
	corepayment "github.com/kilianp07/parkagent/core/payment"
)

// GatewayConfig configures the HTTP payment gateway.
type GatewayConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	// OAuth fetches bearer tokens with client credentials instead of the
	// static Token.
	OAuth    *auth.Conf    `json:"oauth"`
	RetryMax int           `json:"retry_max"`
	Timeout  time.Duration `json:"timeout"`
}

// SetDefaults applies 3 retries and a 10s timeout.
func (c *GatewayConfig) SetDefaults() {
	if c.RetryMax == 0 {
		c.RetryMax = 3
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Validate checks the gateway URL.
func (c GatewayConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("payment gateway url is required")
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("payment gateway retry_max must not be negative")
	}
	if c.OAuth != nil {
		if err := c.OAuth.Validate(); err != nil {
			return fmt.Errorf("payment gateway oauth: %w", err)
		}
	}
	return nil
}

// GatewayPayer posts transfer requests to a settlement service and returns
// the transaction hash it reports.
type GatewayPayer struct {
	url    string
	token  string
	creds  *auth.ClientCred
	client *retryablehttp.Client
}

type gatewayRequest struct {
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference,omitempty"`
}

type gatewayResponse struct {
	TxHash string `json:"tx_hash"`
	Error  string `json:"error,omitempty"`
}

// NewGatewayPayer builds a payer that retries connection errors and the
// gateway's transient statuses. Every attempt carries the same
// Idempotency-Key so the gateway can drop duplicates of a transfer.
func NewGatewayPayer(cfg GatewayConfig) (*GatewayPayer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.CheckRetry = retryPolicy
	client.HTTPClient.Timeout = cfg.Timeout
	g := &GatewayPayer{url: cfg.URL, token: cfg.Token, client: client}
	if cfg.OAuth != nil {
		g.creds = auth.NewClientCred(*cfg.OAuth)
	}
	return g, nil
}

// Pay implements corepayment.Payer.
func (g *GatewayPayer) Pay(ctx context.Context, req corepayment.Request) (corepayment.Receipt, error) {
	if err := req.Validate(); err != nil {
		return corepayment.Receipt{}, err
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	body, err := json.Marshal(gatewayRequest(req))
	if err != nil {
		return corepayment.Receipt{}, err
	}
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return corepayment.Receipt{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.Reference)
	switch {
	case g.creds != nil:
		if err := g.creds.SetAuthHeader(ctx, httpReq.Request); err != nil {
			return corepayment.Receipt{}, fmt.Errorf("payment gateway: %w", err)
		}
	case g.token != "":
		httpReq.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return corepayment.Receipt{}, fmt.Errorf("payment gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out gatewayResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil && resp.StatusCode < 300 {
		return corepayment.Receipt{}, fmt.Errorf("payment gateway: decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return corepayment.Receipt{}, fmt.Errorf("payment gateway: status %d: %s", resp.StatusCode, msg)
	}
	if out.TxHash == "" {
		return corepayment.Receipt{}, fmt.Errorf("payment gateway: response has no tx_hash")
	}
	return corepayment.Receipt{TxHash: out.TxHash, To: req.To, Amount: req.Amount, Time: time.Now()}, nil
}

// retryPolicy retries transport failures the default policy deems
// recoverable, plus 429, 502, 503 and 504. A 500 may mean the transfer was
// executed, so it is returned to the caller as is.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}
