// Package payman is the client for the payment provider: payee registration,
// payment submission, payee search and balance lookup.
//
// Every call waits on a client-side rate limiter, carries the API secret
// header and is bounded by a timeout between 10 and 30 seconds. Connection
// failures are retried inside the client; provider rejections never are.
package payman

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 15 * time.Second
	MinTimeout     = 10 * time.Second
	MaxTimeout     = 30 * time.Second

	secretHeader      = "x-payman-api-secret"
	idempotencyHeader = "Idempotency-Key"
)

// Config holds client configuration
type Config struct {
	BaseURL      string
	APISecret    string
	Timeout      time.Duration // Clamped to [MinTimeout, MaxTimeout]; 0 means DefaultTimeout
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // Requests per second; 0 disables limiting
	RateBurst    int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		RetryMax:     2,
		RetryWaitMin: 250 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		RateLimit:    5,
		RateBurst:    5,
	}
}

// ClampTimeout bounds a configured timeout to the supported range.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Client talks to the payment provider's REST API.
type Client struct {
	baseURL    string
	apiSecret  string
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a provider client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = ClampTimeout(cfg.Timeout)
	rc.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		rc.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		rc.RetryWaitMax = cfg.RetryWaitMax
	}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiSecret:  cfg.APISecret,
		httpClient: rc,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// checkRetry retries connection failures for every method. Server errors
// are retried only for reads, so a payment that reached the provider is not
// submitted twice by the transport.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return !isTimeout(err), nil
	}
	if resp.Request != nil && resp.Request.Method == http.MethodGet {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
	}
	return false, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CreatePayee registers a payee.
func (c *Client) CreatePayee(ctx context.Context, details PayeeDetails) (*Payee, error) {
	var payee Payee
	if err := c.do(ctx, "create payee", http.MethodPost, "/payments/payees", details, nil, &payee); err != nil {
		return nil, err
	}
	return &payee, nil
}

// SendPayment submits a payment instruction.
func (c *Client) SendPayment(ctx context.Context, req PaymentRequest) (*Payment, error) {
	body := paymentBody{
		AmountDecimal: json.Number(req.Amount.StringFixed(2)),
		PayeeID:       req.PayeeID,
		Memo:          req.Memo,
	}
	headers := map[string]string{}
	if req.IdempotencyKey != "" {
		headers[idempotencyHeader] = req.IdempotencyKey
	}

	var payment Payment
	if err := c.do(ctx, "send payment", http.MethodPost, "/payments/send-payment", body, headers, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SearchPayees lists payees matching filter.
func (c *Client) SearchPayees(ctx context.Context, filter SearchFilter) ([]Payee, error) {
	q := url.Values{}
	if filter.Name != "" {
		q.Set("name", filter.Name)
	}
	if filter.ContactEmail != "" {
		q.Set("contactEmail", filter.ContactEmail)
	}
	if filter.Type != "" {
		q.Set("type", filter.Type)
	}
	path := "/payments/search-payees"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var payees []Payee
	if err := c.do(ctx, "search payees", http.MethodGet, path, nil, nil, &payees); err != nil {
		return nil, err
	}
	return payees, nil
}

// GetBalance returns the spendable balance in currency. The provider answers
// either with a bare number or with {"balance": n}.
func (c *Client) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	var raw json.RawMessage
	path := "/balances/currencies/" + url.PathEscape(strings.ToUpper(currency))
	if err := c.do(ctx, "get balance", http.MethodGet, path, nil, nil, &raw); err != nil {
		return decimal.Zero, err
	}

	var wrapped balanceBody
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Balance != nil {
		return *wrapped.Balance, nil
	}
	var bare decimal.Decimal
	if err := json.Unmarshal(raw, &bare); err != nil {
		return decimal.Zero, &Error{Op: "get balance", Kind: ErrUnavailable, Message: "unexpected balance payload", Err: err}
	}
	return bare, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, headers map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Op: op, Kind: ErrUnavailable, Err: err}
	}

	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiSecret != "" {
		req.Header.Set(secretHeader, c.apiSecret)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("payment provider call failed", "op", op, "error", err, "duration", time.Since(start))
		msg := ""
		if isTimeout(err) {
			msg = "request timed out"
		}
		return &Error{Op: op, Kind: ErrUnavailable, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Kind: ErrUnavailable, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("payment provider call", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := ErrRejected
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			kind = ErrUnavailable
		}
		var eb errorBody
		msg := ""
		if json.Unmarshal(respBody, &eb) == nil {
			msg = eb.text()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Op: op, Kind: ErrUnavailable, StatusCode: resp.StatusCode, Message: "failed to parse response", Err: err}
	}
	return nil
}
