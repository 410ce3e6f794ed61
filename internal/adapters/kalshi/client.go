package kalshi

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	// Basic tier: 20 reads/s and 10 writes/s. Run at 60% of that.
	readRatePerSec  = 12
	writeRatePerSec = 6

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// Config holds the connection settings. Key may be nil: public market data
// does not need a signature, portfolio endpoints do.
type Config struct {
	BaseURL string
	KeyID   string
	Key     *rsa.PrivateKey
	Timeout time.Duration
}

// Client is the Kalshi trade API client with request signing and rate limiting.
type Client struct {
	http         *http.Client
	baseURL      string
	signPrefix   string // path of baseURL, prepended to every signed path
	keyID        string
	key          *rsa.PrivateKey
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
	now          func() time.Time
}

// NewClient builds a client. An empty BaseURL uses production.
func NewClient(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("kalshi.NewClient: parse base url %q: %w", base, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		baseURL:      base,
		signPrefix:   u.Path,
		keyID:        cfg.KeyID,
		key:          cfg.Key,
		readLimiter:  rate.NewLimiter(readRatePerSec, 5),
		writeLimiter: rate.NewLimiter(writeRatePerSec, 2),
		now:          time.Now,
	}, nil
}

// CanSign reports whether authenticated endpoints are available.
func (c *Client) CanSign() bool {
	return c.key != nil && c.keyID != ""
}

// CloseIdleConnections releases pooled connections on shutdown.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// do sends one request and returns status and body. There is no retry loop:
// orders must never be submitted twice.
func (c *Client) do(ctx context.Context, limiter *rate.Limiter, method, path string, query url.Values, body any) (int, []byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.CanSign() {
		ts := strconv.FormatInt(c.now().UnixMilli(), 10)
		sig, err := signRequest(c.key, ts, method, c.signPrefix+path)
		if err != nil {
			return 0, nil, fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set(headerKey, c.keyID)
		req.Header.Set(headerTimestamp, ts)
		req.Header.Set(headerSignature, sig)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// get performs a GET and decodes a 2xx JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	status, body, err := c.do(ctx, c.readLimiter, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("status %d: %s", status, errorMessage(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts error.message from a Kalshi error body, falling
// back to the raw (truncated) body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
