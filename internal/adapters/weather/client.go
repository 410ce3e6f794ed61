package weather

// client.go: shared HTTP plumbing for the public observation feeds.
//
// There are no automatic retries. A failed fetch is absent this cycle and
// the scheduler picks it up again on the next one.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultIEMBase   = "https://mesonet.agron.iastate.edu"
	DefaultMETARBase = "https://aviationweather.gov/api/data"
	DefaultNWSBase   = "https://api.weather.gov"

	// api.weather.gov rejects requests without an identifying User-Agent.
	DefaultUserAgent = "(weatherarb, github.com/alejandrodnm/weatherarb)"

	// The feeds are free public services; stay well below anything abusive.
	requestsPerSec = 4
	requestBurst   = 4

	maxBodyBytes = 4 << 20
)

// httpClient wraps net/http with a per-feed rate limiter and status handling.
type httpClient struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newHTTPClient(timeout time.Duration, userAgent string) *httpClient {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &httpClient{
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(requestsPerSec, requestBurst),
		userAgent: userAgent,
	}
}

// get performs a rate-limited GET and returns the body of a 2xx response.
func (c *httpClient) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body))
	}
	return body, nil
}

// getJSON decodes a JSON body into out. An empty body (e.g. 204) leaves out untouched.
func (c *httpClient) getJSON(ctx context.Context, url, accept string, out any) error {
	body, err := c.get(ctx, url, accept)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CloseIdle releases pooled connections on shutdown.
func (c *httpClient) CloseIdle() {
	c.http.CloseIdleConnections()
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
