package guides

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const apiKeyHeader = "X-API-KEY"

// Client fetches guides from the guide server. Requests are rate limited so
// that bulk operations stay polite.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each request. Zero disables the limit.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRateLimit limits requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads a guide with its steps.
func (c *Client) Fetch(ctx context.Context, guideID int) (*Guide, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request guide %d: %w", guideID, err)
	}

	url := c.baseURL + "/v2/guides/" + strconv.Itoa(guideID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("request guide %d: %w", guideID, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	c.log.Debug("Requesting guide", zap.Int("guide", guideID), zap.String("url", url))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request guide %d: %w", guideID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("request guide %d: %w", guideID, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request guide %d: unexpected status %s: %s", guideID, resp.Status, strings.TrimSpace(string(body)))
	}

	var g Guide
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return nil, fmt.Errorf("decode guide %d: %w", guideID, err)
	}
	if g.ID != guideID {
		return nil, fmt.Errorf("decode guide %d: server returned guide %d", guideID, g.ID)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("decode guide %d: %w", guideID, err)
	}
	return &g, nil
}
