// Package shopify is an explicit admin-API client: constructed from config,
// passed by reference, no process-wide singleton. It paces requests with a
// client-side limiter and retries throttled and transient-server responses
// under a named, testable policy.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/models"
	"golang.org/x/time/rate"
)

// Client talks to one shop's admin REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     RetryPolicy
}

// New creates a client for the configured shop. The base URL override is
// for tests; pass "" in production.
func New(cfg config.ShopifyConfig, baseURL string) *Client {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", cfg.Shop, cfg.APIVersion)
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.AccessToken,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		policy:     DefaultRetryPolicy(),
	}
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON to path and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return models.NewPipelineError(models.ErrCodeInvalidInput, "encode request body", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.send(ctx, method, path, payload)
		if err != nil {
			// Transport failure. Retry under the same budget as a 5xx.
			lastErr = models.NewPipelineError(models.ErrCodeServiceFailure, "admin API unreachable", err)
			if werr := sleep(ctx, c.policy.Delay(nil, attempt)); werr != nil {
				return werr
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return models.NewPipelineError(models.ErrCodeServiceFailure, "read admin API response", readErr)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return models.NewPipelineError(models.ErrCodeServiceFailure, "decode admin API response", err)
			}
			return nil
		}

		if !RetryableStatus(resp.StatusCode) {
			return statusError(resp.StatusCode, respBody)
		}

		lastErr = statusError(resp.StatusCode, respBody)
		delay := c.policy.Delay(resp, attempt)
		slog.Warn("admin API retry",
			"method", method, "path", path,
			"status", resp.StatusCode, "attempt", attempt+1, "delay", delay)
		if werr := sleep(ctx, delay); werr != nil {
			return werr
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)
	return c.httpClient.Do(req)
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	switch {
	case status == http.StatusTooManyRequests:
		return models.NewPipelineError(models.ErrCodeRateLimited,
			fmt.Sprintf("admin API throttled: %s", msg), nil)
	case status >= 500:
		return models.NewPipelineError(models.ErrCodeServiceFailure,
			fmt.Sprintf("admin API returned %d: %s", status, msg), nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return models.NewPipelineError(models.ErrCodeInvalidInput,
			fmt.Sprintf("admin API auth rejected (%d)", status), nil)
	default:
		return models.NewPipelineError(models.ErrCodeInvalidInput,
			fmt.Sprintf("admin API returned %d: %s", status, msg), nil)
	}
}
