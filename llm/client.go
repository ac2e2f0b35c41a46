// Package llm is the optional vision capability client: section-crop
// classification hints and custom-markup generation against an
// OpenAI-compatible chat endpoint. Outputs are advisory and
// non-deterministic; the pipeline works without this client wired in.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopmorph/shopmorph/config"
	"github.com/shopmorph/shopmorph/models"
	"github.com/shopmorph/shopmorph/shopify"
	"golang.org/x/time/rate"
)

const (
	maxAttempts = 3
	baseBackoff = 750 * time.Millisecond
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from config. Returns nil when no API key is
// configured; callers treat a nil client as "capability absent".
func NewClient(cfg config.LLMConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Label is the model's judgment of one section crop.
type Label struct {
	Type       models.SectionType `json:"type"`
	Confidence float64            `json:"confidence"`
	Rationale  string             `json:"rationale,omitempty"`
}

// Classify asks the model what section type a crop shows. hints carries
// the heuristic classifier's guess so the model can confirm or override.
func (c *Client) Classify(ctx context.Context, cropPNG []byte, hints string) (*Label, error) {
	prompt := fmt.Sprintf(`Classify this e-commerce page section screenshot as exactly one of:
hero_banner, features_grid, gallery, slideshow, reviews, faq, rich_text, unknown.

Heuristic guess: %s

Return JSON: {"type": "...", "confidence": 0.0-1.0, "rationale": "..."}`, hints)

	raw, err := c.complete(ctx, prompt, cropPNG)
	if err != nil {
		return nil, err
	}
	var label Label
	if err := json.Unmarshal(raw, &label); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeServiceFailure, "model returned malformed label", err)
	}
	return &label, nil
}

// markupResult is the generated rendition of one section.
type markupResult struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

// GenerateMarkup asks the model for a static HTML/CSS rendition of a
// section crop. The caller must sanitize the HTML before using it.
func (c *Client) GenerateMarkup(ctx context.Context, cropPNG []byte, hints string) (html, css string, err error) {
	prompt := fmt.Sprintf(`Reproduce this page section as self-contained static HTML and CSS.
No scripts, no external resources, class names prefixed "cs-".
Context: %s

Return JSON: {"html": "...", "css": "..."}`, hints)

	raw, err := c.complete(ctx, prompt, cropPNG)
	if err != nil {
		return "", "", err
	}
	var res markupResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", "", models.NewPipelineError(models.ErrCodeServiceFailure, "model returned malformed markup", err)
	}
	return res.HTML, res.CSS, nil
}

// chat completion wire types, reduced to the fields in use.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete runs one vision chat completion with bounded retries on
// throttling and transient server errors.
func (c *Client) complete(ctx context.Context, prompt string, imagePNG []byte) (json.RawMessage, error) {
	parts := []contentPart{{Type: "text", Text: prompt}}
	if len(imagePNG) > 0 {
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(imagePNG),
			},
		})
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       []chatMessage{{Role: "user", Content: parts}},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, models.NewPipelineError(models.ErrCodeInternal, "encode model request", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		raw, status, err := c.post(ctx, endpoint, body)
		if err != nil {
			return nil, models.NewPipelineError(models.ErrCodeServiceFailure, "model endpoint unreachable", err)
		}
		if status == http.StatusOK {
			return parseCompletion(raw)
		}
		if !shopify.RetryableStatus(status) {
			return nil, statusError(status, raw)
		}

		lastErr = statusError(status, raw)
		delay := baseBackoff << uint(attempt)
		slog.Warn("model endpoint retry", "status", status, "attempt", attempt+1, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

func parseCompletion(raw []byte) (json.RawMessage, error) {
	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, models.NewPipelineError(models.ErrCodeServiceFailure, "decode model response", err)
	}
	if len(cr.Choices) == 0 {
		return nil, models.NewPipelineError(models.ErrCodeServiceFailure, "model returned no choices", nil)
	}
	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	// Some providers fence the JSON despite response_format.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if !json.Valid([]byte(content)) {
		return nil, models.NewPipelineError(models.ErrCodeServiceFailure, "model returned invalid JSON", nil)
	}
	return json.RawMessage(content), nil
}

func statusError(status int, body []byte) error {
	var er chatErrorResponse
	msg := "model API error"
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		msg = er.Error.Message
	}
	if status == http.StatusTooManyRequests {
		return models.NewPipelineError(models.ErrCodeRateLimited, msg, nil)
	}
	return models.NewPipelineError(models.ErrCodeServiceFailure,
		fmt.Sprintf("model API returned %d: %s", status, msg), nil)
}
