package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// webhookBody is the wire envelope Discord expects.
type webhookBody struct {
	Embeds []Embed `json:"embeds"`
}

// apiError is Discord's structured error response.
type apiError struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

// rateLimitSignal carries the server-issued cooldown for one rejected
// attempt.
type rateLimitSignal struct {
	retryAfter time.Duration
	message    string
}

// ClientConfig configures a delivery client.
type ClientConfig struct {
	// WebhookURL is the default outbound webhook endpoint.
	WebhookURL string
	// MaxRetries bounds how many rate-limited attempts are retried.
	// Zero means the default of 3.
	MaxRetries int
	// Timeout applies per HTTP attempt. Zero means 10s.
	Timeout time.Duration
	// Sleep suspends the calling goroutine for the rate-limit
	// cooldown. Nil means time.Sleep; tests inject a recorder here.
	Sleep func(time.Duration)
	// Logger receives delivery reports. Nil means the default logger.
	Logger *log.Logger
}

// Client delivers embeds to a Discord webhook. Deliveries are
// independent: each one owns its request and its retry loop, and a
// rate-limit cooldown suspends only the calling goroutine.
type Client struct {
	url        string
	maxRetries int
	httpClient *http.Client
	sleep      func(time.Duration)
	logger     *log.Logger
}

// NewClient creates a delivery client.
func NewClient(cfg ClientConfig) *Client {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		url:        cfg.WebhookURL,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		sleep:      sleep,
		logger:     logger,
	}
}

// Deliver sends the embed to the configured webhook URL.
func (c *Client) Deliver(ctx context.Context, embed Embed) {
	c.DeliverTo(ctx, c.url, embed)
}

// DeliverTo sends the embed to a specific webhook URL. Failures are
// logged, never propagated: a delivery either succeeds, fails terminally
// on a non-rate-limit error, or exhausts its retry budget. Only
// rate-limit rejections consume the budget.
func (c *Client) DeliverTo(ctx context.Context, url string, embed Embed) {
	body, err := json.Marshal(webhookBody{Embeds: []Embed{embed}})
	if err != nil {
		c.logger.Printf("discord: encode embed: %v", err)
		return
	}

	remaining := c.maxRetries
	for {
		signal, ok := c.attempt(ctx, url, body)
		if !ok {
			return
		}
		if remaining == 0 {
			c.logger.Printf("discord: giving up after %d rate-limited retries: %s", c.maxRetries, signal.message)
			return
		}
		c.logger.Printf("discord: rate limited, retrying in %s", signal.retryAfter)
		c.sleep(signal.retryAfter)
		remaining--
	}
}

// attempt performs one POST. It returns (signal, true) when the server
// rate-limited the request; any other outcome, success or terminal
// failure, returns ok=false.
func (c *Client) attempt(ctx context.Context, url string, body []byte) (rateLimitSignal, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Printf("discord: build request: %v", err)
		return rateLimitSignal{}, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("discord: post failed: %v", err)
		return rateLimitSignal{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return rateLimitSignal{}, false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Printf("discord: read error response: %v", err)
		return rateLimitSignal{}, false
	}

	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err != nil || apiErr.Message == "" {
		// Not the structured error shape; report the raw body and
		// stop.
		c.logger.Printf("discord: unexpected error response (%d): %s", resp.StatusCode, string(raw))
		return rateLimitSignal{}, false
	}

	if strings.Contains(strings.ToLower(apiErr.Message), "rate limited") {
		return rateLimitSignal{
			retryAfter: time.Duration(apiErr.RetryAfter * float64(time.Second)),
			message:    apiErr.Message,
		}, true
	}

	c.logger.Printf("discord: delivery failed (%d): %s", resp.StatusCode, apiErr.Message)
	return rateLimitSignal{}, false
}
