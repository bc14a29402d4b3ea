package centrifugo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/connectfour/backend/internal/app"
)

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
	maxAttempts    = 20
)

// Client publishes payloads to Centrifugo's server HTTP API. Centrifugo is a
// best-effort broadcast plane, so transient failures are retried with
// exponential backoff; only an exhausted retry envelope surfaces to the
// caller and fails the command.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ app.RealtimeRelay = (*Client)(nil)

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish posts data to the given channel, retrying transient failures.
func (c *Client) Publish(ctx context.Context, channel string, data any) error {
	body, err := json.Marshal(map[string]any{
		"channel": channel,
		"data":    data,
	})
	if err != nil {
		return fmt.Errorf("encode publication: %w", err)
	}

	delay := retryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.send(ctx, "publish", body)
		if lastErr == nil {
			return nil
		}

		if attempt == maxAttempts {
			break
		}

		log.Printf("[CENTRIFUGO] publish to %s failed (attempt %d): %v", channel, attempt, lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish to %s: %w", channel, ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > retryMaxDelay {
			delay = retryMaxDelay
		}
	}

	return fmt.Errorf("publish to %s after %d attempts: %w", channel, maxAttempts, lastErr)
}

func (c *Client) send(ctx context.Context, method string, body []byte) error {
	url := c.baseURL + "/" + method

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("centrifugo returned %d: %s", resp.StatusCode, snippet)
	}

	return nil
}
