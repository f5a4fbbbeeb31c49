package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChannel talks to a chat-platform relay over its REST surface. The
// relay owns platform-specific formatting; this client only moves rendered
// text and message ids.
type HTTPChannel struct {
	baseURL   string
	channelID string
	authToken string
	client    *http.Client
}

// NewHTTPChannel creates a channel client. timeout bounds every call so a
// slow relay degrades a single owner's sync, never the whole tick.
func NewHTTPChannel(baseURL, channelID, authToken string, timeout time.Duration) *HTTPChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChannel{
		baseURL:   baseURL,
		channelID: channelID,
		authToken: authToken,
		client:    &http.Client{Timeout: timeout},
	}
}

type messagePayload struct {
	Content string `json:"content"`
}

type messageResponse struct {
	ID string `json:"id"`
}

// Publish posts a new message to the channel.
func (c *HTTPChannel) Publish(ctx context.Context, text string) (string, error) {
	url := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, c.channelID)

	body, err := c.do(ctx, http.MethodPost, url, text)
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse publish response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("publish response carried no message id")
	}
	return resp.ID, nil
}

// Edit replaces an existing message's content.
func (c *HTTPChannel) Edit(ctx context.Context, messageID, text string) error {
	url := fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, c.channelID, messageID)

	_, err := c.do(ctx, http.MethodPatch, url, text)
	return err
}

func (c *HTTPChannel) do(ctx context.Context, method, url, text string) ([]byte, error) {
	payload, err := json.Marshal(messagePayload{Content: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channel call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read channel response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("channel returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// Ensure HTTPChannel implements Channel
var _ Channel = (*HTTPChannel)(nil)
