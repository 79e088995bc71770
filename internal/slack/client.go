package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tweetpilot/internal/shared/telemetry"
)

const defaultBaseURL = "https://slack.com/api"

// Client talks to the Slack Web API for the approval surface: posting
// approval messages, updating them after a decision, and opening the edit
// modal.
type Client struct {
	token      string
	channel    string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Slack client for the given bot token and channel.
func NewClient(token, channel string) *Client {
	return &Client{
		token:   token,
		channel: channel,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// PostApproval sends a tweet to the channel with approve/edit/reject buttons
// and returns the message timestamp that identifies the approval session.
func (c *Client) PostApproval(ctx context.Context, text string, index int) (string, error) {
	payload := map[string]any{
		"channel": c.channel,
		"text":    fmt.Sprintf("Tweet approval needed: %s", truncate(text, 50)),
		"blocks":  approvalBlocks(text, index),
	}

	resp, err := c.call(ctx, "chat.postMessage", payload)
	if err != nil {
		return "", err
	}
	if resp.TS == "" {
		return "", fmt.Errorf("slack chat.postMessage: response missing ts")
	}

	telemetry.Info("slack.approval_posted", map[string]any{
		"message_ts": resp.TS,
		"text":       truncate(text, 50),
	})
	return resp.TS, nil
}

// UpdateStatus rewrites the approval message to show the outcome and replaces
// the buttons with a single disabled one.
func (c *Client) UpdateStatus(ctx context.Context, messageTS, status, text string) error {
	payload := map[string]any{
		"channel": c.channel,
		"ts":      messageTS,
		"text":    fmt.Sprintf("Tweet %s", status),
		"blocks":  statusBlocks(text, status),
	}

	if _, err := c.call(ctx, "chat.update", payload); err != nil {
		return err
	}
	telemetry.Info("slack.message_updated", map[string]any{
		"message_ts": messageTS,
		"status":     status,
	})
	return nil
}

// OpenEditModal opens the edit view pre-filled with the current text. The
// session's message timestamp rides along in the modal callback ID so the
// submission can be correlated back.
func (c *Client) OpenEditModal(ctx context.Context, triggerID, text string, index int, messageTS string) error {
	payload := map[string]any{
		"trigger_id": triggerID,
		"view":       editModalView(text, index, messageTS),
	}

	if _, err := c.call(ctx, "views.open", payload); err != nil {
		return err
	}
	telemetry.Info("slack.edit_modal_opened", map[string]any{
		"message_ts": messageTS,
		"text":       truncate(text, 50),
	})
	return nil
}

// PostMessage sends a plain notification to the channel.
func (c *Client) PostMessage(ctx context.Context, text string) error {
	payload := map[string]any{
		"channel": c.channel,
		"text":    text,
	}
	_, err := c.call(ctx, "chat.postMessage", payload)
	return err
}

func (c *Client) call(ctx context.Context, method string, payload any) (apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("encode %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return apiResponse{}, fmt.Errorf("new %s request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiResponse{}, fmt.Errorf("slack %s read response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return apiResponse{}, fmt.Errorf("slack %s parse response: %w", method, err)
	}
	if !parsed.OK {
		return apiResponse{}, fmt.Errorf("slack %s: %s", method, parsed.Error)
	}
	return parsed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
