package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/telemetry"
)

const defaultBaseURL = "https://api.twitter.com"

// Credentials are the OAuth1a user-context keys required to post.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Client posts tweets through the v2 API. It carries no retry logic; a
// failed post is surfaced to the caller and the approver retries manually.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client whose requests are OAuth1a-signed with the given
// credentials.
func NewClient(creds Credentials) *Client {
	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
	}
}

// WithBaseURL points the client at a different API root. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data *struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Post publishes the text and returns the created tweet ID.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	start := time.Now()
	id, err := c.post(ctx, text)
	metrics.ObservePublishDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.IncPublishFailed()
		telemetry.Error("twitter.post_failed", map[string]any{
			"text":  truncate(text, 50),
			"error": err.Error(),
		})
		return "", err
	}
	telemetry.Info("twitter.posted", map[string]any{
		"tweet_id": id,
		"text":     truncate(text, 50),
	})
	return id, nil
}

func (c *Client) post(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twitter create tweet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("twitter read response: %w", err)
	}

	var parsed createTweetResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("twitter http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode >= 400 || parsed.Data == nil {
		detail := parsed.Detail
		if detail == "" {
			detail = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("twitter http status %d: %s", resp.StatusCode, detail)
	}
	return parsed.Data.ID, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
