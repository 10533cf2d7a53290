// Package translator is a thin client for the self-hosted es→en
// translation service (an opus-mt model behind a one-route JSON API).
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const modelVersion = "hf:opus-mt-es-en@tr_v1"

// Client posts text to the translation endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a reusable translation client.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// ModelVersion identifies the translation model for cache-key composition.
func (c *Client) ModelVersion() string { return modelVersion }

// Translate converts Spanish text to English. Errors here are transient
// signals; the summarizer decides whether to proceed untranslated.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text":      text,
		"lang_pair": "es-en",
	})
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Text, nil
}
