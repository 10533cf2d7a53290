package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const inferenceModelVersion = "distilbert-mc@sent_v4"

// InferenceClient talks to the hosted classifier service, which serves the
// trained distilbert checkpoint behind a JSON API.
type InferenceClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewInferenceClient creates a reusable HTTP client.
func NewInferenceClient(endpoint, apiKey string, timeout time.Duration) *InferenceClient {
	return &InferenceClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *InferenceClient) ModelVersion() string { return inferenceModelVersion }

// Distribution posts the text and returns the class probabilities.
func (c *InferenceClient) Distribution(ctx context.Context, text string) (Distribution, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Distribution{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/classify", bytes.NewReader(payload))
	if err != nil {
		return Distribution{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Distribution{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Distribution{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var dist Distribution
	if err := json.NewDecoder(resp.Body).Decode(&dist); err != nil {
		return Distribution{}, fmt.Errorf("decode response: %w", err)
	}
	return dist, nil
}
