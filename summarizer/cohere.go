package summarizer

import (
	"context"
	"fmt"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"newssum/types"
)

const cohereVariant = "sum_fb1"

// CohereProvider is the secondary generative tier, used when the primary
// is unavailable or never clears the quality gate.
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

// NewCohereProvider builds the fallback tier against the Cohere chat API.
func NewCohereProvider(apiKey, model string) *CohereProvider {
	return &CohereProvider{
		client: cohereclient.NewClient(cohereclient.WithToken(apiKey)),
		model:  model,
	}
}

func (p *CohereProvider) Name() string { return "cohere" }

func (p *CohereProvider) ModelVersion() string {
	// Price-table identity drops the date suffix cohere appends to models.
	model := p.model
	if i := strings.Index(model, "-12-"); i > 0 {
		model = model[:i]
	}
	return fmt.Sprintf("cohere:%s@%s", model, cohereVariant)
}

func (p *CohereProvider) Generate(ctx context.Context, prompt string) (string, types.TokenUsage, error) {
	temperature := 0.1
	resp, err := p.client.Chat(ctx, &cohere.ChatRequest{
		Message:     prompt,
		Model:       &p.model,
		Temperature: &temperature,
	})
	if err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", types.TokenUsage{}, fmt.Errorf("cohere chat returned empty response")
	}

	var usage types.TokenUsage
	if resp.Meta != nil && resp.Meta.Tokens != nil {
		if resp.Meta.Tokens.InputTokens != nil {
			usage.InputTokens = int(*resp.Meta.Tokens.InputTokens)
		}
		if resp.Meta.Tokens.OutputTokens != nil {
			usage.OutputTokens = int(*resp.Meta.Tokens.OutputTokens)
		}
	}

	return strings.TrimSpace(resp.Text), usage, nil
}
