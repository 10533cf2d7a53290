package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"newssum/types"
)

const openAIVariant = "sum_v1"

// OpenAIProvider is the primary generative tier.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider builds the primary tier against the OpenAI chat API.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) ModelVersion() string {
	return fmt.Sprintf("openai:%s@%s", p.model, openAIVariant)
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, types.TokenUsage, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a precise news summarizer. Neutral, faithful, 80-140 words."),
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(0.1),
		MaxCompletionTokens: openai.Int(200),
	})
	if err != nil {
		return "", types.TokenUsage{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.TokenUsage{}, fmt.Errorf("no response from openai")
	}

	usage := types.TokenUsage{
		InputTokens:       int(resp.Usage.PromptTokens),
		OutputTokens:      int(resp.Usage.CompletionTokens),
		CachedInputTokens: int(resp.Usage.PromptTokensDetails.CachedTokens),
	}
	// Cached prompt tokens are billed separately; keep the buckets disjoint.
	usage.InputTokens -= usage.CachedInputTokens
	if usage.InputTokens < 0 {
		usage.InputTokens = 0
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}
