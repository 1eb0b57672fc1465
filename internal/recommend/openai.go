package recommend

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements Provider using the OpenAI chat completions API.
type OpenAIProvider struct {
	llm   *openai.LLM
	model string
}

func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if model == "" {
		model = defaultOpenAIModel
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai llm: %w", err)
	}

	return &OpenAIProvider{
		llm:   llm,
		model: model,
	}, nil
}

func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt,
		llms.WithTemperature(0.7),
	)
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}
	return response, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}
