package models

import (
	"context"
	"fmt"
	"strings"
)

// Agent is a language model that completes a prompt.
type Agent interface {
	Generate(context.Context, string) (any, error)
}

// Text renders a completion returned by Generate as trimmed text.
func Text(completion any) string {
	switch v := completion.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// NewLLMProvider builds the model for provider. apiKey is ignored by
// providers that do not need one.
func NewLLMProvider(ctx context.Context, provider, model, apiKey string) (Agent, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return NewOpenAILLM(apiKey, model), nil
	case "gemini", "google":
		llm, err := NewGeminiLLM(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case "ollama":
		llm, err := NewOllamaLLM("", model)
		if err != nil {
			return nil, err
		}
		return llm, nil
	case "anthropic", "claude":
		return NewAnthropicLLM(apiKey, model), nil
	case "dummy":
		return NewDummyLLM(""), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
