// Package llm builds the inference collaborators behind the resolver. Every
// provider satisfies eino's model.BaseChatModel so the resolver never sees which
// backend answers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/menuka400/chatbot-spera/internal/config"
)

var ErrEmptyCompletion = errors.New("llm returned no text")

// New returns the chat model selected by cfg.Provider. Missing credentials and
// unknown providers are configuration errors.
func New(ctx context.Context, cfg config.LLMConfig, creds config.Credentials) (model.BaseChatModel, error) {
	if err := creds.RequireFor(cfg.Provider); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "ark":
		return NewArk(ctx, cfg, creds)
	case "openai":
		return NewOpenAI(cfg, creds.OpenAIAPIKey), nil
	case "groq":
		if cfg.BaseURL == "" {
			cfg.BaseURL = GroqBaseURL
		}
		return NewOpenAI(cfg, creds.GroqAPIKey), nil
	case "anthropic":
		return NewAnthropic(cfg, creds.AnthropicAPIKey), nil
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = creds.OllamaHost
		}
		return NewOllama(cfg)
	case "gemini":
		return NewGemini(ctx, cfg, creds.GeminiAPIKey)
	default:
		return nil, &config.Error{Key: "llm.provider", Err: fmt.Errorf("%w: unknown provider %q", config.ErrInvalidValue, cfg.Provider)}
	}
}

// callOptions merges per-call options over the configured defaults.
func callOptions(cfg config.LLMConfig, opts ...model.Option) *model.Options {
	temperature := float32(cfg.Temperature)
	maxTokens := cfg.MaxTokens
	base := &model.Options{Temperature: &temperature, MaxTokens: &maxTokens}
	if cfg.TopP != nil {
		topP := float32(*cfg.TopP)
		base.TopP = &topP
	}
	return model.GetCommonOptions(base, opts...)
}

// splitSystem separates system prompts from the conversation; providers that
// take the system prompt out of band use it.
func splitSystem(in []*schema.Message) (string, []*schema.Message) {
	var system []string
	rest := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		if m.Role == schema.System {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// cutAtStop truncates text at the earliest stop sequence. Providers enforce stop
// sequences server side; this covers the ones that ignore them.
func cutAtStop(text string, stop []string) string {
	cut := len(text)
	for _, s := range stop {
		if s == "" {
			continue
		}
		if i := strings.Index(text, s); i >= 0 && i < cut {
			cut = i
		}
	}
	return text[:cut]
}

func assistant(text string) (*schema.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCompletion
	}
	return schema.AssistantMessage(text, nil), nil
}

// singleChunk serves Stream for providers that only answer in one piece.
func singleChunk(msg *schema.Message, err error) (*schema.StreamReader[*schema.Message], error) {
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}
