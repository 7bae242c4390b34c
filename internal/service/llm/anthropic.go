package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/menuka400/chatbot-spera/internal/config"
)

// Anthropic calls the Messages API.
type Anthropic struct {
	client *anthropic.Client
	cfg    config.LLMConfig
}

// NewAnthropic builds the client.
func NewAnthropic(cfg config.LLMConfig, apiKey string) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client, cfg: cfg}
}

// Generate implements model.BaseChatModel.
func (m *Anthropic) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := callOptions(m.cfg, opts...)
	system, rest := splitSystem(input)

	messages := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == schema.Assistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.cfg.Model),
		Messages:    messages,
		MaxTokens:   int64(*o.MaxTokens),
		Temperature: anthropic.Float(float64(*o.Temperature)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(o.Stop) > 0 {
		params.StopSequences = o.Stop
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return assistant(cutAtStop(b.String(), o.Stop))
}

// Stream implements model.BaseChatModel with a single chunk.
func (m *Anthropic) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return singleChunk(m.Generate(ctx, input, opts...))
}
