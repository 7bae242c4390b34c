package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/menuka400/chatbot-spera/internal/config"
)

// GroqBaseURL is Groq's OpenAI compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAI talks to any OpenAI compatible chat completions endpoint.
type OpenAI struct {
	client *openai.Client
	cfg    config.LLMConfig
}

// NewOpenAI builds the client; cfg.BaseURL switches to compatible hosts such as Groq.
func NewOpenAI(cfg config.LLMConfig, apiKey string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, cfg: cfg}
}

// Generate implements model.BaseChatModel.
func (m *OpenAI) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := callOptions(m.cfg, opts...)

	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAIMessages(input),
		Model:       m.cfg.Model,
		Temperature: openai.Float(float64(*o.Temperature)),
		MaxTokens:   openai.Int(int64(*o.MaxTokens)),
	}
	if o.TopP != nil {
		params.TopP = openai.Float(float64(*o.TopP))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices returned")
	}
	return assistant(cutAtStop(resp.Choices[0].Message.Content, o.Stop))
}

// Stream implements model.BaseChatModel with a single chunk.
func (m *OpenAI) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return singleChunk(m.Generate(ctx, input, opts...))
}

func toOpenAIMessages(in []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(in))
	for _, msg := range in {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
