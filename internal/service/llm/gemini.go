package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/menuka400/chatbot-spera/internal/config"
)

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	cfg    config.LLMConfig
}

// NewGemini builds the client.
func NewGemini(ctx context.Context, cfg config.LLMConfig, apiKey string) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

// Generate implements model.BaseChatModel.
func (m *Gemini) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := callOptions(m.cfg, opts...)
	system, rest := splitSystem(input)

	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		role := "user"
		if msg.Role == schema.Assistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: msg.Content}}})
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     o.Temperature,
		MaxOutputTokens: int32(*o.MaxTokens),
		StopSequences:   o.Stop,
	}
	if o.TopP != nil {
		genCfg.TopP = o.TopP
	}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.cfg.Model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	return assistant(cutAtStop(resp.Text(), o.Stop))
}

// Stream implements model.BaseChatModel with a single chunk.
func (m *Gemini) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return singleChunk(m.Generate(ctx, input, opts...))
}
