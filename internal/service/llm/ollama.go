package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/ollama/ollama/api"

	"github.com/menuka400/chatbot-spera/internal/config"
)

// Ollama calls a local Ollama server; no credential is needed.
type Ollama struct {
	client *api.Client
	cfg    config.LLMConfig
}

// NewOllama builds a client for cfg.BaseURL, or OLLAMA_HOST when empty.
func NewOllama(cfg config.LLMConfig) (*Ollama, error) {
	if cfg.BaseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		return &Ollama{client: client, cfg: cfg}, nil
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	return &Ollama{client: api.NewClient(u, &http.Client{Timeout: cfg.Timeout}), cfg: cfg}, nil
}

// Generate implements model.BaseChatModel.
func (m *Ollama) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := callOptions(m.cfg, opts...)

	messages := make([]api.Message, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		messages = append(messages, api.Message{Role: string(msg.Role), Content: msg.Content})
	}

	options := make(map[string]any, len(m.cfg.Options)+3)
	for k, v := range m.cfg.Options {
		options[k] = v
	}
	options["temperature"] = *o.Temperature
	options["num_predict"] = *o.MaxTokens
	if len(o.Stop) > 0 {
		options["stop"] = o.Stop
	}

	stream := false
	req := &api.ChatRequest{
		Model:    m.cfg.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	var b strings.Builder
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	return assistant(cutAtStop(b.String(), o.Stop))
}

// Stream implements model.BaseChatModel with a single chunk.
func (m *Ollama) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return singleChunk(m.Generate(ctx, input, opts...))
}
