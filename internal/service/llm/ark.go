package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/menuka400/chatbot-spera/internal/config"
)

const (
	arkBaseURL = "https://ark.cn-beijing.volces.com/api/v3"
	arkRegion  = "cn-beijing"
)

// NewArk builds a Volcengine Ark chat model. Either ARK_API_KEY or an AK/SK pair
// authenticates.
func NewArk(ctx context.Context, cfg config.LLMConfig, creds config.Credentials) (model.BaseChatModel, error) {
	if cfg.Model == "" {
		return nil, &config.Error{Key: "llm.model", Err: config.ErrMissingKey}
	}

	temperature := float32(cfg.Temperature)
	maxTokens := cfg.MaxTokens

	var topP *float32
	if cfg.TopP != nil {
		val := float32(*cfg.TopP)
		topP = &val
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = arkBaseURL
	}
	region := cfg.Region
	if region == "" {
		region = arkRegion
	}

	var timeout *time.Duration
	if cfg.Timeout > 0 {
		timeout = &cfg.Timeout
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     baseURL,
		Region:      region,
		Timeout:     timeout,
		APIKey:      creds.ArkAPIKey,
		AccessKey:   creds.ArkAccessKey,
		SecretKey:   creds.ArkSecretKey,
		Model:       cfg.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        topP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}
	return chatModel, nil
}
