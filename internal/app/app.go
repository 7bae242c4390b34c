// Package app assembles the chatbot from configuration: inference model, tool
// registry, one resolver per profile and the chat service on top.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"

	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/model/profile"
	"github.com/menuka400/chatbot-spera/internal/service/ai"
	chatService "github.com/menuka400/chatbot-spera/internal/service/chat"
	"github.com/menuka400/chatbot-spera/internal/service/llm"
	"github.com/menuka400/chatbot-spera/internal/tools"
)

// Overrides replace collaborators Build would otherwise construct.
type Overrides struct {
	ChatModel model.BaseChatModel
	Sources   tools.Sources
	Profiles  []profile.Profile
}

// App is a ready chatbot.
type App struct {
	ChatSvc  *chatService.Service
	Tools    *tools.Registry
	Profiles profile.Store
}

// Build wires every component. Any error leaves the caller without a chatbot;
// the HTTP surface still starts and reports itself unavailable.
func Build(ctx context.Context, cfg *config.Config, ov Overrides, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Memory.Type != "" && cfg.Memory.Type != "buffer" {
		logger.Warn("unsupported memory type, using buffer", "type", cfg.Memory.Type)
	}

	chatModel := ov.ChatModel
	if chatModel == nil {
		var err error
		if chatModel, err = llm.New(ctx, cfg.LLM, cfg.Credentials); err != nil {
			return nil, fmt.Errorf("init llm: %w", err)
		}
	}
	logger.Info("llm ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	registry, err := tools.Build(cfg.Tools, cfg.Credentials, ov.Sources, logger.With("component", "tools"))
	if err != nil {
		return nil, fmt.Errorf("init tools: %w", err)
	}

	seed := ov.Profiles
	if seed == nil {
		seed = profile.Seed()
	}
	store := profile.NewMemoryStore(seed)
	if _, ok := store.FindByID(cfg.Agent.Profile); !ok {
		return nil, &config.Error{Key: "agent.profile", Err: fmt.Errorf("%w: unknown profile %q", config.ErrInvalidValue, cfg.Agent.Profile)}
	}

	resolvers := make(map[string]chatService.Resolver, len(seed))
	for _, p := range store.List() {
		subset := registry.Subset(p.Tools...)
		resolver, err := ai.NewResolver(chatModel, subset,
			ai.WithProfile(&p),
			ai.WithMaxIterations(cfg.Agent.MaxIterations),
			ai.WithMaxExecutionTime(cfg.Agent.MaxExecutionTime),
			ai.WithTemperature(float32(cfg.LLM.Temperature)),
			ai.WithMaxTokens(cfg.LLM.MaxTokens),
			ai.WithFallback(cfg.Responses.Error),
			ai.WithStopMessage(cfg.Responses.Stopped),
			ai.WithLogger(logger.With("component", "resolver")),
		)
		if err != nil {
			return nil, fmt.Errorf("init resolver %s: %w", p.ID, err)
		}
		resolvers[p.ID] = resolver
		logger.Debug("profile ready", "profile", p.ID, "tools", subset.Names())
	}

	chatSvc := chatService.NewService(store, resolvers, chatService.Options{
		DefaultProfile: cfg.Agent.Profile,
		MaxExchanges:   cfg.Memory.MaxExchanges,
		Logger:         logger.With("component", "chat"),
	})

	return &App{ChatSvc: chatSvc, Tools: registry, Profiles: store}, nil
}
