package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/menuka400/chatbot-spera/internal/app"
	"github.com/menuka400/chatbot-spera/internal/channel/telegram"
	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/handler"
	"github.com/menuka400/chatbot-spera/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file, using process environment only", "error", err)
	}

	cfg, err := config.Load(os.Getenv("CHATBOT_CONFIG"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Agent.Verbose {
		cfg.Logging.Level = "debug"
	}
	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	deps := handler.Deps{
		Server:    cfg.Server,
		Responses: cfg.Responses,
		Logger:    logger,
	}

	bot, err := app.Build(ctx, cfg, app.Overrides{}, logger)
	if err != nil {
		logger.Error("chatbot unavailable, serving degraded responses", "error", err)
	} else {
		deps.ChatSvc = bot.ChatSvc
		deps.Tools = bot.Tools
		logger.Info("chatbot initialized", "profile", cfg.Agent.Profile, "tools", bot.Tools.Len())
	}

	router, err := handler.NewRouter(deps)
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	if bot != nil && cfg.Telegram.Enabled {
		startTelegram(ctx, cfg, bot, logger)
	}

	startServer(ctx, cfg.Server, router, logger)
}

func startTelegram(ctx context.Context, cfg *config.Config, bot *app.App, logger *slog.Logger) {
	api, err := telegram.NewBotAPI(cfg.Credentials.TelegramBotToken, cfg.Telegram.Timeout, cfg.Telegram.Debug)
	if err != nil {
		logger.Error("telegram disabled", "error", err)
		return
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)

	ch := telegram.New(api, bot.ChatSvc, telegram.Config{
		Profile:  cfg.Telegram.Profile,
		Fallback: cfg.Responses.Error,
	}, logger.With("component", "telegram"))
	go func() {
		if err := ch.Run(ctx); err != nil {
			logger.Error("telegram channel stopped", "error", err)
		}
	}()
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("chatbot listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
