package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/handler/chat"
	"github.com/menuka400/chatbot-spera/internal/handler/dashboard"
	"github.com/menuka400/chatbot-spera/internal/handler/upload"
	"github.com/menuka400/chatbot-spera/internal/handler/ws"
	middlewarePkg "github.com/menuka400/chatbot-spera/internal/middleware"
	chatService "github.com/menuka400/chatbot-spera/internal/service/chat"
	"github.com/menuka400/chatbot-spera/internal/tools"
	"github.com/menuka400/chatbot-spera/pkg/utils"
)

// Deps are the collaborators of the HTTP surface. ChatSvc and Tools may be nil
// when the chatbot failed to initialise; the routes then answer with
// Responses.Unavailable.
type Deps struct {
	ChatSvc   *chatService.Service
	Tools     *tools.Registry
	Server    config.ServerConfig
	Responses config.ResponsesConfig
	Logger    *slog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	ui, err := dashboard.New(deps.Server.StaticDir)
	if err != nil {
		return nil, err
	}
	chatHandler := chat.New(deps.ChatSvc, deps.Tools, chat.Messages{
		Unavailable: deps.Responses.Unavailable,
		Error:       deps.Responses.Error,
	}, logger.With("component", "http"))
	uploadHandler := upload.New(deps.Server.UploadDir, deps.Server.MaxUploadBytes(), logger.With("component", "upload"))
	wsHandler := ws.New(deps.ChatSvc, deps.Responses.Unavailable, deps.Responses.Error, logger.With("component", "ws"))

	ui.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	uploadHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := "ok"
		if deps.ChatSvc == nil {
			status = "degraded"
		}
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": status})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterAPIRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r, nil
}
