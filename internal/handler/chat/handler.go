package chat

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/menuka400/chatbot-spera/internal/model/profile"
	chatService "github.com/menuka400/chatbot-spera/internal/service/chat"
	"github.com/menuka400/chatbot-spera/internal/tools"
	"github.com/menuka400/chatbot-spera/pkg/utils"
)

const (
	// SessionHeader and SessionCookie carry the session between requests.
	SessionHeader = "X-Session-ID"
	SessionCookie = "chat_session"
)

// Messages are the fixed replies of the chat endpoint.
type Messages struct {
	Unavailable string
	Error       string
}

// Handler serves the chat endpoint and the session API. A nil service puts the
// handler in degraded mode: /chat answers 500 with Messages.Unavailable.
type Handler struct {
	chatSvc  *chatService.Service
	registry *tools.Registry
	messages Messages
	logger   *slog.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, registry *tools.Registry, messages Messages, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chatSvc: chatSvc, registry: registry, messages: messages, logger: logger}
}

// RegisterRoutes mounts POST /chat on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// RegisterAPIRoutes mounts the session and catalogue API under an /api router.
func (h *Handler) RegisterAPIRoutes(api chi.Router) {
	api.Get("/profiles", h.handleListProfiles)
	api.Get("/tools", h.handleListTools)
	api.Post("/session", h.handleCreateSession)
	api.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Get("/history", h.handleHistory)
		r.Delete("/history", h.handleClearHistory)
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId,omitempty"`
	Tool      string `json:"tool,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.chatSvc == nil {
		utils.RespondJSON(w, http.StatusInternalServerError, chatResponse{Response: h.messages.Unavailable})
		return
	}

	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID, err := h.sessionFor(r, payload)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	outcome, err := h.chatSvc.Converse(r.Context(), sessionID, payload.Message)
	if err != nil {
		h.logger.Error("chat failed", "session", sessionID, "request_id", middleware.GetReqID(r.Context()), "error", err)
		utils.RespondJSON(w, http.StatusInternalServerError, chatResponse{Response: h.messages.Error, SessionID: sessionID})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: sessionID, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	w.Header().Set(SessionHeader, sessionID)
	utils.RespondJSON(w, http.StatusOK, chatResponse{Response: outcome.Text, SessionID: sessionID, Tool: outcome.ToolName})
}

// sessionFor picks the session named by the body, header or cookie, in that
// order, and creates one when none of them names a live session.
func (h *Handler) sessionFor(r *http.Request, payload chatRequest) (string, error) {
	candidates := []string{payload.SessionID, r.Header.Get(SessionHeader)}
	if c, err := r.Cookie(SessionCookie); err == nil {
		candidates = append(candidates, c.Value)
	}
	for _, id := range candidates {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		if _, err := h.chatSvc.GetSession(r.Context(), id); err == nil {
			return id, nil
		}
	}

	profileID := payload.ProfileID
	if profileID == "" {
		profileID = h.chatSvc.DefaultProfile()
	}
	session, err := h.chatSvc.CreateSession(r.Context(), profileID)
	if err != nil {
		return "", err
	}
	return session.ID, nil
}

type profileView struct {
	profile.Profile
	Available []string `json:"availableTools"`
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	if !h.ready(w) {
		return
	}
	profiles := h.chatSvc.Profiles()
	views := make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, profileView{Profile: p, Available: h.availableTools(p)})
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"profiles":       views,
		"defaultProfile": h.chatSvc.DefaultProfile(),
	})
}

type toolView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleListTools(w http.ResponseWriter, _ *http.Request) {
	views := []toolView{}
	if h.registry != nil {
		for _, d := range h.registry.List() {
			views = append(views, toolView{Name: d.Name, Description: d.Description})
		}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"tools": views})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var payload struct {
		ProfileID string `json:"profileId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ProfileID == "" {
		payload.ProfileID = h.chatSvc.DefaultProfile()
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.ProfileID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	p, _ := h.chatSvc.Profile(session.ProfileID)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"session":  session,
		"greeting": p.Greeting,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.chatSvc.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "turns": turns})
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.chatSvc.ClearHistory(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) availableTools(p profile.Profile) []string {
	if h.registry == nil {
		return []string{}
	}
	return h.registry.Subset(p.Tools...).Names()
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.chatSvc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, h.messages.Unavailable)
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrProfileNotFound), errors.Is(err, chatService.ErrProfileRequired), errors.Is(err, chatService.ErrProfileMismatch):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("chat service error", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, h.messages.Error)
	}
}
