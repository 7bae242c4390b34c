// Package ws serves the chat over a websocket: one JSON message in, one JSON
// reply out, on a connection bound to a single session.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatService "github.com/menuka400/chatbot-spera/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Message types exchanged on the socket.
const (
	TypeMessage   = "message"
	TypeClear     = "clear"
	TypeConnected = "connected"
	TypeResponse  = "response"
	TypeCleared   = "cleared"
	TypeError     = "error"
)

// Handler upgrades GET /ws and relays messages to the chat service.
type Handler struct {
	chatSvc     *chatService.Service
	unavailable string
	fallback    string
	readTimeout time.Duration
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// New creates the websocket handler. unavailable is sent before closing when
// chatSvc is nil; fallback replaces replies that could not be produced.
func New(chatSvc *chatService.Service, unavailable, fallback string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		chatSvc:     chatSvc,
		unavailable: unavailable,
		fallback:    fallback,
		readTimeout: readTimeout,
		logger:      logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(*http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts GET /ws.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// Inbound is a client frame.
type Inbound struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

// Outbound is a server frame.
type Outbound struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Response  string `json:"response,omitempty"`
	Tool      string `json:"tool,omitempty"`
	Greeting  string `json:"greeting,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// conn serialises writes; gorilla allows one concurrent writer only.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(msg Outbound) error {
	msg.Timestamp = time.Now().Unix()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(msg)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	c := &conn{ws: ws}

	if h.chatSvc == nil {
		_ = c.send(Outbound{Type: TypeError, Error: h.unavailable})
		return
	}

	sessionID, greeting, err := h.bind(r.Context(), r.URL.Query().Get("sessionId"), r.URL.Query().Get("profileId"))
	if err != nil {
		_ = c.send(Outbound{Type: TypeError, Error: err.Error()})
		return
	}
	logger := h.logger.With("session", sessionID)
	logger.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	})
	go h.pingLoop(ctx, c)

	if err := c.send(Outbound{Type: TypeConnected, SessionID: sessionID, Greeting: greeting}); err != nil {
		return
	}

	for {
		var msg Inbound
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			_ = c.send(Outbound{Type: TypeError, SessionID: sessionID, Error: "session mismatch"})
			continue
		}
		if err := c.send(h.handleMessage(ctx, logger, sessionID, msg)); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
		// Pongs are not read while a turn resolves, so the deadline restarts
		// once the reply is out.
		_ = ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *Handler) handleMessage(ctx context.Context, logger *slog.Logger, sessionID string, msg Inbound) Outbound {
	switch msg.Type {
	case TypeClear:
		if err := h.chatSvc.ClearHistory(ctx, sessionID); err != nil {
			return Outbound{Type: TypeError, SessionID: sessionID, Error: err.Error()}
		}
		return Outbound{Type: TypeCleared, SessionID: sessionID}
	case TypeMessage, "":
		outcome, err := h.chatSvc.Converse(ctx, sessionID, msg.Message)
		switch {
		case errors.Is(err, chatService.ErrEmptyMessage):
			return Outbound{Type: TypeError, SessionID: sessionID, Error: "message is required"}
		case err != nil:
			logger.Error("websocket chat failed", "error", err)
			return Outbound{Type: TypeResponse, SessionID: sessionID, Response: h.fallback}
		}
		return Outbound{Type: TypeResponse, SessionID: sessionID, Response: outcome.Text, Tool: outcome.ToolName}
	default:
		return Outbound{Type: TypeError, SessionID: sessionID, Error: "unsupported message type: " + msg.Type}
	}
}

// bind attaches the connection to an existing session or opens a new one.
func (h *Handler) bind(ctx context.Context, sessionID, profileID string) (string, string, error) {
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		if _, err := h.chatSvc.GetSession(ctx, sessionID); err == nil {
			return sessionID, "", nil
		}
	}
	if profileID == "" {
		profileID = h.chatSvc.DefaultProfile()
	}
	session, err := h.chatSvc.CreateSession(ctx, profileID)
	if err != nil {
		return "", "", err
	}
	p, _ := h.chatSvc.Profile(session.ProfileID)
	return session.ID, p.Greeting, nil
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(h.readTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
