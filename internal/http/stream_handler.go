package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"therapy-chat/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 8 * 1024
)

type inboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// StreamHandler expone la conversación por WebSocket: el cliente envía mensajes
// y recibe los eventos de la sesión (mensaje, estado, indicador de escritura).
type StreamHandler struct {
	logger       *zap.Logger
	conversation *service.ConversationService
	upgrader     websocket.Upgrader
}

func NewStreamHandler(logger *zap.Logger, conversation *service.ConversationService) *StreamHandler {
	return &StreamHandler{
		logger:       logger,
		conversation: conversation,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Connect maneja GET /session/ws.
func (h *StreamHandler) Connect(c *gin.Context) {
	claims, ok := GetSessionClaims(c)
	if !ok || claims.SessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	sessionID := claims.SessionID
	if _, err := h.conversation.Session(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("load session for stream failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open stream"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.conversation.Subscribe(sessionID)
	defer unsubscribe()

	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	go h.pump(conn, events, write, &writeMu, done)

	h.logger.Info("stream connected", zap.String("session_id", sessionID))
	h.readLoop(c, conn, sessionID, write)
	close(done)
	h.logger.Info("stream disconnected", zap.String("session_id", sessionID))
}

func (h *StreamHandler) pump(conn *websocket.Conn, events <-chan service.Event, write func(any) error, writeMu *sync.Mutex, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := write(evt); err != nil {
				h.logger.Warn("stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) readLoop(c *gin.Context, conn *websocket.Conn, sessionID string, write func(any) error) {
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("stream read failed", zap.Error(err), zap.String("session_id", sessionID))
			}
			return
		}
		if frame.Type != "message" {
			_ = write(errorFrame{Type: "error", Error: "unsupported frame type"})
			continue
		}
		// La respuesta llega por el canal de eventos; no se espera aquí.
		if _, err := h.conversation.Send(c.Request.Context(), sessionID, frame.Content); err != nil {
			_ = write(errorFrame{Type: "error", Error: streamErrorMessage(err)})
			if !isClientError(err) {
				h.logger.Error("stream send failed", zap.Error(err), zap.String("session_id", sessionID))
			}
		}
	}
}

func isClientError(err error) bool {
	return errors.Is(err, service.ErrEmptyMessage) ||
		errors.Is(err, service.ErrReplyPending) ||
		errors.Is(err, service.ErrRateLimited) ||
		errors.Is(err, service.ErrSessionNotFound)
}

func streamErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return "message is empty"
	case errors.Is(err, service.ErrReplyPending):
		return "assistant is still replying"
	case errors.Is(err, service.ErrRateLimited):
		return "too many requests"
	case errors.Is(err, service.ErrSessionNotFound):
		return "session not found"
	default:
		return "could not send message"
	}
}
