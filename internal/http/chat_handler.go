package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"therapy-chat/internal/domain"
	"therapy-chat/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de sesiones y mensajes.
type ChatHandler struct {
	logger       *zap.Logger
	conversation *service.ConversationService
	tokens       *service.SessionTokenService
	mood         service.MoodSampler
	replyTimeout time.Duration
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	conversation *service.ConversationService,
	tokens *service.SessionTokenService,
	mood service.MoodSampler,
	replyTimeout time.Duration,
) *ChatHandler {
	if replyTimeout <= 0 {
		replyTimeout = 30 * time.Second
	}
	return &ChatHandler{
		logger:       logger,
		conversation: conversation,
		tokens:       tokens,
		mood:         mood,
		replyTimeout: replyTimeout,
	}
}

// CreateSession maneja POST /session: la puerta del disclaimer.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req struct {
		AcceptDisclaimer bool `json:"accept_disclaimer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, messages, err := h.conversation.StartSession(c.Request.Context(), req.AcceptDisclaimer)
	if err != nil {
		if errors.Is(err, service.ErrDisclaimerNotAccepted) {
			c.JSON(http.StatusForbidden, gin.H{"error": "disclaimer must be accepted", "disclaimer": domain.Disclaimer})
			return
		}
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	token, err := h.tokens.Issue(session.ID, session.ExpiresAt)
	if err != nil {
		h.logger.Error("issue session token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session":  session,
		"token":    token,
		"messages": messages,
	})
}

// GetSession maneja GET /session.
func (h *ChatHandler) GetSession(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	session, err := h.conversation.Session(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err, "could not load session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ListMessages maneja GET /session/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	messages, err := h.conversation.History(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err, "could not list messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// PostMessage maneja POST /session/messages y espera la respuesta del asistente.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pending, err := h.conversation.Send(c.Request.Context(), sessionID, req.Content)
	if err != nil {
		h.writeError(c, err, "could not post message")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.replyTimeout)
	defer cancel()
	reply, err := pending.Wait(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		h.logger.Error("assistant reply failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":        "could not store assistant reply",
			"user_message": pending.UserMessage,
		})
		return
	}
	if err != nil {
		// Solo venció la espera: el temporizador sigue y la respuesta llega al historial.
		h.logger.Warn("assistant reply not ready", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusAccepted, gin.H{
			"user_message":    pending.UserMessage,
			"emotional_state": pending.State,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_message":      pending.UserMessage,
		"assistant_message": reply,
		"emotional_state":   pending.State,
	})
}

// SetEmergencyPanel maneja PUT /session/emergency.
func (h *ChatHandler) SetEmergencyPanel(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Show *bool `json:"show" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid emergency toggle request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	session, err := h.conversation.SetEmergencyPanel(c.Request.Context(), sessionID, *req.Show)
	if err != nil {
		h.writeError(c, err, "could not update session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// MoodHistory maneja GET /session/mood.
func (h *ChatHandler) MoodHistory(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	session, err := h.conversation.Session(c.Request.Context(), sessionID)
	if err != nil {
		h.writeError(c, err, "could not load mood history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"mood": h.mood.Sample(session.CurrentState)})
}

func (h *ChatHandler) sessionID(c *gin.Context) (string, bool) {
	claims, ok := GetSessionClaims(c)
	if !ok || claims.SessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return "", false
	}
	return claims.SessionID, true
}

func (h *ChatHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrReplyPending):
		c.JSON(http.StatusConflict, gin.H{"error": "assistant is still replying"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
