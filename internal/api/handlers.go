// Package api exposes the assistant over HTTP.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sagechat/internal/assistant"
	"sagechat/internal/models"
)

// Assistant is the service surface the handlers need.
type Assistant interface {
	ResolveTurn(ctx context.Context, sessionID, userMessage string) (assistant.TurnResult, error)
	Conversation(sessionID string) []models.Message
	ClearConversation(sessionID string)
	SessionInfo(sessionID string) *models.SessionInfo
}

// Handler wires HTTP routes to the assistant service.
type Handler struct {
	assistant Assistant
}

// NewHandler constructs a Handler instance.
func NewHandler(service Assistant) *Handler {
	return &Handler{assistant: service}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.POST("/chat", h.chat)
	api.GET("/sessions/:id", h.sessionInfo)
	api.GET("/sessions/:id/messages", h.sessionMessages)
	api.DELETE("/sessions/:id", h.clearSession)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Intent    string `json:"intent"`
	Source    string `json:"source"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.assistant.ResolveTurn(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		SessionID: sessionID,
		Answer:    result.Answer,
		Intent:    result.Intent,
		Source:    result.Source,
	})
}

func (h *Handler) sessionInfo(c *gin.Context) {
	info := h.assistant.SessionInfo(c.Param("id"))
	if info == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) sessionMessages(c *gin.Context) {
	messages := h.assistant.Conversation(c.Param("id"))
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) clearSession(c *gin.Context) {
	h.assistant.ClearConversation(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
