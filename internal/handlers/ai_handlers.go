package handlers

import (
	"net/http"
	"time"

	"github.com/01moynul/greens-storefront/internal/apperrors"
	"github.com/01moynul/greens-storefront/internal/logger"
	"github.com/01moynul/greens-storefront/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatInput defines the structure of the JSON request body.
type ChatInput struct {
	Message string `json:"message" binding:"required,max=1000"`
}

// ChatAssistant handles POST /v1/assistant/chat
func (h *Handlers) ChatAssistant(c *gin.Context) {
	if h.Assistant == nil {
		h.respondError(c, apperrors.Unavailable("The shopping assistant is not available"))
		return
	}

	// 1. Parse Input
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respondError(c, apperrors.BadRequest("Invalid input: "+err.Error()))
		return
	}

	// 2. Ask the assistant
	reply, tokens, err := h.Assistant.Reply(c.Request.Context(), input.Message)
	if err != nil {
		h.respondError(c, apperrors.New(http.StatusBadGateway, "The shopping assistant could not answer right now", err))
		return
	}

	// 3. Save to history. The shopper already has the answer, so a failure
	// is only logged.
	sessionID := middleware.SessionID(c)
	_, dbErr := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO assistant_messages (session_id, user_message, reply, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, input.Message, reply, tokens, time.Now())
	if dbErr != nil {
		logger.FromContext(c, h.Log).Warn("Failed to save assistant history", zap.Error(dbErr))
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
