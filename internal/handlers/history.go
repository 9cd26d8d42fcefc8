package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"openchat/internal/handlers/dto"
	"openchat/internal/middleware"
	"openchat/internal/stream"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// HistoryHandler читает историю беседы напрямую из лога, минуя gateway
type HistoryHandler struct {
	messages     *stream.Log
	participants ParticipantChecker
}

func NewHistoryHandler(messages *stream.Log, participants ParticipantChecker) *HistoryHandler {
	return &HistoryHandler{messages: messages, participants: participants}
}

// GetMessages обрабатывает GET /api/v1/conversations/:id/messages.
// Курсор from непрозрачен для клиента и возвращается ему как next_from.
func (h *HistoryHandler) GetMessages(c *gin.Context) {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
		return
	}

	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	isMember, err := h.participants.IsParticipant(ctx, ident.UserID, conversationID)
	if err != nil {
		log.Error().
			Int64("user_id", ident.UserID).
			Str("conversation_id", conversationID).
			Err(err).
			Msg("Error checking participant membership")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}
	if !isMember {
		log.Warn().
			Int64("user_id", ident.UserID).
			Str("conversation_id", conversationID).
			Msg("Unauthorized message history access attempt")
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not a participant in this conversation"})
		return
	}

	fromID := c.DefaultQuery("from", stream.FromLatest)
	limit := parseLimit(c.Query("limit"))

	messages, err := h.messages.Range(ctx, conversationID, fromID, int64(limit))
	if err != nil {
		log.Error().
			Int64("user_id", ident.UserID).
			Str("conversation_id", conversationID).
			Err(err).
			Msg("Failed to retrieve message history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	var nextFrom *string
	if len(messages) > 0 {
		nextFrom = &messages[len(messages)-1].ID
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		ConversationID: conversationID,
		Messages:       messages,
		NextFrom:       nextFrom,
	})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultHistoryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return defaultHistoryLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}
