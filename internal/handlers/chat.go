package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"openchat/internal/bus"
	"openchat/internal/handlers/dto"
	"openchat/internal/middleware"
	"openchat/internal/stream"
	"openchat/internal/throttle"
	"openchat/internal/ws"
)

// Коды ошибок, отправляемые кадром error инициатору
const (
	CodeInvalidJSON    = "INVALID_JSON"
	CodeInvalidType    = "INVALID_TYPE"
	CodeInvalidContent = "INVALID_CONTENT"
	CodeContentTooLong = "CONTENT_TOO_LONG"
	CodeThrottled      = "THROTTLED"
	CodeStorageError   = "STORAGE_ERROR"
	CodeInternalError  = "INTERNAL_ERROR"
)

const (
	typeMessageSend = "message.send"

	// Лимит длины содержимого в кодпоинтах
	maxContentLen = 2000

	storeTimeout = 5 * time.Second
)

// ParticipantChecker отвечает на внешний вопрос "состоит ли пользователь
// в беседе". Ядро не зависит от конкретного хранилища участников.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, userID int64, conversationID string) (bool, error)
}

// ChatGateway владеет жизненным циклом соединений:
// авторизация, вход в комнату, цикл приема, выход
type ChatGateway struct {
	hub          *ws.Hub
	bus          bus.Broadcaster
	messages     *stream.Log
	limiter      *throttle.Limiter
	participants ParticipantChecker
	upgrader     websocket.Upgrader
}

func NewChatGateway(hub *ws.Hub, b bus.Broadcaster, messages *stream.Log, limiter *throttle.Limiter, participants ParticipantChecker) *ChatGateway {
	return &ChatGateway{
		hub:          hub,
		bus:          b,
		messages:     messages,
		limiter:      limiter,
		participants: participants,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// TODO: проверять origin по whitelist в prod
				return true
			},
		},
	}
}

// HandleWebSocket принимает соединение и прогоняет его через авторизацию.
// Отказы отправляются кодом закрытия по уже установленному соединению.
func (g *ChatGateway) HandleWebSocket(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := uuid.Parse(conversationID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		log.Warn().
			Str("conversation_id", conversationID).
			Msg("Unauthenticated WebSocket connection attempt")
		closeWithCode(conn, ws.CloseUnauthenticated, "unauthenticated")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	isMember, err := g.participants.IsParticipant(ctx, ident.UserID, conversationID)
	if err != nil {
		log.Error().
			Int64("user_id", ident.UserID).
			Str("conversation_id", conversationID).
			Err(err).
			Msg("Error checking participant membership")
		closeWithCode(conn, ws.CloseInternalError, "authorization check failed")
		return
	}
	if !isMember {
		log.Warn().
			Int64("user_id", ident.UserID).
			Str("conversation_id", conversationID).
			Msg("Non-participant WebSocket connection attempt")
		closeWithCode(conn, ws.CloseForbidden, "forbidden")
		return
	}

	client := ws.NewClient(g.hub, conn, ident.UserID, ident.Username, ident.Email, conversationID)
	g.hub.Join(client)

	go client.WritePump()
	go client.ReadPump(g)

	log.Info().
		Int64("user_id", ident.UserID).
		Str("conversation_id", conversationID).
		Msg("WebSocket connection established")
}

// HandleFrame обрабатывает один входящий кадр. Любая ошибка здесь
// отправляется только инициатору и не закрывает соединение.
func (g *ChatGateway) HandleFrame(client *ws.Client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("user_id", client.UserID).
				Str("conversation_id", client.ConversationID).
				Interface("panic", r).
				Msg("Error processing WebSocket message")
			client.SendError(CodeInternalError, "An error occurred")
		}
	}()

	var env dto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		client.SendError(CodeInvalidJSON, "Invalid JSON format")
		return
	}

	switch env.Type {
	case typeMessageSend:
		g.handleMessageSend(client, env.Content)
	default:
		client.SendError(CodeInvalidType, fmt.Sprintf("Unknown message type: %s", env.Type))
	}
}

func (g *ChatGateway) handleMessageSend(client *ws.Client, raw string) {
	content := strings.TrimSpace(raw)

	if content == "" {
		client.SendError(CodeInvalidContent, "Message content is required")
		return
	}

	if utf8.RuneCountInString(content) > maxContentLen {
		client.SendError(CodeContentTooLong, "Message content must be 2000 characters or less")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if !g.limiter.Allow(ctx, client.UserID, client.ConversationID) {
		client.SendError(CodeThrottled, "You are sending messages too quickly. Please slow down.")
		return
	}

	messageID, err := g.messages.Append(ctx, client.ConversationID, client.UserID, client.Username, content)
	if err != nil {
		// Без повторов: клиент может переотправить сам
		client.SendError(CodeStorageError, "Failed to save message")
		return
	}

	frame, err := json.Marshal(dto.MessageFrame{
		Type: "message",
		Message: dto.MessagePayload{
			ID:             messageID,
			UserID:         client.UserID,
			UserEmail:      client.Email,
			Username:       client.Username,
			Content:        content,
			ConversationID: client.ConversationID,
		},
	})
	if err != nil {
		client.SendError(CodeInternalError, "An error occurred")
		return
	}

	if err := g.bus.Broadcast(ctx, client.ConversationID, frame); err != nil {
		log.Error().
			Str("conversation_id", client.ConversationID).
			Str("message_id", messageID).
			Err(err).
			Msg("Failed to broadcast message")
	}

	log.Info().
		Int64("user_id", client.UserID).
		Str("conversation_id", client.ConversationID).
		Str("message_id", messageID).
		Msg("Message sent")
}

func closeWithCode(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(storeTimeout)
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	conn.Close()
}
