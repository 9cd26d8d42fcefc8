package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Время ожидания записи
	writeWait = 10 * time.Second

	// Время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего кадра
	maxMessageSize = 64 * 1024
)

// FrameHandler обрабатывает один входящий кадр. Ошибки протокола он
// возвращает клиенту сам, кадр никогда не закрывает соединение.
type FrameHandler interface {
	HandleFrame(client *Client, data []byte)
}

// Client владеет одним соединением и привязан к одной беседе
// на все время своей жизни
type Client struct {
	ID             uuid.UUID
	UserID         int64
	Username       string
	Email          string
	ConversationID string

	Conn *websocket.Conn
	Send chan []byte

	hub *Hub
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64, username, email, conversationID string) *Client {
	return &Client{
		ID:             uuid.New(),
		UserID:         userID,
		Username:       username,
		Email:          email,
		ConversationID: conversationID,
		Conn:           conn,
		Send:           make(chan []byte, 256),
		hub:            hub,
	}
}

// ReadPump читает кадры от клиента до закрытия соединения.
// На выходе гарантированно покидает комнату.
func (c *Client) ReadPump(handler FrameHandler) {
	defer func() {
		c.hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().
					Int64("user_id", c.UserID).
					Str("conversation_id", c.ConversationID).
					Err(err).
					Msg("WebSocket read error")
			}
			break
		}

		if handler != nil {
			handler.HandleFrame(c, data)
		}
	}
}

// WritePump отправляет кадры клиенту и пингует его
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendFrame ставит кадр в очередь отправки. Медленный потребитель
// не задерживает остальных: при переполнении кадр отбрасывается.
func (c *Client) SendFrame(frame []byte) error {
	defer func() {
		// Отправка в закрывающееся соединение отбрасывается молча
		recover()
	}()

	select {
	case c.Send <- frame:
		return nil
	default:
		return ErrClientQueueFull
	}
}

// SendError отправляет структурированную ошибку только этому клиенту
func (c *Client) SendError(code, message string) {
	frame, err := json.Marshal(map[string]string{
		"type":    "error",
		"code":    code,
		"message": message,
	})
	if err != nil {
		return
	}
	if err := c.SendFrame(frame); err != nil {
		log.Debug().
			Int64("user_id", c.UserID).
			Str("code", code).
			Msg("Dropped error frame for slow client")
	}
}
