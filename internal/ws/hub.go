package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Hub хранит членство комнат этого процесса: какие живые соединения в какой беседе.
// Состояние эфемерно и восстанавливается переподключениями клиентов.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[uuid.UUID]*Client
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[uuid.UUID]*Client),
	}
}

// Join добавляет клиента в комнату его беседы
func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.ConversationID]
	if !ok {
		room = make(map[uuid.UUID]*Client)
		h.rooms[client.ConversationID] = room
	}
	room[client.ID] = client

	log.Info().
		Int64("user_id", client.UserID).
		Str("conversation_id", client.ConversationID).
		Str("client_id", client.ID.String()).
		Msg("Client joined room")
}

// Leave убирает клиента из комнаты. Идемпотентен: повторный вызов
// для уже отсутствующего клиента ничего не делает.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.ConversationID]
	if !ok {
		return
	}
	if _, ok := room[client.ID]; !ok {
		return
	}

	delete(room, client.ID)
	if len(room) == 0 {
		delete(h.rooms, client.ConversationID)
	}
	close(client.Send)

	log.Info().
		Int64("user_id", client.UserID).
		Str("conversation_id", client.ConversationID).
		Str("client_id", client.ID.String()).
		Msg("Client left room")
}

// Dispatch доставляет кадр всем локальным членам комнаты.
// Пустая комната не ошибка. Переполненная очередь клиента
// не блокирует доставку остальным.
func (h *Hub) Dispatch(conversationID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[conversationID] {
		select {
		case client.Send <- frame:
		default:
			log.Warn().
				Str("client_id", client.ID.String()).
				Str("conversation_id", conversationID).
				Msg("Client send queue full, frame dropped")
		}
	}
}

// RoomSize возвращает число локальных соединений в комнате
func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// Stop закрывает все соединения при остановке сервера
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conversationID, room := range h.rooms {
		for _, client := range room {
			close(client.Send)
			client.Conn.Close()
		}
		delete(h.rooms, conversationID)
	}
}
