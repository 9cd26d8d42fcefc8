package dto

import (
	"openchat/internal/stream"
)

// Envelope описывает входящий кадр соединения
type Envelope struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// MessagePayload несет тело исходящего кадра "message". Email и username
// берутся из живой личности отправителя, а не перечитываются из хранилищ.
type MessagePayload struct {
	ID             string `json:"id"`
	UserID         int64  `json:"user_id"`
	UserEmail      string `json:"user_email"`
	Username       string `json:"username"`
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id"`
}

type MessageFrame struct {
	Type    string         `json:"type"`
	Message MessagePayload `json:"message"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HistoryResponse содержит страницу истории. NextFrom непрозрачен для клиента:
// ID последнего сообщения страницы, null если страница пуста.
type HistoryResponse struct {
	ConversationID string           `json:"conversation_id"`
	Messages       []stream.Message `json:"messages"`
	NextFrom       *string          `json:"next_from"`
}
