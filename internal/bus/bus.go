package bus

import "context"

// Broadcaster доставляет кадр всем членам беседы. Членство логически
// глобальное: реализация обязана дотянуться и до соединений в других
// процессах, если они есть.
type Broadcaster interface {
	Broadcast(ctx context.Context, conversationID string, frame []byte) error
	Close() error
}
