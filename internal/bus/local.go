package bus

import (
	"context"

	"openchat/internal/ws"
)

// Local раздает кадры напрямую через hub. Подходит для одного процесса
// и для тестов.
type Local struct {
	hub *ws.Hub
}

func NewLocal(hub *ws.Hub) *Local {
	return &Local{hub: hub}
}

func (b *Local) Broadcast(_ context.Context, conversationID string, frame []byte) error {
	b.hub.Dispatch(conversationID, frame)
	return nil
}

func (b *Local) Close() error {
	return nil
}
