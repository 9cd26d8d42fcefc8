package bus

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"openchat/internal/ws"
)

const channelPrefix = "chat:conv:"

// Redis раздает кадры через pub/sub: каждый процесс публикует в канал
// беседы и скармливает своему hub все, что приходит по подписке.
// Redis сохраняет порядок публикаций внутри канала, что дает требуемый
// порядок доставки в пределах одной беседы.
type Redis struct {
	rdb    *redis.Client
	hub    *ws.Hub
	pubsub *redis.PubSub
}

func NewRedis(rdb *redis.Client, hub *ws.Hub) (*Redis, error) {
	pubsub := rdb.PSubscribe(context.Background(), channelPrefix+"*")

	// Дожидаемся подтверждения подписки, чтобы не потерять публикации
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	b := &Redis{rdb: rdb, hub: hub, pubsub: pubsub}
	go b.listen()

	return b, nil
}

func (b *Redis) Broadcast(ctx context.Context, conversationID string, frame []byte) error {
	return b.rdb.Publish(ctx, channelPrefix+conversationID, frame).Err()
}

func (b *Redis) listen() {
	for msg := range b.pubsub.Channel() {
		conversationID := strings.TrimPrefix(msg.Channel, channelPrefix)
		b.hub.Dispatch(conversationID, []byte(msg.Payload))
	}
	log.Debug().Msg("Bus subscription closed")
}

func (b *Redis) Close() error {
	return b.pubsub.Close()
}
