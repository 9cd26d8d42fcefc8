package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxMessages = 10
	DefaultWindow      = 60 * time.Second
)

// Limiter ограничивает частоту сообщений счетчиком с фиксированным окном
// на пару (пользователь, беседа). Счетчик живет в Redis и общий для всех
// процессов сервера.
type Limiter struct {
	rdb         *redis.Client
	maxMessages int
	window      time.Duration
}

func NewLimiter(rdb *redis.Client, maxMessages int, window time.Duration) *Limiter {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{rdb: rdb, maxMessages: maxMessages, window: window}
}

func throttleKey(userID int64, conversationID string) string {
	return fmt.Sprintf("throttle:%d:%s", userID, conversationID)
}

// Allow инкрементирует счетчик и отвечает, можно ли отправить сообщение.
// TTL выставляет только вызов, увидевший переход счетчика с нуля на единицу:
// INCR атомарен, поэтому такой вызов ровно один. При недоступности Redis fail open: доступность
// чата важнее строгого лимита.
func (l *Limiter) Allow(ctx context.Context, userID int64, conversationID string) bool {
	key := throttleKey(userID, conversationID)

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Error().
			Int64("user_id", userID).
			Str("conversation_id", conversationID).
			Err(err).
			Msg("Throttle check failed, allowing message")
		return true
	}

	if count == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}

	if count > int64(l.maxMessages) {
		log.Warn().
			Int64("user_id", userID).
			Str("conversation_id", conversationID).
			Int64("count", count).
			Int("max", l.maxMessages).
			Msg("User throttled")
		return false
	}

	return true
}

// Remaining возвращает остаток окна, не изменяя счетчик
func (l *Limiter) Remaining(ctx context.Context, userID int64, conversationID string) int {
	val, err := l.rdb.Get(ctx, throttleKey(userID, conversationID)).Int()
	if err == redis.Nil {
		return l.maxMessages
	}
	if err != nil {
		return l.maxMessages
	}
	if remaining := l.maxMessages - val; remaining > 0 {
		return remaining
	}
	return 0
}
