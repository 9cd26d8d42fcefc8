package stream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const (
	// FromLatest это sentinel-курсор: вернуть последнюю страницу,
	// а не продолжение после конкретного ID
	FromLatest = "-"

	DefaultMaxLen = 5000
)

// Message это неизменяемая запись лога. ID назначает Redis Stream,
// он монотонно растет внутри беседы и служит курсором пагинации.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// Log хранит сообщения бесед в Redis Streams: один stream на беседу,
// обрезка до maxLen приблизительная (MAXLEN ~) и не блокирует запись
type Log struct {
	rdb    *redis.Client
	maxLen int64
}

func NewLog(rdb *redis.Client, maxLen int64) *Log {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Log{rdb: rdb, maxLen: maxLen}
}

func streamKey(conversationID string) string {
	return "stream:conv:" + conversationID
}

// Append добавляет сообщение и возвращает назначенный ID
func (l *Log) Append(ctx context.Context, conversationID string, userID int64, username, content string) (string, error) {
	id, err := l.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(conversationID),
		MaxLen: l.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"user_id":   strconv.FormatInt(userID, 10),
			"username":  username,
			"content":   content,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		log.Error().
			Str("conversation_id", conversationID).
			Int64("user_id", userID).
			Err(err).
			Msg("Failed to add message to stream")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Debug().
		Str("conversation_id", conversationID).
		Int64("user_id", userID).
		Str("message_id", id).
		Msg("Message added to stream")

	return id, nil
}

// Range возвращает сообщения в хронологическом порядке. Два режима:
// fromID == FromLatest дает последние limit сообщений; иначе строго после
// fromID (exclusive), для прямой пагинации.
func (l *Log) Range(ctx context.Context, conversationID, fromID string, limit int64) ([]Message, error) {
	key := streamKey(conversationID)

	var (
		entries []redis.XMessage
		err     error
	)

	if fromID == "" || fromID == FromLatest {
		entries, err = l.rdb.XRevRangeN(ctx, key, "+", "-", limit).Result()
		if err == nil {
			for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	} else {
		entries, err = l.rdb.XRangeN(ctx, key, "("+fromID, "+", limit).Result()
	}

	if err != nil {
		log.Error().
			Str("conversation_id", conversationID).
			Str("from_id", fromID).
			Err(err).
			Msg("Failed to read messages from stream")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	messages := make([]Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, decodeEntry(conversationID, entry))
	}

	return messages, nil
}

// Exists сообщает, существует ли stream беседы. Отсутствие не ошибка,
// просто в беседу еще ничего не писали.
func (l *Log) Exists(ctx context.Context, conversationID string) (bool, error) {
	n, err := l.rdb.Exists(ctx, streamKey(conversationID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Info возвращает метаданные stream для диагностики, nil если его нет
func (l *Log) Info(ctx context.Context, conversationID string) (*redis.XInfoStream, error) {
	info, err := l.rdb.XInfoStream(ctx, streamKey(conversationID)).Result()
	if err != nil {
		if strings.Contains(err.Error(), "no such key") {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return info, nil
}

// Ping проверяет доступность Redis для health check
func (l *Log) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

func decodeEntry(conversationID string, entry redis.XMessage) Message {
	msg := Message{
		ID:             entry.ID,
		ConversationID: conversationID,
	}

	if v, ok := entry.Values["user_id"].(string); ok {
		msg.UserID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := entry.Values["username"].(string); ok {
		msg.Username = v
	}
	if v, ok := entry.Values["content"].(string); ok {
		msg.Content = v
	}
	if v, ok := entry.Values["timestamp"].(string); ok {
		msg.Timestamp, _ = time.Parse(time.RFC3339Nano, v)
	}

	return msg
}
