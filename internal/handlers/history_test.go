package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"openchat/internal/handlers/dto"
	"openchat/internal/middleware"
	"openchat/internal/stream"
	"openchat/pkg/auth"
)

type historyEnv struct {
	router       *gin.Engine
	messages     *stream.Log
	participants *fakeParticipants
	jwt          *auth.JWTManager
}

func newHistoryEnv(t *testing.T) *historyEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })

	messages := stream.NewLog(rdb, 1000)
	participants := &fakeParticipants{members: make(map[string]bool)}
	jwtMgr := auth.NewJWTManager("test-secret", time.Hour)

	historyH := NewHistoryHandler(messages, participants)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr))
	api.GET("/conversations/:id/messages", historyH.GetMessages)

	return &historyEnv{
		router:       router,
		messages:     messages,
		participants: participants,
		jwt:          jwtMgr,
	}
}

func (e *historyEnv) get(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *historyEnv) seed(t *testing.T, conversationID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := e.messages.Append(context.Background(), conversationID, 1, "alice", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func decodeHistory(t *testing.T, rec *httptest.ResponseRecorder) dto.HistoryResponse {
	t.Helper()
	var resp dto.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHistoryRequiresToken(t *testing.T) {
	env := newHistoryEnv(t)

	rec := env.get(t, "/api/v1/conversations/"+testConversation+"/messages", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHistoryForbiddenForNonParticipant(t *testing.T) {
	env := newHistoryEnv(t)
	token, err := env.jwt.Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	rec := env.get(t, "/api/v1/conversations/"+testConversation+"/messages", token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "not a participant")
}

func TestHistoryLatestPage(t *testing.T) {
	env := newHistoryEnv(t)
	env.participants.add(1, testConversation)
	ids := env.seed(t, testConversation, 5)

	token, err := env.jwt.Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	rec := env.get(t, "/api/v1/conversations/"+testConversation+"/messages", token)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeHistory(t, rec)
	require.Equal(t, testConversation, resp.ConversationID)
	require.Len(t, resp.Messages, 5)
	require.Equal(t, "message 0", resp.Messages[0].Content)
	require.Equal(t, "message 4", resp.Messages[4].Content)
	require.NotNil(t, resp.NextFrom)
	require.Equal(t, ids[4], *resp.NextFrom)
}

func TestHistoryLimitReturnsLatestTail(t *testing.T) {
	env := newHistoryEnv(t)
	env.participants.add(1, testConversation)
	env.seed(t, testConversation, 5)

	token, err := env.jwt.Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	rec := env.get(t, "/api/v1/conversations/"+testConversation+"/messages?limit=2", token)
	require.Equal(t, http.StatusOK, rec.Code)

	// Sentinel-режим: последние limit, от старых к новым
	resp := decodeHistory(t, rec)
	require.Len(t, resp.Messages, 2)
	require.Equal(t, "message 3", resp.Messages[0].Content)
	require.Equal(t, "message 4", resp.Messages[1].Content)
}

func TestHistoryCursorPagination(t *testing.T) {
	env := newHistoryEnv(t)
	env.participants.add(1, testConversation)
	env.seed(t, testConversation, 6)

	token, err := env.jwt.Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	rec := env.get(t, "/api/v1/conversations/"+testConversation+"/messages?from=-&limit=2", token)
	first := decodeHistory(t, rec)
	require.Len(t, first.Messages, 2)
	require.NotNil(t, first.NextFrom)

	// Курсор возвращается как есть: следующая страница строго после него
	rec = env.get(t, "/api/v1/conversations/"+testConversation+"/messages?from="+*first.NextFrom+"&limit=10", token)
	second := decodeHistory(t, rec)
	require.Empty(t, second.Messages)

	// Прямая пагинация с начала: после второго сообщения идут остальные
	rec = env.get(t, "/api/v1/conversations/"+testConversation+"/messages?limit=100", token)
	all := decodeHistory(t, rec)
	require.Len(t, all.Messages, 6)

	rec = env.get(t, "/api/v1/conversations/"+testConversation+"/messages?from="+all.Messages[1].ID, token)
	tail := decodeHistory(t, rec)
	require.Len(t, tail.Messages, 4)
	require.Equal(t, "message 2", tail.Messages[0].Content)
	require.Equal(t, all.Messages[5].ID, *tail.NextFrom)
}

func TestHistoryEmptyConversation(t *testing.T) {
	env := newHistoryEnv(t)
	env.participants.add(1, testConversation)

	token, err := env.jwt.Generate(1, "alice", "alice@example.com")
	require.NoError(t, err)

	rec := env.get(t, "/api/v1/conversations/"+testConversation+"/messages", token)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeHistory(t, rec)
	require.Empty(t, resp.Messages)
	require.Nil(t, resp.NextFrom)
}

func TestHistoryLimitClamping(t *testing.T) {
	require.Equal(t, defaultHistoryLimit, parseLimit(""))
	require.Equal(t, defaultHistoryLimit, parseLimit("abc"))
	require.Equal(t, 1, parseLimit("0"))
	require.Equal(t, 1, parseLimit("-5"))
	require.Equal(t, maxHistoryLimit, parseLimit("1000"))
	require.Equal(t, 25, parseLimit("25"))
}
