package server

import (
	"github.com/gin-gonic/gin"

	"openchat/internal/handlers"
	"openchat/internal/middleware"
	"openchat/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	jwtMgr *auth.JWTManager,
	authH *handlers.AuthHandler,
	gateway *handlers.ChatGateway,
	historyH *handlers.HistoryHandler,
	healthH *handlers.HealthHandler,
) {
	r.GET("/health", healthH.Check)

	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
	}

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr))
	{
		api.GET("/conversations/:id/messages", historyH.GetMessages)
	}

	// WebSocket: отказ уходит кодом закрытия, поэтому middleware мягкий
	wsGroup := r.Group("/ws")
	wsGroup.Use(middleware.WSIdentity(jwtMgr))
	{
		wsGroup.GET("/conversations/:id", gateway.HandleWebSocket)
	}
}
