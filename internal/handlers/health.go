package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"openchat/internal/stream"
)

// Pinger проверяет доступность реляционного хранилища
type Pinger interface {
	Ping() error
}

// HealthHandler проверяет Postgres и Redis
type HealthHandler struct {
	db       Pinger
	messages *stream.Log
}

func NewHealthHandler(db Pinger, messages *stream.Log) *HealthHandler {
	return &HealthHandler{db: db, messages: messages}
}

func (h *HealthHandler) Check(c *gin.Context) {
	checks := gin.H{
		"postgres": false,
		"redis":    false,
	}
	healthy := true

	if err := h.db.Ping(); err != nil {
		log.Error().Err(err).Msg("PostgreSQL health check failed")
		healthy = false
	} else {
		checks["postgres"] = true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.messages.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Redis health check failed")
		healthy = false
	} else {
		checks["redis"] = true
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status": state,
		"checks": checks,
	})
}
