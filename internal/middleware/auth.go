package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openchat/pkg/auth"
)

const IdentityKey = "identity"

// Identity содержит аутентифицированную личность вызывающего из токена
type Identity struct {
	UserID   int64
	Username string
	Email    string
}

// AuthMiddleware проверяет JWT токен для REST-запросов
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			c.Abort()
			return
		}

		ident, err := verify(jwtManager, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(IdentityKey, ident)
		c.Next()
	}
}

// WSIdentity достает личность для WebSocket-запросов из query или header.
// Никогда не прерывает запрос: отказ с кодом закрытия отправляет gateway
// уже по самому соединению.
func WSIdentity(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					token = parts[1]
				}
			}
		}

		if token != "" {
			if ident, err := verify(jwtManager, token); err == nil {
				c.Set(IdentityKey, ident)
			}
		}

		c.Next()
	}
}

// CallerIdentity возвращает личность, установленную middleware
func CallerIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

func verify(jwtManager *auth.JWTManager, token string) (Identity, error) {
	claims, err := jwtManager.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return Identity{}, err
	}

	return Identity{
		UserID:   userID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}
