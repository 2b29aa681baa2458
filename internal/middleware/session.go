package middleware

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/sus/internal/auth"
	"github.com/SergeiKhy/sus/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// RequireSession пропускает запрос дальше только с валидной сессией.
// Без сессии запрос отклоняется до любого обращения к хранилищу.
func RequireSession(resolver auth.IdentityResolver, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request)
		if err != nil {
			if !errors.Is(err, auth.ErrNoSession) {
				// Например, недоступен Redis с отозванными сессиями
				logger.Error("Failed to resolve session", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Unauthorized",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity извлекает пользователя, установленного RequireSession
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*models.Identity)
	if !ok || identity == nil || identity.UserID == "" {
		return nil, false
	}
	return identity, true
}

// UserKey ключ rate limiting по пользователю; пустой без сессии
func UserKey(c *gin.Context) string {
	if identity, ok := GetIdentity(c); ok {
		return "user:" + identity.UserID
	}
	return ""
}
