package middleware

import (
	"net/http"
	"strings"

	"retwis/services"

	"github.com/gin-gonic/gin"
)

var userService = services.NewUserService()

// AuthMiddleware резолвит Bearer-токен через Redis
// (user-for-token -> uid -> имя) и кладет пользователя в контекст.
// Идентичность всегда передается явно, глобального "текущего
// пользователя" в сервисном слое нет
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		name, uid, ok := resolveRequestUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: provide Authorization Bearer token"})
			c.Abort()
			return
		}
		c.Set("user_id", uid)
		c.Set("user_name", name)
		c.Next()
	}
}

// OptionalAuthMiddleware - то же, но без отказа анонимным запросам
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name, uid, ok := resolveRequestUser(c); ok {
			c.Set("user_id", uid)
			c.Set("user_name", name)
		}
		c.Next()
	}
}

func resolveRequestUser(c *gin.Context) (name, uid string, ok bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "", false
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	ctx := c.Request.Context()
	name, err := userService.NameForToken(ctx, token)
	if err != nil || name == "" {
		return "", "", false
	}
	uid, err = userService.FindUID(ctx, name)
	if err != nil || uid == "" {
		return "", "", false
	}
	return name, uid, true
}
