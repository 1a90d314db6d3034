package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserGet возвращает профиль: существование, id и флаг подписки
// текущего пользователя (если тот аутентифицирован)
func UserGet(c *gin.Context) {
	name := c.Param("name")

	uid, err := userService.FindUID(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if uid == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	resp := gin.H{"user_id": uid, "name": name}

	if viewerUID := c.GetString("user_id"); viewerUID != "" && viewerUID != uid {
		following, err := graphService.IsFollowing(c.Request.Context(), viewerUID, uid)
		if err == nil {
			resp["is_following"] = following
		}
	}

	c.JSON(http.StatusOK, resp)
}

// NewUsers возвращает страницу последних зарегистрированных имен
func NewUsers(c *gin.Context) {
	r := parseRange(c)
	names, err := timelineService.NewUsers(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": names})
}
