package handlers

import (
	"fmt"
	"net/http"

	"retwis/services"

	"github.com/gin-gonic/gin"
)

var graphService = services.NewGraphService()

type FollowRequest struct {
	Name string `json:"name" binding:"required"`
}

// Follow подписывает текущего пользователя на указанного
func Follow(c *gin.Context) {
	uid, targetUID, targetName, ok := resolveFollowPair(c)
	if !ok {
		return
	}

	if err := graphService.Follow(c.Request.Context(), uid, targetUID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow"})
		return
	}

	// Уведомление адресату, best-effort
	_ = services.SendWsNotify(targetUID, "follow",
		fmt.Sprintf("%s started following you", c.GetString("user_name")))

	c.JSON(http.StatusOK, gin.H{"message": "Now following " + targetName})
}

// Unfollow отписывает текущего пользователя от указанного
func Unfollow(c *gin.Context) {
	uid, targetUID, targetName, ok := resolveFollowPair(c)
	if !ok {
		return
	}

	if err := graphService.StopFollowing(c.Request.Context(), uid, targetUID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Stopped following " + targetName})
}

// GetFollowers возвращает имена подписчиков пользователя
func GetFollowers(c *gin.Context) {
	uid, ok := resolveNameParam(c)
	if !ok {
		return
	}

	names, err := graphService.GetFollowers(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get followers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": names})
}

// GetFollowing возвращает имена, на кого подписан пользователь
func GetFollowing(c *gin.Context) {
	uid, ok := resolveNameParam(c)
	if !ok {
		return
	}

	names, err := graphService.GetFollowing(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get following"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": names})
}

// AlsoFollowed - кто из подписок текущего пользователя тоже
// подписан на указанного
func AlsoFollowed(c *gin.Context) {
	uid := c.GetString("user_id")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	targetUID, ok := resolveNameParam(c)
	if !ok {
		return
	}

	names, err := graphService.AlsoFollowed(c.Request.Context(), uid, targetUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute intersection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"also_followed": names})
}

// CommonFollowers - общие подписки текущего и указанного пользователей
func CommonFollowers(c *gin.Context) {
	uid := c.GetString("user_id")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	targetUID, ok := resolveNameParam(c)
	if !ok {
		return
	}

	names, err := graphService.CommonFollowers(c.Request.Context(), uid, targetUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute intersection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"common_followers": names})
}

// resolveFollowPair достает текущего пользователя из контекста и
// цель из тела запроса
func resolveFollowPair(c *gin.Context) (uid, targetUID, targetName string, ok bool) {
	uid = c.GetString("user_id")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", "", false
	}

	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return "", "", "", false
	}

	targetUID, err := userService.FindUID(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return "", "", "", false
	}
	if targetUID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return "", "", "", false
	}
	if targetUID == uid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return "", "", "", false
	}
	return uid, targetUID, req.Name, true
}

// resolveNameParam резолвит :name из пути в uid
func resolveNameParam(c *gin.Context) (string, bool) {
	name := c.Param("name")
	uid, err := userService.FindUID(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return "", false
	}
	if uid == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return "", false
	}
	return uid, true
}
