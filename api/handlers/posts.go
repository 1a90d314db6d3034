package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"retwis/models"
	"retwis/services"

	"github.com/gin-gonic/gin"
)

var postService = services.NewPostService()
var timelineService = services.NewTimelineService()

// parseRange собирает диапазон из query-параметров page/size
func parseRange(c *gin.Context) models.Range {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	size, _ := strconv.ParseInt(c.DefaultQuery("size", "0"), 10, 64)
	if size > 100 {
		size = 100
	}
	return models.RangeForPage(page, size)
}

// PublishPost создает пост от имени аутентифицированного пользователя
func PublishPost(c *gin.Context) {
	var req struct {
		Content     string `json:"content" binding:"required"`
		ReplyTo     string `json:"reply_to"`
		ReplyPostID string `json:"reply_post_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name := c.GetString("user_name")
	if name == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pid, err := postService.Publish(c.Request.Context(), name, req.Content, req.ReplyTo, req.ReplyPostID)
	if err != nil {
		if errors.Is(err, services.ErrUnknownUser) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"pid": pid})
}

// GetPost возвращает один пост в формате выдачи
func GetPost(c *gin.Context) {
	pid := c.Param("pid")

	posts, err := timelineService.GetPost(c.Request.Context(), pid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get post"})
		return
	}
	if len(posts) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, posts[0])
}

// GetUserPosts возвращает страницу собственных постов пользователя
func GetUserPosts(c *gin.Context) {
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

	r := parseRange(c)
	posts, err := timelineService.GetPosts(c.Request.Context(), uid, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get posts"})
		return
	}
	hasMore, err := timelineService.HasMorePosts(c.Request.Context(), uid, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "has_more": hasMore})
}

// GetTimeline возвращает страницу домашней ленты
func GetTimeline(c *gin.Context) {
	uid := c.GetString("user_id")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	r := parseRange(c)
	posts, err := timelineService.GetTimeline(c.Request.Context(), uid, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get timeline"})
		return
	}
	hasMore, err := timelineService.HasMoreTimeline(c.Request.Context(), uid, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get timeline"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "has_more": hasMore})
}

// GetMentions возвращает страницу упоминаний пользователя
func GetMentions(c *gin.Context) {
	uid := c.GetString("user_id")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	r := parseRange(c)
	posts, err := timelineService.GetMentions(c.Request.Context(), uid, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get mentions"})
		return
	}
	hasMore, err := timelineService.HasMoreMentions(c.Request.Context(), uid, r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get mentions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "has_more": hasMore})
}

// GetGlobalTimeline возвращает страницу глобальной ленты
func GetGlobalTimeline(c *gin.Context) {
	r := parseRange(c)
	posts, err := timelineService.GetGlobalTimeline(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get timeline"})
		return
	}
	hasMore, err := timelineService.HasMoreGlobalTimeline(c.Request.Context(), r)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get timeline"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "has_more": hasMore})
}
