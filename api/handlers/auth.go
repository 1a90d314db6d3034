package handlers

import (
	"errors"
	"net/http"

	"retwis/services"

	"github.com/gin-gonic/gin"
)

var userService = services.NewUserService()

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register регистрирует пользователя и сразу выдает токен
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	uid, token, err := userService.Register(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrNameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": uid,
		"name":    req.Name,
		"token":   token,
	})
}

// Login сверяет пароль и выдает новый токен
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ok, err := userService.Auth(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := userService.AddAuth(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "name": req.Name, "token": token})
}

// Logout отзывает текущий токен пользователя
func Logout(c *gin.Context) {
	name := c.GetString("user_name")
	if name == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := userService.RevokeAuth(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
