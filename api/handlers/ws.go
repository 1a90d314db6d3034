package handlers

import (
	"log"
	"net/http"

	"retwis/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSFeedHandler - WebSocket endpoint для push-событий ленты
func WSFeedHandler(c *gin.Context) {
	uid := c.GetString("user_id")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	services.GlobalWSConnManager.Add(uid, conn)
	defer services.GlobalWSConnManager.Remove(uid, conn)

	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"connected","message":"WebSocket connected"}`))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Println("WebSocket read error:", err)
			break
		}
	}
}
