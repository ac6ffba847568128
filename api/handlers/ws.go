package handlers

import (
	"log"
	"net/http"

	"blog/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (h *Handlers) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(h.AllowedOrigins, origin)
		},
	}
}

// WSNotifications - WebSocket endpoint для уведомлений о доступе и комментариях
func (h *Handlers) WSNotifications(c *gin.Context) {
	username, ok := currentUsername(c)
	if !ok {
		return
	}
	conns := h.Notifier.Connections()
	if conns == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Notifications are not available"})
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	client := conns.Register(username, conn)
	defer conns.Unregister(username, client)

	if err := client.Write([]byte(`{"event":"connected","message":"WebSocket connected"}`)); err != nil {
		log.Println("WebSocket write error:", err)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Println("WebSocket read error:", err)
			break
		}
	}
}
