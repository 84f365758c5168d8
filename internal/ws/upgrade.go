package ws

import (
	"net/http" // HTTP status codes
	"time"     // Ping and write deadlines

	"home_eats/internal/utils" // Token parsing

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/gorilla/websocket" // WebSocket protocol
	"github.com/sirupsen/logrus"   // Logging library
)

const (
	pingPeriod   = 30 * time.Second // Keep-alive interval
	writeTimeout = 10 * time.Second // Deadline for a single frame
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Browsers connect from the SPA origin; the token authenticates
	},
}

// ServeNotifications authenticates ?token= and streams the user's notifications.
func ServeNotifications(secret string, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "token required"})
			return
		}
		claims, err := utils.ParseJWT(token, secret, utils.AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid token"})
			return
		}
		// Token is checked before the upgrade so a bad one gets a plain 401
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Warn("ws upgrade failed")
			return
		}
		defer conn.Close()

		client := NewClient(claims.UserID)
		hub.Register(client)
		defer client.Close()
		logrus.WithField("user_id", claims.UserID).Debug("ws client connected")

		go writePump(client, conn) // Outbound frames and pings
		readPump(conn)             // Blocks until the client goes away
	}
}

// writePump copies queued frames to the connection and keeps it alive.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok { // Hub closed the queue
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames until the connection drops.
func readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
