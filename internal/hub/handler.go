package hub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The transport layer is multiplexed and anonymous; identity is
		// carried in message payloads, not the connection.
		return true
	},
}

// HandleWS upgrades the request and registers the session with the hub.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		sessionID: uuid.NewString(),
		logger:    h.logger,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
