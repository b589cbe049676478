package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/slackbridge/internal/state"
)

// ConnectionCounter reports live push-transport sessions; satisfied by the
// hub.
type ConnectionCounter interface {
	ConnectionCount() int64
}

// StatusHandler reports operational state: connection count, ingestion
// mode, and buffer occupancy.
type StatusHandler struct {
	st         *state.State
	conns      ConnectionCounter
	socketMode bool
}

func NewStatusHandler(st *state.State, conns ConnectionCounter, socketMode bool) *StatusHandler {
	return &StatusHandler{st: st, conns: conns, socketMode: socketMode}
}

// Get handles GET /api/status
func (h *StatusHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connections": h.conns.ConnectionCount(),
		"socketMode":  h.socketMode,
		"buffered": gin.H{
			"chat":  h.st.Chat.Len(),
			"slack": h.st.Slack.Len(),
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
