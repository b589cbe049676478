package api

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/relay"
	"github.com/lalith-99/slackbridge/internal/state"
)

// MessageHandler serves the HTTP fallback surface used when the push
// transport is unavailable.
type MessageHandler struct {
	st         *state.State
	dispatcher *relay.Dispatcher
	logger     *zap.Logger
}

func NewMessageHandler(st *state.State, dispatcher *relay.Dispatcher, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{st: st, dispatcher: dispatcher, logger: logger}
}

// List handles GET /api/messages?user=&contact=
//
// Returns the buffered external-provenance messages relevant to the given
// viewer, re-sorted by timestamp (buffer order is not a delivery order).
func (h *MessageHandler) List(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
		return
	}
	contact := c.Query("contact")

	viewer := relay.Viewer{Username: user}
	if contact != "" {
		if id, ok := h.st.Bindings.Channel(models.UserKey{Name: user, Contact: contact}); ok {
			viewer.ChannelID = id
		}
	}

	messages := make([]models.Message, 0)
	for _, m := range h.st.Slack.Snapshot() {
		if relay.Relevant(m, viewer) {
			messages = append(messages, m)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"status":   "success",
	})
}

type postMessageRequest struct {
	Message         string `json:"message" binding:"required"`
	Sender          string `json:"sender" binding:"required"`
	Contact         string `json:"contact"`
	ClientMessageID string `json:"clientMessageId"`
}

// Create handles POST /api/messages
//
// Stores and relays the message as local provenance. The Slack leg runs
// within the request so the response can carry its outcome; a Slack
// failure still returns success with slackStatus.success=false.
func (h *MessageHandler) Create(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message and sender are required"})
		return
	}

	msg, stored, err := h.dispatcher.DispatchLocal(relay.LocalInbound{
		Text:            req.Message,
		Sender:          req.Sender,
		Contact:         req.Contact,
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		if errors.Is(err, relay.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to dispatch message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		return
	}

	status := models.SlackStatus{Success: false, Error: "duplicate message"}
	if stored {
		status = h.dispatcher.RelaySlack(c.Request.Context(), msg)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     msg,
		"slackStatus": status,
	})
}
