package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/relay"
	"github.com/lalith-99/slackbridge/internal/slack"
	"github.com/lalith-99/slackbridge/internal/state"
)

// UserChannelHandler exposes the user-channel binding: read-only lookup
// and guarded deletion. Provisioning itself happens on first message, not
// here.
type UserChannelHandler struct {
	st     *state.State
	prov   *relay.Provisioner
	api    slack.API
	logger *zap.Logger
}

func NewUserChannelHandler(st *state.State, prov *relay.Provisioner, api slack.API, logger *zap.Logger) *UserChannelHandler {
	return &UserChannelHandler{st: st, prov: prov, api: api, logger: logger}
}

// Get handles GET /api/user-channel?username=&email=
func (h *UserChannelHandler) Get(c *gin.Context) {
	username := c.Query("username")
	email := c.Query("email")
	if username == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and email are required"})
		return
	}

	key := models.UserKey{Name: username, Contact: email}
	channelID, ok := h.st.Bindings.Channel(key)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "Channel not found for user, it will be created automatically when you send a message",
		})
		return
	}

	resp := gin.H{
		"channelId": channelID,
		"message":   "Channel found for user",
	}
	if h.api != nil {
		if name, err := h.api.ChannelInfo(c.Request.Context(), channelID); err == nil {
			resp["channelName"] = name
		} else {
			h.logger.Warn("channel info lookup failed", zap.String("channel_id", channelID), zap.Error(err))
			resp["message"] = "Channel ID exists but could not get details"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Delete handles DELETE /api/user-channel?username=&email=&confirm=true
//
// The confirm flag is a deliberate friction step; the service layer
// additionally matches the confirmation token against the display name.
func (h *UserChannelHandler) Delete(c *gin.Context) {
	username := c.Query("username")
	email := c.Query("email")
	if username == "" || email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and email are required"})
		return
	}
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Confirmation required"})
		return
	}

	key := models.UserKey{Name: username, Contact: email}
	err := h.prov.DeleteChannel(c.Request.Context(), key, username)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Channel for user %s has been archived", username),
		})
	case errors.Is(err, relay.ErrNoBinding):
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found for this user"})
	case errors.Is(err, relay.ErrConfirmMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, relay.ErrSlackDisabled):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Slack app not initialized"})
	default:
		h.logger.Error("failed to archive channel", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive channel"})
	}
}
