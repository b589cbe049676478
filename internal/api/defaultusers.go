package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/slackbridge/internal/relay"
)

// DefaultUsersHandler manages the set of Slack member IDs invited into
// every newly provisioned channel.
type DefaultUsersHandler struct {
	users *relay.DefaultUsers
}

func NewDefaultUsersHandler(users *relay.DefaultUsers) *DefaultUsersHandler {
	return &DefaultUsersHandler{users: users}
}

// Get handles GET /api/default-users
func (h *DefaultUsersHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"defaultUsers": h.users.List(),
	})
}

type setDefaultUsersRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
}

// Set handles POST /api/default-users
func (h *DefaultUsersHandler) Set(c *gin.Context) {
	var req setDefaultUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userIds array is required"})
		return
	}
	h.users.Replace(req.UserIDs)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"defaultUsers": h.users.List(),
		"message":      "Default users updated successfully",
	})
}
