package relay

import (
	"strings"

	"github.com/lalith-99/slackbridge/internal/models"
)

// Viewer identifies one connected reader: their display name and, when a
// binding exists, the Slack channel dedicated to them.
type Viewer struct {
	Username  string
	ChannelID string
}

// Relevant decides whether a viewer should see a broadcast message.
// Local-provenance messages are visible to everyone (the chat surface is
// shared). External messages belong to a viewer when the relay tagged them
// with the viewer's name, when they came out of the viewer's own channel,
// or when the viewer sent the original.
func Relevant(m models.Message, v Viewer) bool {
	if !m.IsFromSlack {
		return true
	}
	if m.TargetUser != "" {
		return m.TargetUser == v.Username
	}
	if m.ChannelID != "" && v.ChannelID != "" {
		return m.ChannelID == v.ChannelID
	}
	return v.Username != "" && strings.EqualFold(m.Sender, v.Username)
}
