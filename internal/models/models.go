package models

import (
	"strconv"
	"strings"
	"time"
)

// Message is the atomic unit of communication. The same shape travels over
// the WebSocket push channel, the HTTP fallback API, and the ring buffers.
// A message is never mutated after it is appended to a buffer.
type Message struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Sender      string    `json:"sender"`
	Contact     string    `json:"email,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	IsFromSlack bool      `json:"isFromSlack"`
	ChannelID   string    `json:"channelId,omitempty"`
	ChannelName string    `json:"channelName,omitempty"`
	TargetUser  string    `json:"targetUser,omitempty"`
	SlackTS     string    `json:"slackTs,omitempty"`
}

// UserKey is the composite identity used to key channel bindings.
// Display name alone is not unique; the contact address disambiguates.
type UserKey struct {
	Name    string
	Contact string
}

// String renders the canonical "name:contact" form used as a map key.
func (k UserKey) String() string {
	return k.Name + ":" + k.Contact
}

// ParseUserKey is the inverse of UserKey.String.
func ParseUserKey(s string) UserKey {
	name, contact, _ := strings.Cut(s, ":")
	return UserKey{Name: name, Contact: contact}
}

// ExternalMessageEvent is the narrow shape the relay consumes from the
// Slack SDK. Adapting the SDK's richer event object to this struct at the
// boundary keeps the core insulated from SDK churn.
type ExternalMessageEvent struct {
	TS      string
	Text    string
	User    string
	Channel string
	BotID   string
	Subtype string
}

// SlackStatus reports the outcome of the best-effort Slack side effect for
// a locally-ingested message. Success=false means "delivered locally only".
type SlackStatus struct {
	Success bool   `json:"success"`
	Channel string `json:"channel,omitempty"`
	TS      string `json:"ts,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SlackTSToTime converts a Slack event timestamp ("1712345678.000200")
// into a time.Time. Falls back to now for unparseable input so that
// sort-on-read keeps working.
func SlackTSToTime(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	var ns int64
	if frac != "" {
		if f, err := strconv.ParseInt(frac, 10, 64); err == nil {
			// Slack fractions are microseconds.
			ns = f * int64(time.Microsecond)
		}
	}
	return time.Unix(s, ns).UTC()
}
