package models

import "encoding/json"

// Push-transport event names. Bidirectional where noted.
const (
	EventWelcome        = "welcome"             // server -> client
	EventChatMessage    = "chat_message"        // both directions
	EventSlackMessage   = "slack_message"       // server -> client
	EventSubscribe      = "subscribe_events"    // client -> server
	EventGetMissed      = "get_missed_messages" // client -> server
	EventMissedComplete = "missed_messages_complete"
)

// Envelope frames every WebSocket payload as a named event, mirroring the
// event channel the browser client subscribes to.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope marshals data into a ready-to-send frame.
func NewEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// WelcomePayload is sent once per session immediately after the handshake.
type WelcomePayload struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

// SubscribePayload is a client's (idempotent) event subscription request.
type SubscribePayload struct {
	Events []string `json:"events"`
}

// MissedRequest asks the server to re-send the ring buffer contents.
type MissedRequest struct {
	RequestID json.Number `json:"requestId"`
}

// MissedComplete closes out a replay triggered by MissedRequest.
type MissedComplete struct {
	RequestID json.Number `json:"requestId"`
	Count     int         `json:"count"`
}
