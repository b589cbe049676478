package hub

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/observ"
	"github.com/lalith-99/slackbridge/internal/relay"
	"github.com/lalith-99/slackbridge/internal/state"
)

// Hub owns the set of live WebSocket sessions. A single Run goroutine
// serializes all mutations of the client set; registration, teardown, and
// fan-out arrive over channels.
type Hub struct {
	st         *state.State
	dispatcher *relay.Dispatcher
	logger     *zap.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan frame

	connections atomic.Int64
}

type frame struct {
	event string
	msg   models.Message
}

func New(st *state.State, dispatcher *relay.Dispatcher, logger *zap.Logger) *Hub {
	return &Hub{
		st:         st,
		dispatcher: dispatcher,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan frame, 64),
	}
}

// Run is the hub engine. Start it once, before attaching the hub to the
// broadcaster.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			n := h.connections.Add(1)
			observ.Connections.Set(float64(n))
			h.logger.Info("session connected",
				zap.String("session_id", client.sessionID),
				zap.Int64("connections", n),
			)
			h.welcome(client)
			h.replayTo(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				n := h.connections.Add(-1)
				observ.Connections.Set(float64(n))
				h.logger.Info("session disconnected",
					zap.String("session_id", client.sessionID),
					zap.Int64("connections", n),
				)
			}

		case f := <-h.broadcast:
			payload, err := models.NewEnvelope(f.event, f.msg)
			if err != nil {
				h.logger.Error("marshal broadcast frame", zap.Error(err))
				continue
			}
			for client := range h.clients {
				if !client.enqueue(payload) {
					// Slow consumer: drop the session, the client's own
					// reconnect picks up the backlog from the buffers.
					delete(h.clients, client)
					client.closeSend()
					n := h.connections.Add(-1)
					observ.Connections.Set(float64(n))
				}
			}
		}
	}
}

// Emit implements relay.Sink.
func (h *Hub) Emit(event string, msg models.Message) {
	h.broadcast <- frame{event: event, msg: msg}
}

// ConnectionCount reports the number of live sessions.
func (h *Hub) ConnectionCount() int64 {
	return h.connections.Load()
}

// welcome sends the handshake payload to one session.
func (h *Hub) welcome(c *Client) {
	payload, err := models.NewEnvelope(models.EventWelcome, models.WelcomePayload{
		Message:   "Welcome to the chat relay",
		SessionID: c.sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("marshal welcome frame", zap.Error(err))
		return
	}
	c.enqueue(payload)
}

// replayTo re-sends the full contents of both ring buffers, in buffer
// order, to a single session. Returns the number of messages sent. Safe to
// call from any goroutine; buffer snapshots are taken under their own
// locks and frames go straight to the client's send queue.
func (h *Hub) replayTo(c *Client) int {
	count := 0
	for _, m := range h.st.Chat.Snapshot() {
		if h.sendMessage(c, models.EventChatMessage, m) {
			count++
		}
	}
	for _, m := range h.st.Slack.Snapshot() {
		m.IsFromSlack = true
		if h.sendMessage(c, models.EventSlackMessage, m) {
			count++
		}
	}
	return count
}

func (h *Hub) sendMessage(c *Client, event string, m models.Message) bool {
	payload, err := models.NewEnvelope(event, m)
	if err != nil {
		h.logger.Error("marshal replay frame", zap.Error(err))
		return false
	}
	return c.enqueue(payload)
}
