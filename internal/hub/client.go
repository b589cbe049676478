package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/relay"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 256
)

// Client is one WebSocket session. Reads and writes run on their own
// goroutines; the send queue decouples the hub from slow sockets.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// enqueue places a frame on the session's send queue. Returns false when
// the session is gone or the queue is full.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend marks the session dead and closes the queue exactly once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump consumes inbound frames until the connection drops, then
// unregisters the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("session read error", zap.String("session_id", c.sessionID), zap.Error(err))
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("malformed frame", zap.String("session_id", c.sessionID), zap.Error(err))
			continue
		}
		c.handle(env)
	}
}

func (c *Client) handle(env models.Envelope) {
	switch env.Event {
	case models.EventChatMessage:
		var in struct {
			ID     string `json:"id"`
			Text   string `json:"text"`
			Sender string `json:"sender"`
			Email  string `json:"email"`
		}
		if err := json.Unmarshal(env.Data, &in); err != nil {
			c.logger.Warn("malformed chat_message payload", zap.Error(err))
			return
		}
		msg, stored, err := c.hub.dispatcher.DispatchLocal(relay.LocalInbound{
			Text:            in.Text,
			Sender:          in.Sender,
			Contact:         in.Email,
			ClientMessageID: in.ID,
		})
		if err != nil {
			c.logger.Warn("rejected chat_message", zap.String("session_id", c.sessionID), zap.Error(err))
			return
		}
		if stored {
			// The Slack leg must never block the read loop.
			go c.hub.dispatcher.RelaySlack(context.Background(), msg)
		}

	case models.EventSubscribe:
		var sub models.SubscribePayload
		if err := json.Unmarshal(env.Data, &sub); err != nil {
			return
		}
		// Sessions receive every event class already; resubscription is
		// accepted as an idempotent no-op.
		c.logger.Debug("session resubscribed",
			zap.String("session_id", c.sessionID),
			zap.Strings("events", sub.Events),
		)

	case models.EventGetMissed:
		// Replay regardless of payload shape; the request id is only
		// echoed back, and an empty json.Number would not marshal.
		var req models.MissedRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || req.RequestID == "" {
			req.RequestID = "0"
		}
		count := c.hub.replayTo(c)
		if done, err := models.NewEnvelope(models.EventMissedComplete, models.MissedComplete{
			RequestID: req.RequestID,
			Count:     count,
		}); err == nil {
			c.enqueue(done)
		}

	default:
		c.logger.Debug("ignoring unknown event",
			zap.String("session_id", c.sessionID),
			zap.String("event", env.Event),
		)
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
