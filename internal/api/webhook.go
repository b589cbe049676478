package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/slack"
)

// Events API payloads are small; bound the read on the unauthenticated
// path so an oversized body is rejected before signature verification.
const maxEventBody = 1 << 20

// WebhookHandler serves the legacy signed Slack events webhook. Socket
// Mode supersedes it, but the endpoint stays for deployments that cannot
// hold an outbound connection open.
type WebhookHandler struct {
	signingSecret string
	dispatcher    slack.Dispatcher
	logger        *zap.Logger

	// now is swappable in tests to pin the skew window.
	now func() time.Time
}

func NewWebhookHandler(signingSecret string, dispatcher slack.Dispatcher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		signingSecret: signingSecret,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
	}
}

// Handle processes POST /api/slack/events.
//
// The raw body is verified before any parsing; unverified bytes never
// reach the dispatcher.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxEventBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	timestamp := c.GetHeader("X-Slack-Request-Timestamp")
	signature := c.GetHeader("X-Slack-Signature")
	if err := slack.VerifySignature(h.signingSecret, timestamp, signature, body, h.now()); err != nil {
		h.logger.Warn("rejected slack webhook",
			zap.String("remote", c.ClientIP()),
			zap.Error(err),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable event"})
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable challenge"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenge": challenge.Challenge})

	case slackevents.CallbackEvent:
		switch ev := event.InnerEvent.Data.(type) {
		case *slackevents.MessageEvent:
			go h.dispatcher.DispatchExternal(slack.AdaptMessageEvent(ev))
		case *slackevents.ChannelArchiveEvent:
			h.dispatcher.InvalidateChannel(ev.Channel)
		case *slackevents.ChannelDeletedEvent:
			h.dispatcher.InvalidateChannel(ev.Channel)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})

	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
