package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/observ"
	"github.com/lalith-99/slackbridge/internal/slack"
	"github.com/lalith-99/slackbridge/internal/state"
)

// ErrMissingFields rejects local ingress without the required text/sender.
var ErrMissingFields = errors.New("message and sender are required")

// LocalInbound is the normalized local-ingress payload, shared by the
// WebSocket path and the HTTP fallback POST.
type LocalInbound struct {
	Text            string
	Sender          string
	Contact         string
	ClientMessageID string
}

// Dispatcher is the single entry point normalizing the three ingress
// paths into one Message shape: it tags provenance, stores the message in
// the matching ring buffer, and triggers fan-out. The Slack side effect of
// a local message is separate (RelaySlack) so the push path never has to
// wait on an external RPC.
type Dispatcher struct {
	st     *state.State
	bc     *Broadcaster
	prov   *Provisioner
	api    slack.API
	logger *zap.Logger
}

func NewDispatcher(st *state.State, bc *Broadcaster, prov *Provisioner, api slack.API, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{st: st, bc: bc, prov: prov, api: api, logger: logger}
}

// DispatchLocal validates and stores a local-provenance message, then
// broadcasts it. The stored return is false when the message ID was
// already buffered; duplicates are neither re-broadcast nor re-relayed.
func (d *Dispatcher) DispatchLocal(in LocalInbound) (models.Message, bool, error) {
	if strings.TrimSpace(in.Text) == "" || strings.TrimSpace(in.Sender) == "" {
		return models.Message{}, false, ErrMissingFields
	}

	id := in.ClientMessageID
	if id == "" {
		id = uuid.NewString()
	}
	msg := models.Message{
		ID:          id,
		Text:        in.Text,
		Sender:      in.Sender,
		Contact:     in.Contact,
		Timestamp:   time.Now().UTC(),
		IsFromSlack: false,
	}

	if !d.st.Chat.Add(msg) {
		d.logger.Debug("duplicate local message ignored", zap.String("message_id", id))
		return msg, false, nil
	}
	observ.MessagesRelayed.WithLabelValues("local").Inc()
	d.bc.Broadcast(models.EventChatMessage, msg)
	return msg, true, nil
}

// RelaySlack performs the best-effort Slack side effect for a stored local
// message: resolve the routing target (provisioning on first contact) and
// post into it. Failures degrade to a "delivered locally only" status and
// never affect the local flow. A message without a contact address routes
// soft to the shared fallback channel.
func (d *Dispatcher) RelaySlack(ctx context.Context, msg models.Message) models.SlackStatus {
	if d.api == nil {
		return models.SlackStatus{Success: false, Error: "slack is not configured"}
	}

	var res Resolution
	if msg.Contact == "" {
		observ.FallbackRoutes.Inc()
		res = Resolution{ChannelID: d.prov.Fallback(), Fallback: true}
	} else {
		res = d.prov.ResolveChannel(ctx, models.UserKey{Name: msg.Sender, Contact: msg.Contact})
	}
	if res.ChannelID == "" {
		return models.SlackStatus{Success: false, Error: "no routing target available"}
	}

	ts, err := d.api.PostMessage(ctx, res.ChannelID, fmt.Sprintf("%s: %s", msg.Sender, msg.Text))
	if err != nil {
		observ.SlackRPCFailures.WithLabelValues("post_message").Inc()
		d.logger.Warn("slack post failed, message delivered locally only",
			zap.String("message_id", msg.ID),
			zap.String("channel_id", res.ChannelID),
			zap.Error(err),
		)
		return models.SlackStatus{Success: false, Error: err.Error()}
	}
	return models.SlackStatus{Success: true, Channel: res.ChannelID, TS: ts}
}

// DispatchExternal accepts an adapted Slack event. Bot-origin and
// system-subtype events are dropped before storage so relayed posts never
// echo back into the buffers. The owning user is resolved by reverse
// channel lookup; when no binding exists the message is still stored and
// broadcast, just untargeted.
func (d *Dispatcher) DispatchExternal(ev models.ExternalMessageEvent) {
	if ev.BotID != "" || ev.Subtype != "" {
		observ.EchoSuppressed.Inc()
		d.logger.Debug("suppressed non-user slack event",
			zap.String("bot_id", ev.BotID),
			zap.String("subtype", ev.Subtype),
		)
		return
	}
	if strings.TrimSpace(ev.Text) == "" {
		return
	}

	msg := models.Message{
		ID:          ev.TS,
		Text:        ev.Text,
		Sender:      d.senderName(ev.User),
		Timestamp:   models.SlackTSToTime(ev.TS),
		IsFromSlack: true,
		ChannelID:   ev.Channel,
		SlackTS:     ev.TS,
	}
	if key, ok := d.st.Bindings.UserKeyFor(ev.Channel); ok {
		msg.TargetUser = key.Name
	}

	if !d.st.Slack.Add(msg) {
		return
	}
	observ.MessagesRelayed.WithLabelValues("external").Inc()
	d.bc.Broadcast(models.EventSlackMessage, msg)
}

// InvalidateChannel drops the binding that owned channelID after the
// channel was archived or deleted on the Slack side. The next message
// from that user provisions a fresh channel instead of posting into a
// dead one.
func (d *Dispatcher) InvalidateChannel(channelID string) {
	if d.st.Bindings.Invalidate(channelID) {
		d.logger.Info("binding invalidated after external channel removal",
			zap.String("channel_id", channelID),
		)
	}
}

// senderName resolves a Slack user ID to a display name, caching results.
// Lookup failure falls back to the raw ID; the message still flows.
func (d *Dispatcher) senderName(userID string) string {
	if userID == "" {
		return "slack"
	}
	if name, ok := d.st.Bindings.SlackUser(userID); ok {
		return name
	}
	if d.api != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if name, err := d.api.UserName(ctx, userID); err == nil && name != "" {
			d.st.Bindings.SetSlackUser(userID, name)
			return name
		}
	}
	return userID
}
