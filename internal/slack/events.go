package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
)

// Dispatcher is the piece of the relay that accepts adapted external
// events. Kept as a narrow interface so the runner is testable.
type Dispatcher interface {
	DispatchExternal(ev models.ExternalMessageEvent)
	InvalidateChannel(channelID string)
}

// AdaptMessageEvent reduces the SDK's message event to the narrow shape
// the relay core consumes.
func AdaptMessageEvent(ev *slackevents.MessageEvent) models.ExternalMessageEvent {
	return models.ExternalMessageEvent{
		TS:      ev.TimeStamp,
		Text:    ev.Text,
		User:    ev.User,
		Channel: ev.Channel,
		BotID:   ev.BotID,
		Subtype: ev.SubType,
	}
}

// SocketModeRunner consumes Events API traffic over Slack's Socket Mode,
// the persistent event subscription that replaced the signed webhook.
// Each message event is adapted and handed to the dispatcher on its own
// goroutine so a slow relay step never stalls the event stream.
type SocketModeRunner struct {
	client   *socketmode.Client
	dispatch Dispatcher
	logger   *zap.Logger
}

func NewSocketModeRunner(c *Client, d Dispatcher, logger *zap.Logger) *SocketModeRunner {
	return &SocketModeRunner{
		client:   socketmode.New(c.api),
		dispatch: d,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled or the socket mode client fails.
func (r *SocketModeRunner) Run(ctx context.Context) error {
	go r.consume(ctx)
	if err := r.client.RunContext(ctx); err != nil {
		return fmt.Errorf("socket mode: %w", err)
	}
	return nil
}

func (r *SocketModeRunner) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-r.client.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				r.logger.Info("connecting to slack in socket mode")
			case socketmode.EventTypeConnected:
				r.logger.Info("connected to slack in socket mode")
			case socketmode.EventTypeConnectionError:
				r.logger.Warn("slack socket mode connection error")
			case socketmode.EventTypeEventsAPI:
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if evt.Request != nil {
					r.client.Ack(*evt.Request)
				}
				r.handleEventsAPI(apiEvent)
			}
		}
	}
}

func (r *SocketModeRunner) handleEventsAPI(apiEvent slackevents.EventsAPIEvent) {
	if apiEvent.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		go r.dispatch.DispatchExternal(AdaptMessageEvent(ev))
	case *slackevents.ChannelArchiveEvent:
		r.logger.Info("channel archived externally", zap.String("channel_id", ev.Channel))
		r.dispatch.InvalidateChannel(ev.Channel)
	case *slackevents.ChannelDeletedEvent:
		r.logger.Info("channel deleted externally", zap.String("channel_id", ev.Channel))
		r.dispatch.InvalidateChannel(ev.Channel)
	}
}
