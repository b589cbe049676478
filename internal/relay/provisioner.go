package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lalith-99/slackbridge/internal/models"
	"github.com/lalith-99/slackbridge/internal/observ"
	"github.com/lalith-99/slackbridge/internal/slack"
	"github.com/lalith-99/slackbridge/internal/state"
)

// Slack caps channel names at 80 characters.
const maxChannelNameLen = 80

var (
	ErrSlackDisabled   = errors.New("slack is not configured")
	ErrNoBinding       = errors.New("no channel bound for this user")
	ErrConfirmMismatch = errors.New("confirmation token does not match username")
)

// Resolution is the outcome of a routing-target lookup.
type Resolution struct {
	ChannelID   string
	ChannelName string
	Created     bool
	Fallback    bool
}

// Provisioner guarantees a 1:1 mapping from a user key to an isolated
// Slack channel, created lazily on first message. Creation is serialized
// per key, so concurrent first messages produce exactly one external
// create call; every other caller awaits its result. A creation failure
// routes the triggering message to the shared fallback channel without
// recording a binding, so the next message retries provisioning.
type Provisioner struct {
	api      slack.API
	reg      *state.Registry
	fallback string
	invitees *DefaultUsers
	logger   *zap.Logger

	mu       sync.Mutex
	inflight map[string]*provisionCall
}

type provisionCall struct {
	done      chan struct{}
	channelID string
	name      string
	err       error
}

func NewProvisioner(api slack.API, reg *state.Registry, fallbackChannel string, invitees *DefaultUsers, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		api:      api,
		reg:      reg,
		fallback: fallbackChannel,
		invitees: invitees,
		logger:   logger,
		inflight: make(map[string]*provisionCall),
	}
}

// Fallback returns the shared fallback channel ID.
func (p *Provisioner) Fallback() string {
	return p.fallback
}

// ChannelName synthesizes the deterministic routing-target name for a user
// key, sanitized to Slack's constraints: lowercase, bounded length,
// non-conforming characters stripped.
func ChannelName(key models.UserKey) string {
	name := "user-" + sanitizeNamePart(key.Name) + "-email-" + sanitizeNamePart(key.Contact)
	if len(name) > maxChannelNameLen {
		name = name[:maxChannelNameLen]
	}
	return strings.Trim(name, "-")
}

func sanitizeNamePart(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ResolveChannel returns the routing target for key, provisioning one on
// a cache miss. The returned Resolution carries Fallback=true when the
// caller should treat the channel as a one-message stand-in.
func (p *Provisioner) ResolveChannel(ctx context.Context, key models.UserKey) Resolution {
	if id, ok := p.reg.Channel(key); ok {
		return Resolution{ChannelID: id}
	}
	if p.api == nil {
		observ.FallbackRoutes.Inc()
		return Resolution{ChannelID: p.fallback, Fallback: true}
	}

	call, leader := p.join(key.String())
	if !leader {
		<-call.done
		if call.err != nil {
			observ.FallbackRoutes.Inc()
			return Resolution{ChannelID: p.fallback, Fallback: true}
		}
		return Resolution{ChannelID: call.channelID, ChannelName: call.name}
	}

	p.create(ctx, key, call)
	if call.err != nil {
		observ.FallbackRoutes.Inc()
		return Resolution{ChannelID: p.fallback, Fallback: true}
	}
	return Resolution{ChannelID: call.channelID, ChannelName: call.name, Created: true}
}

// join returns the in-flight call for key, creating one if absent. The
// second return is true for the caller that must perform the creation.
func (p *Provisioner) join(key string) (*provisionCall, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if call, ok := p.inflight[key]; ok {
		return call, false
	}
	call := &provisionCall{done: make(chan struct{})}
	p.inflight[key] = call
	return call, true
}

func (p *Provisioner) create(ctx context.Context, key models.UserKey, call *provisionCall) {
	defer func() {
		p.mu.Lock()
		delete(p.inflight, key.String())
		p.mu.Unlock()
		close(call.done)
	}()

	name := ChannelName(key)
	id, chName, err := p.api.CreateChannel(ctx, name)
	if err != nil {
		call.err = err
		observ.SlackRPCFailures.WithLabelValues("create_channel").Inc()
		p.logger.Error("channel provisioning failed, routing to fallback for this message",
			zap.String("user_key", key.String()),
			zap.String("channel_name", name),
			zap.Error(err),
		)
		return
	}

	p.reg.Bind(key, id)
	call.channelID = id
	call.name = chName
	observ.ChannelsProvisioned.Inc()
	p.logger.Info("provisioned channel",
		zap.String("user_key", key.String()),
		zap.String("channel_id", id),
		zap.String("channel_name", chName),
	)

	announcement := fmt.Sprintf("New chat channel for %s (%s). Messages posted here are relayed to their chat window.", key.Name, key.Contact)
	if _, err := p.api.PostMessage(ctx, id, announcement); err != nil {
		observ.SlackRPCFailures.WithLabelValues("post_message").Inc()
		p.logger.Warn("announcement post failed", zap.String("channel_id", id), zap.Error(err))
	}
	if users := p.invitees.List(); len(users) > 0 {
		if err := p.api.InviteUsers(ctx, id, users); err != nil {
			observ.SlackRPCFailures.WithLabelValues("invite_users").Inc()
			p.logger.Warn("default participant invite failed", zap.String("channel_id", id), zap.Error(err))
		}
	}
}

// DeleteChannel archives the channel bound to key and invalidates the
// binding. The confirmation token must equal the display-name component;
// this is deliberate friction, not a security control.
func (p *Provisioner) DeleteChannel(ctx context.Context, key models.UserKey, confirmToken string) error {
	if confirmToken != key.Name {
		return ErrConfirmMismatch
	}
	channelID, ok := p.reg.Channel(key)
	if !ok {
		return ErrNoBinding
	}
	if p.api == nil {
		return ErrSlackDisabled
	}
	if err := p.api.ArchiveChannel(ctx, channelID); err != nil {
		observ.SlackRPCFailures.WithLabelValues("archive_channel").Inc()
		return fmt.Errorf("archive channel: %w", err)
	}
	p.reg.Invalidate(channelID)
	p.logger.Info("archived channel",
		zap.String("user_key", key.String()),
		zap.String("channel_id", channelID),
	)
	return nil
}
