package slack

import (
	"context"
	"fmt"
	"time"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"
)

// API is the narrow surface of the Slack Web API the relay consumes. The
// rest of the codebase depends on this interface, never on the SDK client,
// so tests can substitute a fake.
type API interface {
	CreateChannel(ctx context.Context, name string) (id, channelName string, err error)
	ArchiveChannel(ctx context.Context, channelID string) error
	InviteUsers(ctx context.Context, channelID string, userIDs []string) error
	PostMessage(ctx context.Context, channelID, text string) (ts string, err error)
	ChannelInfo(ctx context.Context, channelID string) (name string, err error)
	UserName(ctx context.Context, userID string) (string, error)
}

// Client wraps the slack-go SDK with per-call timeouts.
type Client struct {
	api     *slackapi.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewClient(botToken, appToken string, timeout time.Duration, logger *zap.Logger) *Client {
	opts := []slackapi.Option{}
	if appToken != "" {
		opts = append(opts, slackapi.OptionAppLevelToken(appToken))
	}
	return &Client{
		api:     slackapi.New(botToken, opts...),
		timeout: timeout,
		logger:  logger,
	}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) CreateChannel(ctx context.Context, name string) (string, string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	ch, err := c.api.CreateConversationContext(ctx, slackapi.CreateConversationParams{
		ChannelName: name,
	})
	if err != nil {
		return "", "", fmt.Errorf("create conversation %q: %w", name, err)
	}
	return ch.ID, ch.Name, nil
}

func (c *Client) ArchiveChannel(ctx context.Context, channelID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.api.ArchiveConversationContext(ctx, channelID); err != nil {
		return fmt.Errorf("archive conversation %s: %w", channelID, err)
	}
	return nil
}

func (c *Client) InviteUsers(ctx context.Context, channelID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.api.InviteUsersToConversationContext(ctx, channelID, userIDs...); err != nil {
		return fmt.Errorf("invite users to %s: %w", channelID, err)
	}
	return nil
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, ts, err := c.api.PostMessageContext(ctx, channelID, slackapi.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("post message to %s: %w", channelID, err)
	}
	return ts, nil
}

func (c *Client) ChannelInfo(ctx context.Context, channelID string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	ch, err := c.api.GetConversationInfoContext(ctx, &slackapi.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return "", fmt.Errorf("conversation info %s: %w", channelID, err)
	}
	return ch.Name, nil
}

func (c *Client) UserName(ctx context.Context, userID string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	u, err := c.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("user info %s: %w", userID, err)
	}
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName, nil
	}
	if u.RealName != "" {
		return u.RealName, nil
	}
	return u.Name, nil
}
