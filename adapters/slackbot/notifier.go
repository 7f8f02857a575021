package slackbot

import (
	"context"
	"fmt"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// MessagePoster is the part of the Slack Web API the bot needs.
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Notifier posts status changes to a Slack channel.
type Notifier struct {
	client MessagePoster
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger, client MessagePoster) *Notifier {
	return &Notifier{client: client, logger: logger}
}

func (n *Notifier) Notify(ctx context.Context, channel, text string) error {
	_, ts, err := n.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("post message to %s: %w", channel, err)
	}
	n.logger.Debug("Posted message", zap.String("channel", channel), zap.String("ts", ts))
	return nil
}
