package slackbot

import (
	"context"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
	"strings"
	"sync"
)

// StatusQuerier answers "what is the status right now".
type StatusQuerier interface {
	QueryNow(ctx context.Context) string
}

type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

type webhookResponder func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// Listener answers the slash command and trigger messages received over Socket Mode.
type Listener struct {
	logger    *zap.Logger
	querier   StatusQuerier
	poster    MessagePoster
	command   string
	trigger   Trigger
	botUserID string
	respond   webhookResponder

	inflight sync.WaitGroup
}

func NewListener(logger *zap.Logger, querier StatusQuerier, poster MessagePoster, command string, trigger Trigger, botUserID string) *Listener {
	return &Listener{
		logger:    logger,
		querier:   querier,
		poster:    poster,
		command:   command,
		trigger:   trigger,
		botUserID: botUserID,
		respond:   slack.PostWebhookContext,
	}
}

// Run consumes Socket Mode events until ctx is done, then waits for pending replies.
func (l *Listener) Run(ctx context.Context, client *socketmode.Client) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		for {
			select {
			case <-runCtx.Done():
				return
			case evt, ok := <-client.Events:
				if !ok {
					return
				}
				l.handleEvent(runCtx, client, evt)
			}
		}
	}()

	err := client.RunContext(runCtx)
	cancel()
	<-loopDone
	l.inflight.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (l *Listener) handleEvent(ctx context.Context, client acker, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		l.logger.Info("Connecting to Slack with Socket Mode")
	case socketmode.EventTypeConnected:
		l.logger.Info("Connected to Slack with Socket Mode")
	case socketmode.EventTypeConnectionError:
		l.logger.Warn("Slack connection failed, retrying")
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		ack(client, evt)
		if cmd.Command != l.command {
			l.logger.Debug("Ignoring unknown command", zap.String("command", cmd.Command))
			return
		}
		l.async(ctx, func(ctx context.Context) { l.answerCommand(ctx, cmd) })
	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		ack(client, evt)
		if event.Type != slackevents.CallbackEvent {
			return
		}
		l.handleCallback(ctx, event.InnerEvent)
	}
}

func (l *Listener) handleCallback(ctx context.Context, inner slackevents.EventsAPIInnerEvent) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		if !l.trigger(ev.Text, true) {
			return
		}
		l.async(ctx, func(ctx context.Context) { l.reply(ctx, ev.Channel, ev.ThreadTimeStamp) })
	case *slackevents.MessageEvent:
		if ev.BotID != "" || ev.SubType != "" || (l.botUserID != "" && ev.User == l.botUserID) {
			return
		}
		// Mentions arrive separately as app_mention events
		if l.mentionsBot(ev.Text) {
			return
		}
		if !l.trigger(ev.Text, false) {
			return
		}
		l.async(ctx, func(ctx context.Context) { l.reply(ctx, ev.Channel, ev.ThreadTimeStamp) })
	}
}

func (l *Listener) answerCommand(ctx context.Context, cmd slack.SlashCommand) {
	text := l.querier.QueryNow(ctx)
	err := l.respond(ctx, cmd.ResponseURL, &slack.WebhookMessage{
		Text:         text,
		ResponseType: "ephemeral",
	})
	if err != nil {
		l.logger.Error("Failed to respond to command",
			zap.String("command", cmd.Command),
			zap.String("user_id", cmd.UserID),
			zap.Error(err),
		)
	}
}

func (l *Listener) reply(ctx context.Context, channel, threadTS string) {
	opts := []slack.MsgOption{slack.MsgOptionText(l.querier.QueryNow(ctx), false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := l.poster.PostMessageContext(ctx, channel, opts...); err != nil {
		l.logger.Error("Failed to reply to message", zap.String("channel", channel), zap.Error(err))
	}
}

func (l *Listener) mentionsBot(text string) bool {
	return l.botUserID != "" && strings.Contains(text, "<@"+l.botUserID+">")
}

func (l *Listener) async(ctx context.Context, fn func(ctx context.Context)) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		fn(ctx)
	}()
}

// Wait blocks until every pending reply has been sent.
func (l *Listener) Wait() {
	l.inflight.Wait()
}

func ack(client acker, evt socketmode.Event) {
	if evt.Request != nil {
		client.Ack(*evt.Request)
	}
}
