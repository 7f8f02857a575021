package slackbot

import (
	"context"
	"errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"sync"
	"sync/atomic"
	"testing"
)

type postedMessage struct {
	channel string
	options int
}

type stubPoster struct {
	mu     sync.Mutex
	posted []postedMessage
	err    error
}

func (s *stubPoster) PostMessageContext(_ context.Context, channel string, options ...slack.MsgOption) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", "", s.err
	}
	s.posted = append(s.posted, postedMessage{channel: channel, options: len(options)})
	return channel, "1700000000.000100", nil
}

func (s *stubPoster) messages() []postedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]postedMessage(nil), s.posted...)
}

type stubQuerier struct {
	text  string
	calls atomic.Int32
}

func (s *stubQuerier) QueryNow(context.Context) string {
	s.calls.Add(1)
	return s.text
}

type stubAcker struct {
	acked []string
}

func (s *stubAcker) Ack(req socketmode.Request, _ ...interface{}) {
	s.acked = append(s.acked, req.EnvelopeID)
}

type capturedWebhook struct {
	url string
	msg *slack.WebhookMessage
}

func newTestListener(trigger Trigger) (*Listener, *stubQuerier, *stubPoster, *[]capturedWebhook) {
	querier := &stubQuerier{text: "📦 *UPS Tracking Update:* Delivered"}
	poster := &stubPoster{}
	hooks := &[]capturedWebhook{}
	var mu sync.Mutex

	l := NewListener(zap.NewNop(), querier, poster, "/track", trigger, "UBOT")
	l.respond = func(_ context.Context, url string, msg *slack.WebhookMessage) error {
		mu.Lock()
		defer mu.Unlock()
		*hooks = append(*hooks, capturedWebhook{url, msg})
		return nil
	}
	return l, querier, poster, hooks
}

func eventsAPI(envelope string, data interface{}) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type:       slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{Data: data},
		},
		Request: &socketmode.Request{EnvelopeID: envelope},
	}
}

func TestNotifierPostsToChannel(t *testing.T) {
	poster := &stubPoster{}
	n := NewNotifier(zap.NewNop(), poster)

	require.NoError(t, n.Notify(context.Background(), "#parcels", "hello"))
	require.Equal(t, []postedMessage{{channel: "#parcels", options: 1}}, poster.messages())
}

func TestNotifierWrapsErrors(t *testing.T) {
	poster := &stubPoster{err: errors.New("channel_not_found")}
	n := NewNotifier(zap.NewNop(), poster)

	err := n.Notify(context.Background(), "#nope", "hello")
	require.ErrorIs(t, err, poster.err)
	require.Contains(t, err.Error(), "#nope")
}

func TestTrigger(t *testing.T) {
	phraseOnly := NewTrigger("Where is my parcel", false)
	require.True(t, phraseOnly("hey, where is my PARCEL?", false))
	require.False(t, phraseOnly("hello", true))

	mentionOnly := NewTrigger("", true)
	require.True(t, mentionOnly("<@UBOT> status", true))
	require.False(t, mentionOnly("status please", false))

	both := NewTrigger("ups", true)
	require.True(t, both("any ups news", false))
	require.True(t, both("hi", true))
}

func TestSlashCommandAcksThenRespondsViaResponseURL(t *testing.T) {
	l, querier, _, hooks := newTestListener(NewTrigger("", true))
	acker := &stubAcker{}

	l.handleEvent(context.Background(), acker, socketmode.Event{
		Type: socketmode.EventTypeSlashCommand,
		Data: slack.SlashCommand{
			Command:     "/track",
			UserID:      "U123",
			ResponseURL: "https://hooks.slack.test/commands/1",
		},
		Request: &socketmode.Request{EnvelopeID: "env-1"},
	})
	l.Wait()

	require.Equal(t, []string{"env-1"}, acker.acked)
	require.EqualValues(t, 1, querier.calls.Load())
	require.Len(t, *hooks, 1)
	require.Equal(t, "https://hooks.slack.test/commands/1", (*hooks)[0].url)
	require.Equal(t, querier.text, (*hooks)[0].msg.Text)
}

func TestUnknownSlashCommandIsAckedButIgnored(t *testing.T) {
	l, querier, _, hooks := newTestListener(NewTrigger("", true))
	acker := &stubAcker{}

	l.handleEvent(context.Background(), acker, socketmode.Event{
		Type:    socketmode.EventTypeSlashCommand,
		Data:    slack.SlashCommand{Command: "/weather"},
		Request: &socketmode.Request{EnvelopeID: "env-2"},
	})
	l.Wait()

	require.Equal(t, []string{"env-2"}, acker.acked)
	require.Zero(t, querier.calls.Load())
	require.Empty(t, *hooks)
}

func TestAppMentionRepliesInChannel(t *testing.T) {
	l, querier, poster, _ := newTestListener(NewTrigger("", true))
	acker := &stubAcker{}

	l.handleEvent(context.Background(), acker, eventsAPI("env-3", &slackevents.AppMentionEvent{
		Channel: "C1",
		User:    "U123",
		Text:    "<@UBOT> status?",
	}))
	l.Wait()

	require.Equal(t, []string{"env-3"}, acker.acked)
	require.EqualValues(t, 1, querier.calls.Load())
	require.Equal(t, []postedMessage{{channel: "C1", options: 1}}, poster.messages())
}

func TestThreadedMentionRepliesInThread(t *testing.T) {
	l, _, poster, _ := newTestListener(NewTrigger("", true))

	l.handleEvent(context.Background(), &stubAcker{}, eventsAPI("env-4", &slackevents.AppMentionEvent{
		Channel:         "C1",
		Text:            "<@UBOT> status?",
		ThreadTimeStamp: "1700000000.000001",
	}))
	l.Wait()

	require.Equal(t, []postedMessage{{channel: "C1", options: 2}}, poster.messages())
}

func TestMentionIgnoredWhenMentionsDisabled(t *testing.T) {
	l, querier, _, _ := newTestListener(NewTrigger("", false))

	l.handleEvent(context.Background(), &stubAcker{}, eventsAPI("env-5", &slackevents.AppMentionEvent{
		Channel: "C1",
		Text:    "<@UBOT> status?",
	}))
	l.Wait()

	require.Zero(t, querier.calls.Load())
}

func TestMessageMatchingPhraseReplies(t *testing.T) {
	l, querier, poster, _ := newTestListener(NewTrigger("ups status", false))

	l.handleEvent(context.Background(), &stubAcker{}, eventsAPI("env-6", &slackevents.MessageEvent{
		Channel: "C2",
		User:    "U123",
		Text:    "any UPS status today?",
	}))
	l.Wait()

	require.EqualValues(t, 1, querier.calls.Load())
	require.Equal(t, []postedMessage{{channel: "C2", options: 1}}, poster.messages())
}

func TestMessageFilters(t *testing.T) {
	cases := map[string]*slackevents.MessageEvent{
		"bot authored":        {Channel: "C2", BotID: "B1", Text: "ups status"},
		"own message":         {Channel: "C2", User: "UBOT", Text: "ups status"},
		"edited message":      {Channel: "C2", User: "U1", SubType: "message_changed", Text: "ups status"},
		"mention left to app": {Channel: "C2", User: "U1", Text: "<@UBOT> ups status"},
		"no phrase":           {Channel: "C2", User: "U1", Text: "lunch?"},
	}

	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			l, querier, _, _ := newTestListener(NewTrigger("ups status", true))
			l.handleEvent(context.Background(), &stubAcker{}, eventsAPI("env", ev))
			l.Wait()
			require.Zero(t, querier.calls.Load())
		})
	}
}

func TestReplyFailureIsLoggedNotFatal(t *testing.T) {
	l, querier, poster, _ := newTestListener(NewTrigger("", true))
	poster.err = errors.New("not_in_channel")

	l.handleEvent(context.Background(), &stubAcker{}, eventsAPI("env-7", &slackevents.AppMentionEvent{
		Channel: "C1",
		Text:    "<@UBOT>",
	}))
	l.Wait()

	require.EqualValues(t, 1, querier.calls.Load())
	require.Empty(t, poster.messages())
}
