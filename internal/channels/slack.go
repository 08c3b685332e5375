package channels

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config/channel"
)

// slackMaxText keeps posts well under Slack's 40k character limit.
const slackMaxText = 3900

// SlackChannel implements Slack via Socket Mode.
type SlackChannel struct {
	Base
	cfg       *channel.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string
}

func NewSlackChannel(cfg *channel.SlackConfig, inbound *bus.AgentBus) *SlackChannel {
	return &SlackChannel{
		Base: NewBase(bus.ChannelSlack, inbound, nil), // Slack uses its own allow logic
		cfg:  cfg,
	}
}

func (s *SlackChannel) Name() string { return string(bus.ChannelSlack) }

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		slog.Warn("slack: bot/app token not configured")
		<-ctx.Done()
		return ctx.Err()
	}

	s.webClient = slackgo.New(s.cfg.BotToken, slackgo.OptionAppLevelToken(s.cfg.AppToken))

	if resp, err := s.webClient.AuthTestContext(ctx); err == nil {
		s.botUserID = resp.UserID
		slog.Info("slack: connected", "bot_user_id", s.botUserID)
	} else {
		slog.Warn("slack: auth test failed", "err", err)
	}

	s.smClient = socketmode.New(s.webClient)
	go s.smClient.RunContext(ctx) //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-s.smClient.Events:
			if !ok {
				return nil
			}
			s.handleEvent(evt)
		}
	}
}

func (s *SlackChannel) handleEvent(evt socketmode.Event) {
	if evt.Type != socketmode.EventTypeEventsAPI {
		return
	}
	if evt.Request != nil {
		s.smClient.Ack(*evt.Request)
	}
	cb, ok := evt.Data.(slackevents.EventsAPIEvent)
	if !ok {
		return
	}
	if cb.InnerEvent.Type != "message" && cb.InnerEvent.Type != "app_mention" {
		return
	}
	s.handleInnerEvent(cb.InnerEvent.Type, innerEventFields(cb.InnerEvent.Data))
}

// slackEvent is the subset of a message or app_mention event we route on.
type slackEvent struct {
	user, channel, text, subtype, channelType, ts, threadTS string
}

// innerEventFields extracts the routing fields from the typed or untyped
// payload slackevents hands us.
func innerEventFields(data any) slackEvent {
	switch ev := data.(type) {
	case *slackevents.MessageEvent:
		return slackEvent{ev.User, ev.Channel, ev.Text, ev.SubType, ev.ChannelType, ev.TimeStamp, ev.ThreadTimeStamp}
	case *slackevents.AppMentionEvent:
		return slackEvent{user: ev.User, channel: ev.Channel, text: ev.Text, ts: ev.TimeStamp, threadTS: ev.ThreadTimeStamp}
	case map[string]any:
		str := func(k string) string { v, _ := ev[k].(string); return v }
		return slackEvent{str("user"), str("channel"), str("text"), str("subtype"), str("channel_type"), str("ts"), str("thread_ts")}
	}
	return slackEvent{}
}

func (s *SlackChannel) handleInnerEvent(evType string, ev slackEvent) {
	if ev.subtype != "" || ev.user == "" || ev.channel == "" {
		return
	}
	if ev.user == s.botUserID {
		return
	}
	// A mention arrives both as message and app_mention; keep the latter.
	if evType == "message" && s.botUserID != "" && strings.Contains(ev.text, "<@"+s.botUserID+">") {
		return
	}
	if !s.isAllowedSlack(ev.user, ev.channel, ev.channelType) {
		slog.Warn("access denied", "channel", s.channelName, "sender", ev.user, "chat", ev.channel)
		return
	}
	if ev.channelType != "im" && !s.shouldRespond(evType, ev.text, ev.channel) {
		return
	}

	text := s.stripMention(ev.text)
	threadTS := ev.threadTS
	if s.cfg.ReplyInThread && threadTS == "" {
		threadTS = ev.ts
	}

	if s.webClient != nil && ev.ts != "" && s.cfg.ReactEmoji != "" {
		_ = s.webClient.AddReaction(s.cfg.ReactEmoji, slackgo.ItemRef{Channel: ev.channel, Timestamp: ev.ts})
	}

	s.HandleMessage(ev.user, ev.channel, text, map[string]any{
		"slack": map[string]any{
			"thread_ts":    threadTS,
			"channel_type": ev.channelType,
		},
	})
}

func (s *SlackChannel) isAllowedSlack(user, chat, channelType string) bool {
	if channelType == "im" {
		if !s.cfg.DM.Enabled {
			return false
		}
		if s.cfg.DM.Policy == "allowlist" {
			return slices.Contains(s.cfg.DM.AllowFrom, user)
		}
		return true
	}
	if s.cfg.GroupPolicy == "allowlist" {
		return slices.Contains(s.cfg.GroupAllowFrom, chat)
	}
	return true
}

func (s *SlackChannel) shouldRespond(evType, text, chat string) bool {
	switch s.cfg.GroupPolicy {
	case "open":
		return true
	case "mention":
		if evType == "app_mention" {
			return true
		}
		return s.botUserID != "" && strings.Contains(text, "<@"+s.botUserID+">")
	case "allowlist":
		return slices.Contains(s.cfg.GroupAllowFrom, chat)
	}
	return false
}

func (s *SlackChannel) stripMention(text string) string {
	if s.botUserID == "" {
		return strings.TrimSpace(text)
	}
	re := regexp.MustCompile(`<@` + regexp.QuoteMeta(s.botUserID) + `>\s*`)
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}

// Send posts msg to the chat, in the originating thread when there is one.
// Progress lines go to the thread as italics.
func (s *SlackChannel) Send(ctx context.Context, msg bus.ChannelMessage) error {
	if s.webClient == nil {
		return nil
	}
	meta := map[string]any{}
	if m, ok := msg.Metadata()["slack"].(map[string]any); ok {
		meta = m
	}
	threadTS, _ := meta["thread_ts"].(string)
	channelType, _ := meta["channel_type"].(string)

	text := msg.Content()
	if msg.IsProgress() {
		text = "_" + progressPrefix + text + "_"
	}

	for _, chunk := range splitMessage(text, slackMaxText) {
		options := []slackgo.MsgOption{slackgo.MsgOptionText(chunk, false)}
		if threadTS != "" && channelType != "im" {
			options = append(options, slackgo.MsgOptionTS(threadTS))
		}
		if _, _, err := s.webClient.PostMessageContext(ctx, msg.ChatId(), options...); err != nil {
			return err
		}
	}
	return nil
}
