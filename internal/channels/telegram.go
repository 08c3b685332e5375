package channels

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config/channel"
)

// telegramMaxText is below Telegram's 4096 character message limit.
const telegramMaxText = 4000

// TelegramChannel implements the Telegram bot via long polling.
type TelegramChannel struct {
	Base
	cfg *channel.TelegramConfig
	bot *tgbotapi.BotAPI

	typing sync.Map // chat id -> context.CancelFunc
}

// NewTelegramChannel creates a TelegramChannel.
func NewTelegramChannel(cfg *channel.TelegramConfig, inbound *bus.AgentBus) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase(bus.ChannelTelegram, inbound, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Name() string { return string(bus.ChannelTelegram) }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	client := http.DefaultClient
	if t.cfg.Proxy != "" {
		proxy, err := url.Parse(t.cfg.Proxy)
		if err != nil {
			return fmt.Errorf("telegram: parse proxy: %w", err)
		}
		client = &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(proxy)}}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(ctx, update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	senderID := strconv.FormatInt(msg.From.ID, 10)
	if msg.From.UserName != "" {
		senderID = senderID + "|" + msg.From.UserName
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	content := strings.TrimSpace(msg.Text)
	if content == "" {
		content = strings.TrimSpace(msg.Caption)
	}
	if content == "" {
		return
	}
	if msg.IsCommand() && msg.Command() == "start" {
		content = "/help"
	}

	metadata := map[string]any{
		"message_id": msg.MessageID,
		"user_id":    msg.From.ID,
		"username":   msg.From.UserName,
		"is_group":   !msg.Chat.IsPrivate(),
	}

	if !t.HandleMessage(senderID, chatID, content, metadata) {
		return
	}

	// Typing indicator until the reply is sent, capped at the longest
	// plausible turn.
	typingCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	if prev, ok := t.typing.Swap(chatID, cancel); ok {
		prev.(context.CancelFunc)()
	}
	t.sendTypingLoop(typingCtx, msg.Chat.ID)
}

func (t *TelegramChannel) stopTyping(chatID string) {
	if cancel, ok := t.typing.LoadAndDelete(chatID); ok {
		cancel.(context.CancelFunc)()
	}
}

func (t *TelegramChannel) sendTypingLoop(ctx context.Context, chatID int64) {
	for {
		if t.bot != nil {
			action := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
			_, _ = t.bot.Request(action)
		}
		select {
		case <-time.After(4 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (t *TelegramChannel) Send(_ context.Context, msg bus.ChannelMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: bot not running")
	}
	chatID, err := parseChatID(msg.ChatId())
	if err != nil {
		return err
	}
	if !msg.IsProgress() {
		t.stopTyping(msg.ChatId())
	}
	text := displayText(msg)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var replyMsgID int
	if t.cfg.ReplyToMessage && !msg.IsProgress() {
		switch v := msg.Metadata()["message_id"].(type) {
		case int:
			replyMsgID = v
		case float64:
			replyMsgID = int(v)
		}
	}

	for _, chunk := range splitMessage(text, telegramMaxText) {
		m := tgbotapi.NewMessage(chatID, markdownToTelegramHTML(chunk))
		m.ParseMode = tgbotapi.ModeHTML
		m.ReplyToMessageID = replyMsgID
		if _, err := t.bot.Send(m); err != nil {
			plain := tgbotapi.NewMessage(chatID, chunk)
			plain.ReplyToMessageID = replyMsgID
			if _, err := t.bot.Send(plain); err != nil {
				return fmt.Errorf("telegram: send: %w", err)
			}
		}
	}
	return nil
}

func parseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat_id: %s", s)
	}
	return id, nil
}

// ─── Markdown to Telegram HTML ───

var (
	reTGCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\\n?(.*?)```")
	reTGInlineCode = regexp.MustCompile("`([^`]+)`")
	reTGHeader     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	reTGBlockquote = regexp.MustCompile(`(?m)^>\s*(.*)$`)
	reTGLink       = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reTGBold       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reTGItalic     = regexp.MustCompile(`(^|[^a-zA-Z0-9])_([^_]+)_([^a-zA-Z0-9]|$)`)
	reTGStrike     = regexp.MustCompile(`~~(.+?)~~`)
	reTGBullet     = regexp.MustCompile(`(?m)^[-*]\s+`)
	reTGStash      = regexp.MustCompile(`\x00(\d+)\x00`)
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// markdownToTelegramHTML converts the Markdown subset models produce into
// Telegram's HTML parse mode. Code is stashed first so SQL inside fences
// and backticks is escaped but never reformatted.
func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}

	var stash []string
	keep := func(html string) string {
		stash = append(stash, html)
		return fmt.Sprintf("\x00%d\x00", len(stash)-1)
	}
	text = reTGCodeBlock.ReplaceAllStringFunc(text, func(m string) string {
		return keep("<pre><code>" + htmlEscaper.Replace(reTGCodeBlock.FindStringSubmatch(m)[1]) + "</code></pre>")
	})
	text = reTGInlineCode.ReplaceAllStringFunc(text, func(m string) string {
		return keep("<code>" + htmlEscaper.Replace(reTGInlineCode.FindStringSubmatch(m)[1]) + "</code>")
	})

	text = reTGBlockquote.ReplaceAllString(text, "$1")
	text = htmlEscaper.Replace(text)
	text = reTGHeader.ReplaceAllString(text, "<b>$1</b>")
	text = reTGLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reTGBold.ReplaceAllString(text, "<b>$1</b>")
	text = reTGItalic.ReplaceAllString(text, "$1<i>$2</i>$3")
	text = reTGStrike.ReplaceAllString(text, "<s>$1</s>")
	text = reTGBullet.ReplaceAllString(text, "• ")

	return reTGStash.ReplaceAllStringFunc(text, func(m string) string {
		n, _ := strconv.Atoi(reTGStash.FindStringSubmatch(m)[1])
		return stash[n]
	})
}
