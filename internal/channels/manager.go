package channels

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/config"
	"github.com/snowwise/snowwise/internal/schema"
)

// Manager owns all enabled channels and routes outbound messages.
type Manager struct {
	channels     map[string]schema.Channel
	channelBus   *bus.ChannelBus
	sendProgress bool
}

// NewManager creates a Manager and initialises all enabled chat channels.
// The terminal is not managed here; it reads the ConsoleBus directly.
func NewManager(cfg *config.Config, inbound *bus.AgentBus, outbound *bus.ChannelBus) *Manager {
	m := &Manager{
		channels:     make(map[string]schema.Channel),
		channelBus:   outbound,
		sendProgress: cfg.Channels.SendProgress,
	}

	if cfg.Channels.Telegram.Enabled {
		m.Add(NewTelegramChannel(&cfg.Channels.Telegram, inbound))
	}
	if cfg.Channels.Slack.Enabled {
		m.Add(NewSlackChannel(&cfg.Channels.Slack, inbound))
	}
	if cfg.Channels.WebSocket.Enabled {
		addr := net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))
		m.Add(NewWebSocketChannel(&cfg.Channels.WebSocket, addr, inbound))
	}
	return m
}

// Add registers ch, replacing any channel with the same name.
func (m *Manager) Add(ch schema.Channel) {
	m.channels[ch.Name()] = ch
	slog.Info("channel enabled", "name", ch.Name())
}

// OnSessionEnd registers fn with every channel that knows when a
// conversation is over, so the caller can drop the session it created.
func (m *Manager) OnSessionEnd(fn func(routingKey string)) {
	for _, ch := range m.channels {
		if d, ok := ch.(interface{ OnDisconnect(func(string)) }); ok {
			d.OnDisconnect(fn)
		}
	}
}

// EnabledChannels returns the sorted names of all registered channels.
func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for n := range m.channels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// StartAll starts all channels concurrently and dispatches outbound
// messages. Blocks until ctx is cancelled and every channel has returned.
func (m *Manager) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.dispatchOutbound(ctx)
	}()

	for name, ch := range m.channels {
		wg.Add(1)
		go func(n string, c schema.Channel) {
			defer wg.Done()
			slog.Info("starting channel", "name", n)
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", n, "err", err)
			}
		}(name, ch)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// dispatchOutbound reads from the ChannelBus and routes each message to the
// channel it is addressed to.
func (m *Manager) dispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-m.channelBus.Subscribe():
			m.deliver(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) deliver(ctx context.Context, msg bus.ChannelMessage) {
	if msg.IsProgress() && !m.sendProgress {
		return
	}
	ch, ok := m.channels[string(msg.Channel())]
	if !ok {
		slog.Warn("unknown channel for outbound message", "channel", msg.Channel(), "chat", msg.ChatId())
		return
	}
	if err := ch.Send(ctx, msg); err != nil {
		slog.Error("send error", "channel", msg.Channel(), "err", err)
	}
}

// ChannelStatus is one row of `snowwise channels status`.
type ChannelStatus struct {
	Name    string
	Enabled bool
	Detail  string
}

// Statuses reports every supported chat channel and how it is configured.
func Statuses(cfg *config.Config) []ChannelStatus {
	c := cfg.Channels
	configured := func(ok bool, what string) string {
		if ok {
			return what + " configured"
		}
		return what + " missing"
	}
	return []ChannelStatus{
		{Name: string(bus.ChannelCLI), Enabled: true, Detail: "snowwise agent"},
		{
			Name:    string(bus.ChannelSlack),
			Enabled: c.Slack.Enabled,
			Detail:  configured(c.Slack.BotToken != "" && c.Slack.AppToken != "", "bot/app token"),
		},
		{
			Name:    string(bus.ChannelTelegram),
			Enabled: c.Telegram.Enabled,
			Detail:  configured(c.Telegram.Token != "", "token"),
		},
		{
			Name:    string(bus.ChannelWebSocket),
			Enabled: c.WebSocket.Enabled,
			Detail:  fmt.Sprintf("ws://%s%s", net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port)), c.WebSocket.Path),
		},
	}
}
