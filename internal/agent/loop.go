package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/snowwise/snowwise/internal/bus"
	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/session"
	"github.com/snowwise/snowwise/internal/shared/llmutils"
	"github.com/snowwise/snowwise/internal/tools"
	"github.com/snowwise/snowwise/internal/warehouse"
)

const (
	replyConnectionLost = "The warehouse connection was lost or the credentials were rejected. Please enter your credentials again."
	replyMaxSteps       = "I could not reach an answer within %d reasoning steps. Please rephrase or narrow the request."
	replyError          = "Sorry, I encountered an error: %v"
	replyHelp           = "snowwise commands:\n/new  Start a new conversation\n/help Show available commands"
	replyNew            = "New session started."
)

// Invalidator drops a cached warehouse connection. Implemented by
// warehouse.Cache.
type Invalidator interface {
	Invalidate()
}

// AgentLoop reads user messages from the AgentBus, runs one turn per
// message and publishes replies and progress lines. Messages are handled
// in their own goroutines; turns of the same session are serialized.
type AgentLoop struct {
	agentBus   *bus.AgentBus
	channelBus *bus.ChannelBus
	consoleBus *bus.ConsoleBus
	settings   schema.AgentSettings

	sessions *session.Manager
	runner   LoopRunner
	conn     Invalidator
}

func NewAgentLoop(
	agentBus *bus.AgentBus,
	channelBus *bus.ChannelBus,
	consoleBus *bus.ConsoleBus,
	settings schema.AgentSettings,
	sessions *session.Manager,
	runner LoopRunner,
	conn Invalidator,
) *AgentLoop {
	return &AgentLoop{
		agentBus:   agentBus,
		channelBus: channelBus,
		consoleBus: consoleBus,
		settings:   settings,
		sessions:   sessions,
		runner:     runner,
		conn:       conn,
	}
}

// Run reads from the agent bus and processes each message in a goroutine.
// Blocks until ctx is cancelled.
func (loop *AgentLoop) Run(ctx context.Context) error {
	slog.Info("Agent loop started")

	for {
		select {
		case msg := <-loop.agentBus.Subscribe():
			go loop.handleMessage(ctx, msg)
		case <-ctx.Done():
			slog.Info("Agent loop stopping")
			return ctx.Err()
		}
	}
}

// ProcessDirect runs one turn outside the bus (single-message CLI mode,
// scheduled analyses) and returns the reply. The reply is also set when
// err is non-nil and explains the failure to the user.
func (loop *AgentLoop) ProcessDirect(ctx context.Context, content, key, channel, chatID string) (string, error) {
	msg := bus.NewAgentBusMessage(bus.Channel(channel), bus.SenderIdCLI, chatID, content, key)
	return loop.processMessage(ctx, msg, nil)
}

func (loop *AgentLoop) handleMessage(ctx context.Context, msg bus.AgentBusMessage) {
	reply, err := loop.processMessage(ctx, msg, loop.makeProgressCallback(msg))

	b := bus.NewChannelMessageBuilder(msg.Channel(), msg.ChatId(), reply).Metadata(msg.Metadata())
	if warehouse.IsConnectionError(err) {
		b.Metadata(map[string]any{bus.MetaConnectionLost: true})
	}
	loop.publish(b.Build())
}

func (loop *AgentLoop) publish(out bus.ChannelMessage) {
	if out.Channel() == bus.ChannelCLI {
		loop.consoleBus.Publish(out)
		return
	}
	loop.channelBus.Publish(out)
}

// processMessage runs slash commands or one agent turn for msg.
func (loop *AgentLoop) processMessage(ctx context.Context, msg bus.AgentBusMessage, onProgress func(string)) (string, error) {
	slog.Info(
		"Processing message",
		"sender", msg.SenderId(),
		"channel", msg.Channel(),
		"content", msg.Preview(),
	)

	key := msg.RoutingKey()
	ses := loop.sessions.GetOrCreate(key)
	end := ses.BeginTurn()
	defer end()

	if reply, ok := loop.handleSlashCommand(msg, ses); ok {
		return reply, nil
	}

	ctx = tools.WithTurn(ctx, tools.TurnContext{
		Channel:    msg.Channel(),
		ChatID:     msg.ChatId(),
		SessionKey: key,
	})

	final, err := loop.runner.run(ctx, ses.History(loop.settings.MemoryWindow), msg.Content(), onProgress)
	if err != nil {
		return loop.failureReply(key, err), err
	}
	final = llmutils.StringOrDefault(final, "I've completed processing but have no response to give.")

	slog.Info("Response", "channel", msg.Channel(), "sender", msg.SenderId(), "length", len(final))

	ses.AddUser(msg.Content())
	ses.AddAssistant(final)
	return final, nil
}

// failureReply logs err and returns the text shown to the user. A lost
// connection also drops the cached warehouse session.
func (loop *AgentLoop) failureReply(key string, err error) string {
	switch {
	case warehouse.IsConnectionError(err):
		slog.Error("Warehouse connection lost", "session", key, "err", err)
		if loop.conn != nil {
			loop.conn.Invalidate()
		}
		return replyConnectionLost
	case errors.Is(err, ErrMaxStepsExceeded):
		slog.Warn("Turn stopped", "session", key, "err", err)
		return fmt.Sprintf(replyMaxSteps, loop.settings.MaxSteps)
	default:
		slog.Error("Turn failed", "session", key, "err", err)
		return fmt.Sprintf(replyError, err)
	}
}

// handleSlashCommand handles /new and /help. ok is false for anything else.
func (loop *AgentLoop) handleSlashCommand(msg bus.AgentBusMessage, ses *session.Session) (reply string, ok bool) {
	switch strings.TrimSpace(strings.ToLower(msg.Content())) {
	case "/new":
		ses.Clear()
		return replyNew, true
	case "/help":
		return replyHelp, true
	}
	return "", false
}

// makeProgressCallback returns a function that pushes intermediate steps to
// the outbound side so clients can display them while the turn runs.
func (loop *AgentLoop) makeProgressCallback(msg bus.AgentBusMessage) func(string) {
	return func(content string) {
		loop.publish(bus.NewChannelMessageBuilder(msg.Channel(), msg.ChatId(), content).
			Metadata(msg.Metadata()).
			Progress().
			Build())
	}
}
