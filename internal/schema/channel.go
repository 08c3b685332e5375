package schema

import (
	"context"

	"github.com/snowwise/snowwise/internal/bus"
)

// Channel is a chat surface the assistant can be reached through
// (terminal, Slack, Telegram, browser websocket).
type Channel interface {
	// Name returns the unique channel identifier, e.g. "slack".
	Name() string
	// Start listens for user messages until ctx is cancelled.
	Start(ctx context.Context) error
	// Send delivers a reply or a progress line to the user.
	Send(ctx context.Context, msg bus.ChannelMessage) error
}
