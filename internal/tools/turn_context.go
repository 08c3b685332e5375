package tools

import (
	"context"

	"github.com/snowwise/snowwise/internal/bus"
)

// TurnContext carries per-turn routing metadata through the context tree.
// The agent loop sets it once per message; Dispatch reads it for logging.
type TurnContext struct {
	Channel    bus.Channel
	ChatID     string
	SessionKey string
}

type turnKey struct{}

// WithTurn returns a child context that carries tc.
func WithTurn(ctx context.Context, tc TurnContext) context.Context {
	return context.WithValue(ctx, turnKey{}, tc)
}

// TurnCtx extracts the TurnContext from ctx.
// Returns a zero-value TurnContext if none was set.
func TurnCtx(ctx context.Context) TurnContext {
	tc, _ := ctx.Value(turnKey{}).(TurnContext)
	return tc
}
