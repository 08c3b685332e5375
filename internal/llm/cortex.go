// Package llm reaches the completion model through the warehouse itself:
// prompts are sent as a SNOWFLAKE.CORTEX.COMPLETE call and the answer is
// read back from the single result cell.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/snowwise/snowwise/internal/shared/llmutils"
	"github.com/snowwise/snowwise/internal/warehouse"
)

const (
	DefaultModel   = "snowflake-arctic"
	DefaultTimeout = 2 * time.Minute
)

var reModel = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ErrEmptyCompletion is returned when the completion call yields no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Querier is the part of warehouse.Conn the completion client needs.
type Querier interface {
	Query(ctx context.Context, query string) (*warehouse.Table, error)
}

// Cortex is a Completer backed by Snowflake Cortex.
type Cortex struct {
	conn    Querier
	model   string
	timeout time.Duration
}

// NewCortex returns a client for model. An empty model means DefaultModel;
// timeout <= 0 disables the per-call deadline.
func NewCortex(conn Querier, model string, timeout time.Duration) (*Cortex, error) {
	model = llmutils.StringOrDefault(strings.TrimSpace(model), DefaultModel)
	if !reModel.MatchString(model) {
		return nil, fmt.Errorf("invalid cortex model name %q", model)
	}
	return &Cortex{conn: conn, model: model, timeout: timeout}, nil
}

// Model returns the configured model name.
func (c *Cortex) Model() string { return c.model }

// Complete sends prompt as one string literal. No retry.
func (c *Cortex) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	t, err := c.conn.Query(ctx, Statement(c.model, prompt))
	if err != nil {
		return "", fmt.Errorf("cortex complete: %w", err)
	}
	v, ok := t.Value(0, 0)
	if !ok || v == nil {
		return "", fmt.Errorf("cortex complete: %w", ErrEmptyCompletion)
	}
	out := warehouse.FormatValue(v)
	slog.Debug("cortex completion",
		"model", c.model,
		"prompt_chars", len(prompt),
		"elapsed", time.Since(start).Round(time.Millisecond),
		"response", llmutils.Truncate(out, 120),
	)
	return out, nil
}

// Statement builds the completion query for model and prompt.
func Statement(model, prompt string) string {
	return fmt.Sprintf("SELECT SNOWFLAKE.CORTEX.COMPLETE('%s', '%s');", model, EscapeLiteral(prompt))
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`)

// EscapeLiteral makes s safe to embed between single quotes in a Snowflake
// string literal. Every prompt goes through here exactly once.
func EscapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
