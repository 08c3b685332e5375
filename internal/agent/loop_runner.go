package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/snowwise/snowwise/internal/llm"
	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/shared/llmutils"
	"github.com/snowwise/snowwise/internal/tools"
)

// Dispatcher executes tool invocations. Implemented by tools.Registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv schema.ToolInvocation) (string, error)
	Names() []string
	Descriptors() []schema.ToolDescriptor
}

// LoopRunner drives the reason → act → observe cycle for one turn.
type LoopRunner struct {
	completer llm.Completer
	tools     Dispatcher
	prompt    *PromptBuilder
	maxSteps  int
}

func NewLoopRunner(completer llm.Completer, dispatcher Dispatcher, settings schema.AgentSettings) LoopRunner {
	return LoopRunner{
		completer: completer,
		tools:     dispatcher,
		prompt:    NewPromptBuilder(dispatcher.Descriptors()),
		maxSteps:  settings.MaxSteps,
	}
}

// run answers input given the recent history. Format errors and unknown
// tools are fed back to the model as observations. Completion failures,
// fatal tool errors and ErrMaxStepsExceeded end the turn.
func (r *LoopRunner) run(ctx context.Context, history []schema.Turn, input string, onProgress func(string)) (string, error) {
	scratchpad := ""
	for step := 0; step < r.maxSteps; step++ {
		text, err := r.completer.Complete(ctx, r.prompt.Build(history, input, scratchpad))
		if err != nil {
			return "", fmt.Errorf("completion: %w", err)
		}

		decision, err := Parse(text)
		if err != nil {
			slog.Warn("Unparseable model output", "step", step, "err", err, "output", llmutils.Truncate(text, 200))
			scratchpad = appendStep(scratchpad, decision.Log, err.Error())
			continue
		}
		if decision.Done {
			slog.Info("Final answer", "steps", step+1, "length", len(decision.Final))
			return decision.Final, nil
		}

		inv := decision.Action
		if onProgress != nil {
			if thought := decision.Thought(); thought != "" {
				onProgress(thought)
			}
			onProgress(llmutils.ActionHint(inv.Tool, inv.Input))
		}

		observation, err := r.observe(ctx, inv)
		if err != nil {
			return "", err
		}
		scratchpad = appendStep(scratchpad, decision.Log, observation)
	}
	return "", fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, r.maxSteps)
}

// observe dispatches inv and turns recoverable failures into observation text.
func (r *LoopRunner) observe(ctx context.Context, inv schema.ToolInvocation) (string, error) {
	out, err := r.tools.Dispatch(ctx, inv)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, tools.ErrUnknownTool):
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", inv.Tool, strings.Join(r.tools.Names(), ", ")), nil
	case errors.Is(err, tools.ErrInvalidInput):
		return "Error: " + err.Error(), nil
	default:
		return "", fmt.Errorf("tool %s: %w", inv.Tool, err)
	}
}
