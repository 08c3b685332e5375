package agent

import "errors"

var (
	// ErrMaxStepsExceeded ends a turn that did not reach a final answer
	// within the configured number of reasoning steps.
	ErrMaxStepsExceeded = errors.New("max reasoning steps exceeded")
	// ErrOutputFormat marks model output that is neither a final answer
	// nor a single well-formed action.
	ErrOutputFormat = errors.New("invalid format")
)
