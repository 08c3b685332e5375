package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/snowwise/snowwise/internal/schema"
	"github.com/snowwise/snowwise/internal/shared/llmutils"
)

const finalAnswerMarker = "Final Answer:"

var (
	reAction      = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	reActionOnly  = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	reObservation = regexp.MustCompile(`\n\s*Observation\s*:`)
	reCodeFence   = regexp.MustCompile("(?s)^```[A-Za-z]*\\s*\n?(.*?)\\s*```$")
)

// Decision is one parsed model reply: either a tool action or a final answer.
type Decision struct {
	Action schema.ToolInvocation
	Final  string
	Done   bool
	// Log is the model text for this step, kept in the scratchpad.
	Log string
}

// Parse interprets one completion. The endpoint has no stop sequences, so
// anything after a model-invented "Observation:" is discarded first.
func Parse(text string) (Decision, error) {
	text = llmutils.StripThink(text)
	if loc := reObservation.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	text = strings.TrimRight(text, " \t\r\n")

	hasFinal := strings.Contains(text, finalAnswerMarker)
	m := reAction.FindStringSubmatch(text)

	switch {
	case hasFinal && m != nil:
		return Decision{Log: text}, fmt.Errorf("%w: produced both a final answer and a parse-able action", ErrOutputFormat)
	case hasFinal:
		answer := text[strings.LastIndex(text, finalAnswerMarker)+len(finalAnswerMarker):]
		return Decision{Final: strings.TrimSpace(answer), Done: true, Log: text}, nil
	case m != nil:
		return Decision{
			Action: schema.ToolInvocation{Tool: cleanToolName(m[1]), Input: cleanActionInput(m[2])},
			Log:    text,
		}, nil
	case !reActionOnly.MatchString(text):
		return Decision{Log: text}, fmt.Errorf("%w: Missing 'Action:' after 'Thought:'", ErrOutputFormat)
	default:
		return Decision{Log: text}, fmt.Errorf("%w: Missing 'Action Input:' after 'Action:'", ErrOutputFormat)
	}
}

// Thought returns the reasoning text that precedes the action, if any.
func (d Decision) Thought() string {
	thought, _, _ := strings.Cut(d.Log, "Action:")
	return strings.TrimSpace(thought)
}

func cleanToolName(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`*\"'")
}

func cleanActionInput(s string) string {
	s = strings.TrimSpace(s)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.Trim(s, " ")
	// Only a pair wrapping the whole input is removed. Any other double
	// quote belongs to an identifier such as "MY_TABLE".
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && !strings.Contains(s[1:len(s)-1], `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}
