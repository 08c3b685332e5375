package llmutils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Truncate shortens a string to at most n runes, adding "..." if it was truncated.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// StripThink removes <think>…</think> blocks that some Cortex models embed.
func StripThink(s string) string {
	return reThink.ReplaceAllString(s, "")
}

// StringOrDefault returns s if it's not empty, or def if s is empty.
func StringOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ActionHint generates a short hint string for a tool invocation, e.g.
// `sql_db_schema("QUERY_HISTORY")`.
func ActionHint(tool, input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if input == "" {
		return tool
	}
	if utf8.RuneCountInString(input) > 40 {
		input = string([]rune(input)[:40]) + "…"
	}
	return fmt.Sprintf("%s(%q)", tool, input)
}
