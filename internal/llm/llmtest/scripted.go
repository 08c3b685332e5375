// Package llmtest provides a scripted llm.Completer for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned once every scripted reply has been used.
var ErrScriptExhausted = errors.New("llmtest: no scripted reply left")

// Scripted replays fixed replies in order and records every prompt.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	errs    map[int]error
	prompts []string
}

// NewScripted returns a completer answering with replies in order.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies, errs: map[int]error{}}
}

// FailAt makes call n (0-based) return err.
func (s *Scripted) FailAt(n int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[n] = err
	return s
}

func (s *Scripted) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if err := s.errs[n]; err != nil {
		return "", err
	}
	if n >= len(s.replies) {
		return "", ErrScriptExhausted
	}
	return s.replies[n], nil
}

// Prompts returns the prompts received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Func adapts a function to llm.Completer.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Complete(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }
