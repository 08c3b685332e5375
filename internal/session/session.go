package session

import (
	"sync"
	"time"

	"github.com/snowwise/snowwise/internal/schema"
)

// Session holds one conversation's transcript. Turns are serialized with
// BeginTurn so two messages of the same conversation never run the agent
// concurrently.
type Session struct {
	Key       string
	CreatedAt time.Time
	UpdatedAt time.Time

	turns schema.Turns
	mu    sync.Mutex // guards turns and UpdatedAt
	turn  sync.Mutex // held for the duration of one agent turn
}

func newSession(key string) *Session {
	now := time.Now()
	return &Session{Key: key, CreatedAt: now, UpdatedAt: now}
}

// BeginTurn blocks until no other turn is running on s and returns the
// function that ends this one.
func (s *Session) BeginTurn() (end func()) {
	s.turn.Lock()
	return s.turn.Unlock
}

// AddUser appends a user turn to the transcript.
func (s *Session) AddUser(content string) {
	s.add(schema.NewUserTurn(content))
}

// AddAssistant appends an assistant turn to the transcript.
func (s *Session) AddAssistant(content string) {
	s.add(schema.NewAssistantTurn(content))
}

func (s *Session) add(t schema.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns.Add(t)
	s.UpdatedAt = time.Now()
}

// History returns the last maxTurns turns (all when maxTurns <= 0).
func (s *Session) History(maxTurns int) []schema.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns.Window(maxTurns)
}

// Len returns the number of turns in the session.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns.Turns)
}

// Clear drops the transcript.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = schema.Turns{}
	s.UpdatedAt = time.Now()
}
