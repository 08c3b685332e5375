// Package session keeps per-conversation transcripts in memory for the
// lifetime of the process. Nothing is written to disk.
package session

import (
	"sort"
	"sync"
	"time"
)

// Manager owns the sessions of one process, keyed by routing key
// ("channel:chat_id").
type Manager struct {
	cache sync.Map // key → *Session
}

func NewManager() *Manager {
	return &Manager{}
}

// GetOrCreate returns the session for key, creating an empty one if needed.
func (m *Manager) GetOrCreate(key string) *Session {
	if v, ok := m.cache.Load(key); ok {
		return v.(*Session)
	}
	actual, _ := m.cache.LoadOrStore(key, newSession(key))
	return actual.(*Session)
}

// Invalidate forgets the session for key.
func (m *Manager) Invalidate(key string) {
	m.cache.Delete(key)
}

// Summary describes a live session.
type Summary struct {
	Key       string
	Turns     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// List returns all live sessions, most recently updated first.
func (m *Manager) List() []Summary {
	var out []Summary
	m.cache.Range(func(_, v any) bool {
		s := v.(*Session)
		s.mu.Lock()
		out = append(out, Summary{
			Key:       s.Key,
			Turns:     len(s.turns.Turns),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
		s.mu.Unlock()
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}
