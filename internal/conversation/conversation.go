// FILE: internal/conversation/conversation.go
// Package conversation keeps the per-side message log fed to the assistant.
package conversation

import (
	"sync"

	"github.com/jimmyshjj/ChessGPT/internal/core"
)

// DefaultLimit is the number of most recent entries supplied with a request.
const DefaultLimit = 20

// Store is an append-only log per side. Entries are never edited; reads
// truncate to the most recent entries.
type Store struct {
	mu   sync.RWMutex
	logs map[core.Color][]core.Message
	last map[core.Color]core.Exchange
}

func NewStore() *Store {
	return &Store{
		logs: make(map[core.Color][]core.Message),
		last: make(map[core.Color]core.Exchange),
	}
}

func (s *Store) Append(side core.Color, role core.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[side] = append(s.logs[side], core.Message{Role: role, Content: content})
}

// Record stores an accepted exchange. The pair is appended to the log only
// when the side includes chat context; the latest pair is always kept so
// it can be quoted inline otherwise.
func (s *Store) Record(side core.Color, ex core.Exchange, includeLog bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[side] = ex
	if includeLog {
		s.logs[side] = append(s.logs[side],
			core.Message{Role: core.RoleUser, Content: ex.Request},
			core.Message{Role: core.RoleAssistant, Content: ex.Reply},
		)
	}
}

// Snapshot returns at most limit of the most recent entries in order.
// A non-positive limit returns the whole log.
func (s *Store) Snapshot(side core.Color, limit int) []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[side]
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]core.Message, len(log))
	copy(out, log)
	return out
}

// Last returns the most recent exchange for a side.
func (s *Store) Last(side core.Color) (core.Exchange, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ex, ok := s.last[side]
	return ex, ok
}

func (s *Store) Len(side core.Color) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[side])
}

// Reset clears every side.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[core.Color][]core.Message)
	s.last = make(map[core.Color]core.Exchange)
}
