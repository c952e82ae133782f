// Package history keeps the short per-(session, advisor) conversation log
// that is replayed into advisor prompts. Each key holds a sliding window of
// the most recent turns; older context is dropped, not summarized.
package history

import (
	"strings"
	"sync"
)

// MaxTurns caps each conversation at 20 turns (10 exchanges). Appends past
// the cap drop the oldest turns.
const MaxTurns = 20

// Turn is one role-tagged message in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles used in stored turns and in completion requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Key identifies one conversation: a (session, advisor) pair.
func Key(sessionID, advisorID string) string {
	return sessionID + "/" + advisorID
}

// Store is the narrow persistence interface for conversation history.
// Implemented by MemoryStore and by storage.Store.
type Store interface {
	// Append adds turns at the end of the conversation and enforces the cap.
	Append(key string, turns ...Turn) error
	// Turns returns the conversation oldest-first. The returned slice is the
	// caller's to mutate.
	Turns(key string) ([]Turn, error)
	// Clear removes one conversation.
	Clear(key string) error
	// ClearSession removes every conversation belonging to sessionID.
	ClearSession(sessionID string) error
}

// MemoryStore keeps conversations in a mutex-guarded map. Two concurrent
// requests on the same key still race at the read-call-append level (last
// writer wins); the lock only prevents structural corruption of the map.
type MemoryStore struct {
	mu    sync.Mutex
	turns map[string][]Turn
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{turns: make(map[string][]Turn)}
}

func (s *MemoryStore) Append(key string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := append(s.turns[key], turns...)
	if len(seq) > MaxTurns {
		seq = seq[len(seq)-MaxTurns:]
	}
	s.turns[key] = seq
	return nil
}

func (s *MemoryStore) Turns(key string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.turns[key]
	out := make([]Turn, len(seq))
	copy(out, seq)
	return out, nil
}

func (s *MemoryStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, key)
	return nil
}

func (s *MemoryStore) ClearSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := sessionID + "/"
	for k := range s.turns {
		if strings.HasPrefix(k, prefix) {
			delete(s.turns, k)
		}
	}
	return nil
}
