package conversation

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store. History is volatile and lost on
// restart, which the relay accepts.
type MemoryStore struct {
	maxPairs int

	mu      sync.Mutex
	entries map[string]*historyEntry
}

type historyEntry struct {
	mu    sync.Mutex
	turns []Turn
}

// NewMemoryStore creates a MemoryStore keeping at most maxPairs
// user/assistant pairs per user.
func NewMemoryStore(maxPairs int) *MemoryStore {
	if maxPairs <= 0 {
		maxPairs = 10
	}
	return &MemoryStore{
		maxPairs: maxPairs,
		entries:  make(map[string]*historyEntry),
	}
}

// entry returns the per-user entry, creating it under the map lock. The map
// lock is held only for lookup; per-user work happens under the entry lock so
// users never contend with each other.
func (s *MemoryStore) entry(userID string) *historyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &historyEntry{}
		s.entries[userID] = e
	}
	return e
}

func (s *MemoryStore) History(ctx context.Context, userID string) ([]Turn, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (s *MemoryStore) AppendExchange(ctx context.Context, userID, userText, assistantText string) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.turns = append(e.turns,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)
	e.turns = trimPairs(e.turns, s.maxPairs)
	return nil
}

// trimPairs drops the oldest pairs until at most maxPairs remain. Eviction is
// always whole-pair; turns arrive strictly in pairs so len is always even.
func trimPairs(turns []Turn, maxPairs int) []Turn {
	if excess := len(turns) - 2*maxPairs; excess > 0 {
		turns = turns[excess:]
	}
	return turns
}
