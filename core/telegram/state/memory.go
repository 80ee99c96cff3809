package state

import (
	"context"
	"sync"

	"github.com/m3rciful/hrbot/core/dialogue"
)

// MemoryStore is an in-process dialogue.TrackerStore for development and
// tests. Conversations are lost on restart.
type MemoryStore struct {
	mu           sync.RWMutex
	trackers     map[string]*dialogue.Tracker
	historyLimit int
}

var _ dialogue.TrackerStore = (*MemoryStore)(nil)

// NewMemoryStore keeps at most historyLimit events per sender; <= 0 keeps all.
func NewMemoryStore(historyLimit int) *MemoryStore {
	return &MemoryStore{
		trackers:     make(map[string]*dialogue.Tracker),
		historyLimit: historyLimit,
	}
}

// Load returns a copy of the stored tracker or a fresh one.
func (m *MemoryStore) Load(_ context.Context, senderID string) (*dialogue.Tracker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.trackers[senderID]; ok {
		return t.Clone(), nil
	}
	return dialogue.NewTracker(senderID), nil
}

// Append applies events to the stored tracker, creating it on first use.
func (m *MemoryStore) Append(_ context.Context, senderID string, events ...dialogue.Event) error {
	if len(events) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trackers[senderID]
	if !ok {
		t = dialogue.NewTracker(senderID)
		m.trackers[senderID] = t
	}
	t.Apply(events...)
	if m.historyLimit > 0 {
		t.Trim(m.historyLimit)
	}
	return nil
}

// Reset forgets senderID.
func (m *MemoryStore) Reset(_ context.Context, senderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trackers, senderID)
	return nil
}

// Len reports how many conversations are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trackers)
}
