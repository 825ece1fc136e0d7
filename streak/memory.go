package streak

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory StateStore and RecordStore. It backs unit
// tests and single-instance deployments that run without MySQL.
type MemoryStore struct {
	mu       sync.Mutex
	states   map[uint]State
	versions map[uint]int64
	records  []Record
	loginSet map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   map[uint]State{},
		versions: map[uint]int64{},
		loginSet: map[string]struct{}{},
	}
}

func (m *MemoryStore) Load(_ context.Context, userID uint) (State, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.states[userID]), m.versions[userID], nil
}

func (m *MemoryStore) Save(_ context.Context, userID uint, state State, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[userID] != version {
		return ErrVersionConflict
	}
	m.states[userID] = cloneState(state)
	m.versions[userID] = version + 1
	return nil
}

func (m *MemoryStore) InsertLoginOnce(_ context.Context, rec Record, day DayKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("login:%d:%s", rec.UserID, day)
	if _, dup := m.loginSet[key]; dup {
		return false, nil
	}
	m.loginSet[key] = struct{}{}
	m.records = append(m.records, rec)
	return true, nil
}

func (m *MemoryStore) Insert(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a snapshot of everything appended so far.
func (m *MemoryStore) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

func cloneState(s State) State {
	out := s
	if s.LastLoginDay != nil {
		d := *s.LastLoginDay
		out.LastLoginDay = &d
	}
	out.LoginDays = append([]DayKey(nil), s.LoginDays...)
	return out
}
