package lockout

import (
	"context"
	"sync"
)

// MemoryStore keeps lockout states in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[key]
	if !ok {
		return nil, ErrNotFound
	}
	return st.clone(), nil
}

func (m *MemoryStore) Create(ctx context.Context, s *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[s.Key]; ok {
		return ErrConflict
	}
	m.states[s.Key] = s.clone()
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, s *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[s.Key]; !ok {
		return ErrNotFound
	}
	m.states[s.Key] = s.clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.states, key)
	m.mu.Unlock()
	return nil
}
