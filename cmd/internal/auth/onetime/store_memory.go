package onetime

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	opts options

	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:   buildOptions(opts),
		tokens: make(map[string]time.Time),
	}
}

func (m *MemoryStore) Create(ctx context.Context, value string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := m.opts.hash(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.tokens[h] = expiresAt
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Validate(ctx context.Context, value string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	h, err := m.opts.hash(value)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.tokens[h]
	if !ok {
		return false, nil
	}
	delete(m.tokens, h)
	return exp.After(now), nil
}

// Len returns the number of live and expired-but-unconsumed tokens.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
