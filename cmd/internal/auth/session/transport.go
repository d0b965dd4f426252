package session

import (
	"context"
	"sync"
)

// Transport carries a Ticket between requests (typically a cookie).
//
// Read returns (nil, nil) when there is no session and ErrTicketInvalid when
// the stored blob cannot be decoded. Clear must succeed when nothing is stored.
type Transport interface {
	Persist(ctx context.Context, t Ticket) error
	Read(ctx context.Context) (*Ticket, error)
	Clear(ctx context.Context) error
}

// MemoryTransport keeps a single ticket in memory. It stands in for a cookie
// jar in tests and in non-HTTP embeddings.
type MemoryTransport struct {
	mu      sync.Mutex
	ticket  *Ticket
	corrupt bool
	clears  int
}

// NewMemoryTransport returns an empty transport.
func NewMemoryTransport() *MemoryTransport { return &MemoryTransport{} }

func (m *MemoryTransport) Persist(_ context.Context, t Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket = &t
	m.corrupt = false
	return nil
}

func (m *MemoryTransport) Read(_ context.Context) (*Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.corrupt {
		return nil, ErrTicketInvalid
	}
	if m.ticket == nil {
		return nil, nil
	}
	cp := *m.ticket
	return &cp, nil
}

func (m *MemoryTransport) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket = nil
	m.corrupt = false
	m.clears++
	return nil
}

// Corrupt makes the next Read behave as if the stored blob were undecodable.
func (m *MemoryTransport) Corrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corrupt = true
}

// Ticket returns a copy of the stored ticket, or nil.
func (m *MemoryTransport) Ticket() *Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticket == nil {
		return nil
	}
	cp := *m.ticket
	return &cp
}

// Clears reports how many times Clear was called.
func (m *MemoryTransport) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}
