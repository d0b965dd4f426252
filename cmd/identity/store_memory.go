package identity

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for development and tests.
// Records are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	byKey   map[string]*User
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*User, error) {
	const op = "identity.MemoryStore.Get"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byKey[NormalizeKey(key)]
	if !ok {
		return nil, NotFoundError{Op: op, Resource: "user"}
	}
	return u.Clone(), nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, emailNorm string) (*User, error) {
	const op = "identity.MemoryStore.GetByEmail"
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.byEmail[emailNorm]
	if !ok || emailNorm == "" {
		return nil, NotFoundError{Op: op, Resource: "user"}
	}
	return s.byKey[key].Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, u *User) (*User, error) {
	const op = "identity.MemoryStore.Create"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUser(op, u); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[u.Key]; ok {
		return nil, ConflictError{Op: op, Field: "key"}
	}
	if u.EmailNorm != "" {
		if _, ok := s.byEmail[u.EmailNorm]; ok {
			return nil, ConflictError{Op: op, Field: "email"}
		}
		s.byEmail[u.EmailNorm] = u.Key
	}
	s.byKey[u.Key] = u.Clone()
	return u, nil
}

func (s *MemoryStore) Update(ctx context.Context, u *User) (*User, error) {
	const op = "identity.MemoryStore.Update"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUser(op, u); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.byKey[u.Key]
	if !ok {
		return nil, NotFoundError{Op: op, Resource: "user"}
	}
	if u.EmailNorm != prev.EmailNorm {
		if owner, taken := s.byEmail[u.EmailNorm]; taken && u.EmailNorm != "" && owner != u.Key {
			return nil, ConflictError{Op: op, Field: "email"}
		}
		delete(s.byEmail, prev.EmailNorm)
		if u.EmailNorm != "" {
			s.byEmail[u.EmailNorm] = u.Key
		}
	}
	s.byKey[u.Key] = u.Clone()
	return u, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key = NormalizeKey(key)
	if u, ok := s.byKey[key]; ok {
		delete(s.byEmail, u.EmailNorm)
		delete(s.byKey, key)
	}
	return nil
}
