package lockout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps lockout states as JSON values with a TTL.
//
// A key expires once it can no longer influence a decision: Retention after its
// last failure, or at its ban expiration, whichever is later. An expired key
// reads as absent, which the tracker treats the same as a stale window.
type RedisStore struct {
	client    redis.Cmdable
	prefix    string
	retention time.Duration
}

type redisState struct {
	LastModified   time.Time  `json:"last_modified"`
	FailedAttempts int        `json:"failed_attempts"`
	Expiration     *time.Time `json:"expiration,omitempty"`
}

// NewRedisStore returns a store writing keys as prefix+key.
// retention should be the tracker window.
func NewRedisStore(client redis.Cmdable, prefix string, retention time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("lockout: nil redis client")
	}
	if retention <= 0 {
		retention = DefaultConfig().Window
	}
	if prefix == "" {
		prefix = "warden:lockout:"
	}
	return &RedisStore{client: client, prefix: prefix, retention: retention}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*State, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rs redisState
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, err
	}
	return &State{
		Key:            key,
		LastModified:   rs.LastModified.UTC(),
		FailedAttempts: rs.FailedAttempts,
		Expiration:     rs.Expiration,
	}, nil
}

func (s *RedisStore) Create(ctx context.Context, st *State) error {
	raw, ttl, err := s.encode(st)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.prefix+st.Key, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, st *State) error {
	raw, ttl, err := s.encode(st)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.prefix+st.Key, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

func (s *RedisStore) encode(st *State) ([]byte, time.Duration, error) {
	raw, err := json.Marshal(redisState{
		LastModified:   st.LastModified,
		FailedAttempts: st.FailedAttempts,
		Expiration:     st.Expiration,
	})
	if err != nil {
		return nil, 0, err
	}

	until := st.LastModified.Add(s.retention)
	if st.Expiration != nil && st.Expiration.After(until) {
		until = *st.Expiration
	}
	ttl := time.Until(until)
	if ttl < time.Second {
		ttl = time.Second
	}
	return raw, ttl, nil
}
