package onetime

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps tokens as keys that expire at the token's expiration.
// Validate uses GETDEL so consumption is atomic.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	opts   options
}

// NewRedisStore returns a store writing keys as prefix+hash.
func NewRedisStore(client redis.Cmdable, prefix string, opts ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("onetime: nil redis client")
	}
	if prefix == "" {
		prefix = "warden:token:"
	}
	return &RedisStore{client: client, prefix: prefix, opts: buildOptions(opts)}, nil
}

func (s *RedisStore) Create(ctx context.Context, value string, expiresAt time.Time) error {
	h, err := s.opts.hash(value)
	if err != nil {
		return err
	}
	// The stored expiration is checked again on Validate against the caller's clock.
	return s.client.SetArgs(ctx, s.prefix+h, strconv.FormatInt(expiresAt.UnixMilli(), 10), redis.SetArgs{
		ExpireAt: expiresAt,
	}).Err()
}

func (s *RedisStore) Validate(ctx context.Context, value string, now time.Time) (bool, error) {
	h, err := s.opts.hash(value)
	if err != nil {
		return false, err
	}

	raw, err := s.client.GetDel(ctx, s.prefix+h).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, nil
	}
	return time.UnixMilli(ms).After(now), nil
}
