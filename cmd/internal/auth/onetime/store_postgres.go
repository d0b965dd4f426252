package onetime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"warden/cmd/identity"
)

// PostgresStore persists tokens in <schema>.one_time_tokens.
//
// Consumption is a single conditional UPDATE, so two concurrent validations of
// the same token cannot both succeed.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
	opts  options
}

// NewPostgresStore returns a store using schema (default "warden" when empty).
func NewPostgresStore(pool *pgxpool.Pool, schema string, opts ...Option) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("onetime: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = identity.DefaultSchema
	}
	if !identity.PgIdentIsValid(schema) {
		return nil, fmt.Errorf("onetime: invalid schema identifier")
	}
	return &PostgresStore{
		pool:  pool,
		table: identity.PgIdent(schema, "one_time_tokens"),
		opts:  buildOptions(opts),
	}, nil
}

func (s *PostgresStore) Create(ctx context.Context, value string, expiresAt time.Time) error {
	h, err := s.opts.hash(value)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (token_hash, created_at, expires_at, consumed_at)
		 VALUES ($1, now(), $2, NULL)
		 ON CONFLICT (token_hash) DO UPDATE
		   SET created_at = EXCLUDED.created_at,
		       expires_at = EXCLUDED.expires_at,
		       consumed_at = NULL`,
		h, expiresAt,
	)
	return err
}

func (s *PostgresStore) Validate(ctx context.Context, value string, now time.Time) (bool, error) {
	h, err := s.opts.hash(value)
	if err != nil {
		return false, err
	}

	var got string
	err = s.pool.QueryRow(ctx,
		`UPDATE `+s.table+`
		    SET consumed_at = $2
		  WHERE token_hash = $1
		    AND consumed_at IS NULL
		    AND expires_at > $2
		RETURNING token_hash`,
		h, now,
	).Scan(&got)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PurgeExpired deletes tokens that expired or were consumed before cutoff.
func (s *PostgresStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+s.table+` WHERE expires_at <= $1 OR consumed_at <= $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
