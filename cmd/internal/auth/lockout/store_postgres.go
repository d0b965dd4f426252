package lockout

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

// PostgresStore persists lockout states in <schema>.lockouts.
// The pgx pool is owned by the caller.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore returns a store using schema (default "warden" when empty).
func NewPostgresStore(pool *pgxpool.Pool, schema string) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("lockout: nil pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = identity.DefaultSchema
	}
	if !identity.PgIdentIsValid(schema) {
		return nil, fmt.Errorf("lockout: invalid schema identifier")
	}
	return &PostgresStore{pool: pool, table: identity.PgIdent(schema, "lockouts")}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*State, error) {
	var (
		st  = State{Key: key}
		exp *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT last_modified, failed_attempts, expiration FROM `+s.table+` WHERE lockout_key = $1`,
		key,
	).Scan(&st.LastModified, &st.FailedAttempts, &exp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	st.LastModified = st.LastModified.UTC()
	if exp != nil {
		e := exp.UTC()
		st.Expiration = &e
	}
	return &st, nil
}

func (s *PostgresStore) Create(ctx context.Context, st *State) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (lockout_key, last_modified, failed_attempts, expiration)
		 VALUES ($1, $2, $3, $4)`,
		st.Key, st.LastModified, st.FailedAttempts, st.Expiration,
	)
	if err != nil {
		if _, ok := identity.PgClassifyUniqueViolation(err); ok {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, st *State) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table+`
		    SET last_modified = $2, failed_attempts = $3, expiration = $4
		  WHERE lockout_key = $1`,
		st.Key, st.LastModified, st.FailedAttempts, st.Expiration,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE lockout_key = $1`, key)
	return err
}
