package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// English design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Updates are plain last-writer-wins; there is no version column.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultSchema is the schema the embedded migrations create.
const DefaultSchema = "warden"

// WithSchema sets the Postgres schema used by the store (default "warden").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !PgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `user_key, email, email_norm, email_confirmed, password_hash, security_stamp, created_at, last_login_at`

func (s *PostgresStore) Get(ctx context.Context, key string) (*User, error) {
	const op = "identity.Get"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = NormalizeKey(key)
	if key == "" {
		return nil, Invalid(op, "missing key")
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+PgIdent(s.schema, "users")+` WHERE user_key = $1`,
		key,
	)
	return scanUser(op, row)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, emailNorm string) (*User, error) {
	const op = "identity.GetByEmail"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(emailNorm) == "" {
		return nil, Invalid(op, "missing email")
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+PgIdent(s.schema, "users")+` WHERE email_norm = $1`,
		emailNorm,
	)
	return scanUser(op, row)
}

func (s *PostgresStore) Create(ctx context.Context, u *User) (*User, error) {
	const op = "identity.Create"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUser(op, u); err != nil {
		return nil, err
	}

	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+PgIdent(s.schema, "users")+` (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.Key,
		nullIfEmpty(u.Email),
		nullIfEmpty(u.EmailNorm),
		u.EmailConfirmed,
		u.PasswordHash,
		u.SecurityStamp,
		createdAt,
		u.LastLoginAt,
	)
	if err != nil {
		if field, ok := PgClassifyUniqueViolation(err); ok {
			return nil, ConflictError{Op: op, Field: field}
		}
		return nil, err
	}
	u.CreatedAt = createdAt
	return u, nil
}

func (s *PostgresStore) Update(ctx context.Context, u *User) (*User, error) {
	const op = "identity.Update"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkUser(op, u); err != nil {
		return nil, err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+PgIdent(s.schema, "users")+`
		    SET email = $2,
		        email_norm = $3,
		        email_confirmed = $4,
		        password_hash = $5,
		        security_stamp = $6,
		        last_login_at = $7
		  WHERE user_key = $1`,
		u.Key,
		nullIfEmpty(u.Email),
		nullIfEmpty(u.EmailNorm),
		u.EmailConfirmed,
		u.PasswordHash,
		u.SecurityStamp,
		u.LastLoginAt,
	)
	if err != nil {
		if field, ok := PgClassifyUniqueViolation(err); ok {
			return nil, ConflictError{Op: op, Field: field}
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, NotFoundError{Op: op, Resource: "user"}
	}
	return u, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const op = "identity.Delete"

	if err := ctx.Err(); err != nil {
		return err
	}
	key = NormalizeKey(key)
	if key == "" {
		return Invalid(op, "missing key")
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM `+PgIdent(s.schema, "users")+` WHERE user_key = $1`, key)
	return err
}

func scanUser(op string, row pgx.Row) (*User, error) {
	var (
		u         User
		email     *string
		emailNorm *string
		lastLogin *time.Time
	)
	err := row.Scan(
		&u.Key,
		&email,
		&emailNorm,
		&u.EmailConfirmed,
		&u.PasswordHash,
		&u.SecurityStamp,
		&u.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundError{Op: op, Resource: "user"}
		}
		return nil, err
	}
	if email != nil {
		u.Email = *email
	}
	if emailNorm != nil {
		u.EmailNorm = *emailNorm
	}
	u.CreatedAt = u.CreatedAt.UTC()
	if lastLogin != nil {
		t := lastLogin.UTC()
		u.LastLoginAt = &t
	}
	return &u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PgIdentIsValid checks if a string is a safe Postgres identifier.
func PgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// PgIdent safely quotes a schema-qualified identifier: "schema"."name".
func PgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// PgClassifyUniqueViolation maps a unique_violation to a logical field name.
func PgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// English comment:
	// Prefer stable schema constraint names. Fall back to heuristic substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "uq_users_email_norm":
		return "email", true
	case "users_pkey":
		return "key", true
	default:
		switch {
		case strings.Contains(c, "email"):
			return "email", true
		case strings.Contains(c, "pkey"):
			return "key", true
		default:
			return "unique", true
		}
	}
}
