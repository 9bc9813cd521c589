// Package user implements the account directory used by the access gate.
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var userColumns = []string{"id", "username", "email", "password_hash", "role", "created_at"}

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new user repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (row userRow) toDomain() domain.User {
	return domain.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         domain.UserRole(row.Role),
		CreatedAt:    row.CreatedAt,
	}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new user. A duplicate username or email yields domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	sql, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash", "role").
		Values(u.Username, u.Email, u.PasswordHash, string(u.Role)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build user insert: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.db)
	if err := q.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		return domain.User{}, postgres.MapError(err, "user", u.Username)
	}
	return u, nil
}

// SetRole changes the role of the user with the given username.
func (r *Repo) SetRole(ctx context.Context, username string, role domain.UserRole) (domain.User, error) {
	return r.getOne(ctx, username, psql.Update("users").
		Set("role", string(role)).
		Where(sq.Eq{"username": username}).
		Suffix("RETURNING "+strings.Join(userColumns, ", ")))
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return r.getOne(ctx, id, psql.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
}

// GetByUsername returns a user by username.
func (r *Repo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.getOne(ctx, username, psql.Select(userColumns...).From("users").Where(sq.Eq{"username": username}))
}

// GetByEmail returns a user by email address, compared case-insensitively.
func (r *Repo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, email, psql.Select(userColumns...).From("users").Where(sq.Expr("lower(email) = lower(?)", email)))
}

func (r *Repo) getOne(ctx context.Context, key any, stmt sq.Sqlizer) (domain.User, error) {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build user query: %w", err)
	}

	var row userRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			err = pgx.ErrNoRows
		}
		return domain.User{}, postgres.MapError(err, "user", key)
	}
	return row.toDomain(), nil
}
