// Package audit implements the append-only audit log using PostgreSQL.
package audit

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new audit repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type entryRow struct {
	ID         int64     `db:"id"`
	ActorID    *int64    `db:"actor_id"`
	ActorName  string    `db:"actor_name"`
	Action     string    `db:"action"`
	TargetID   int64     `db:"target_id"`
	TargetKind string    `db:"target_kind"`
	CreatedAt  time.Time `db:"created_at"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Record appends one entry. The timestamp is assigned by the database.
func (r *Repo) Record(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	sql, args, err := psql.Insert("audit_logs").
		Columns("actor_id", "action", "target_id", "target_kind").
		Values(e.ActorID, e.Action, e.TargetID, e.TargetKind.String()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.AuditEntry{}, fmt.Errorf("build audit insert: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.db)
	if err := q.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		return domain.AuditEntry{}, postgres.MapError(err, "audit_entry", "")
	}
	return e, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListAll returns every entry, newest first, with the actor's username.
// Entries whose actor no longer exists carry domain.UnknownActorLabel.
func (r *Repo) ListAll(ctx context.Context) ([]domain.AuditEntry, error) {
	return r.list(ctx, selectEntries())
}

// ListByTarget returns the history of one record, newest first.
func (r *Repo) ListByTarget(ctx context.Context, k domain.Kind, targetID int64) ([]domain.AuditEntry, error) {
	return r.list(ctx, selectEntries().Where(sq.Eq{"a.target_kind": k.String(), "a.target_id": targetID}))
}

func selectEntries() sq.SelectBuilder {
	return psql.Select("a.id", "a.actor_id").
		Column(sq.Alias(sq.Expr("COALESCE(u.username, ?)", domain.UnknownActorLabel), "actor_name")).
		Columns("a.action", "a.target_id", "a.target_kind", "a.created_at").
		From("audit_logs a").
		LeftJoin("users u ON u.id = a.actor_id").
		OrderBy("a.created_at DESC", "a.id DESC")
}

func (r *Repo) list(ctx context.Context, stmt sq.SelectBuilder) ([]domain.AuditEntry, error) {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit select: %w", err)
	}

	var rows []entryRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "audit_entry", "")
	}

	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		e, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func toDomain(row entryRow) (domain.AuditEntry, error) {
	kind, ok := domain.ParseKind(row.TargetKind)
	if !ok {
		return domain.AuditEntry{}, fmt.Errorf("audit_entry %d: unknown target kind %q", row.ID, row.TargetKind)
	}
	return domain.AuditEntry{
		ID:         row.ID,
		ActorID:    row.ActorID,
		ActorName:  row.ActorName,
		Action:     row.Action,
		TargetID:   row.TargetID,
		TargetKind: kind,
		CreatedAt:  row.CreatedAt,
	}, nil
}
