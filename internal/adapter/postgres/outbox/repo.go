// Package outbox stores pending "record created" notifications. Rows are
// written inside the mutation transaction and drained by the notify worker.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	postgres "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides outbox persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new outbox repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type messageRow struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"kind"`
	Payload   []byte    `db:"payload"`
	Attempts  int       `db:"attempts"`
	LastError *string   `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
}

// Enqueue stores a notification for a newly created record.
func (r *Repo) Enqueue(ctx context.Context, k domain.Kind, snap domain.Snapshot) (int64, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("outbox marshal snapshot: %w", err)
	}

	sql, args, err := psql.Insert("notification_outbox").
		Columns("kind", "record_id", "payload").
		Values(k.String(), snap.RecordID, payload).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build outbox insert: %w", err)
	}

	var id int64
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, postgres.MapError(err, "outbox_message", "")
	}
	return id, nil
}

// Claim leases up to limit undispatched messages for lease. Claimed rows are
// invisible to other claimers until the lease expires, so several workers can
// drain the same table.
func (r *Repo) Claim(ctx context.Context, limit int, lease time.Duration) ([]domain.OutboxMessage, error) {
	pending := psql.Select("id").
		From("notification_outbox").
		Where("dispatched_at IS NULL").
		Where(sq.Or{sq.Eq{"locked_until": nil}, sq.Expr("locked_until < now()")}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")

	sql, args, err := psql.Update("notification_outbox").
		Set("locked_until", sq.Expr("now() + ?::interval", interval(lease))).
		Where(sq.Expr("id IN (?)", pending)).
		Suffix("RETURNING id, kind, payload, attempts, last_error, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outbox claim: %w", err)
	}

	var rows []messageRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "outbox_message", "")
	}

	msgs := make([]domain.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		msg, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// MarkDispatched closes a message. lastErr records why a message was given up on.
func (r *Repo) MarkDispatched(ctx context.Context, id int64, lastErr string) error {
	stmt := psql.Update("notification_outbox").
		Set("dispatched_at", sq.Expr("now()")).
		Set("locked_until", nil).
		Where(sq.Eq{"id": id})
	if lastErr != "" {
		stmt = stmt.Set("last_error", lastErr)
	}
	return r.exec(ctx, id, stmt)
}

// Annotate records a delivery summary on an already dispatched message.
func (r *Repo) Annotate(ctx context.Context, id int64, lastErr string) error {
	return r.exec(ctx, id, psql.Update("notification_outbox").
		Set("last_error", lastErr).
		Where(sq.Eq{"id": id}))
}

// Release returns a message to the queue after a failed attempt. The message
// stays invisible to Claim for retryAfter.
func (r *Repo) Release(ctx context.Context, id int64, lastErr string, retryAfter time.Duration) error {
	return r.exec(ctx, id, psql.Update("notification_outbox").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", lastErr).
		Set("locked_until", sq.Expr("now() + ?::interval", interval(retryAfter))).
		Where(sq.Eq{"id": id}))
}

// PruneDispatched deletes messages dispatched more than olderThan ago.
func (r *Repo) PruneDispatched(ctx context.Context, olderThan time.Duration) (int64, error) {
	sql, args, err := psql.Delete("notification_outbox").
		Where("dispatched_at IS NOT NULL").
		Where(sq.Lt{"dispatched_at": time.Now().Add(-olderThan)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build outbox prune: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "outbox_message", "")
	}
	return tag.RowsAffected(), nil
}

func interval(d time.Duration) string {
	return fmt.Sprintf("%d milliseconds", d.Milliseconds())
}

func (r *Repo) exec(ctx context.Context, id int64, stmt sq.UpdateBuilder) error {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("build outbox update: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "outbox_message", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox_message %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (row messageRow) toDomain() (domain.OutboxMessage, error) {
	kind, ok := domain.ParseKind(row.Kind)
	if !ok {
		return domain.OutboxMessage{}, fmt.Errorf("outbox_message %d: unknown kind %q", row.ID, row.Kind)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("outbox_message %d: decode payload: %w", row.ID, err)
	}

	msg := domain.OutboxMessage{
		ID:        row.ID,
		Kind:      kind,
		Snapshot:  snap,
		Attempts:  row.Attempts,
		CreatedAt: row.CreatedAt,
	}
	if row.LastError != nil {
		msg.LastError = *row.LastError
	}
	return msg, nil
}
