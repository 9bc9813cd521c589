// Package subscription stores per-user notification preferences.
package subscription

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

// Repo provides subscription persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new subscription repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type preferenceRow struct {
	UserID          int64     `db:"user_id"`
	NotifyDocuments bool      `db:"notify_documents"`
	NotifyEvents    bool      `db:"notify_events"`
	NotifyNews      bool      `db:"notify_news"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Get returns the user's preference, or the all-false default when none is stored.
func (r *Repo) Get(ctx context.Context, userID int64) (domain.SubscriptionPreference, error) {
	sql, args, err := psql.Select("user_id", "notify_documents", "notify_events", "notify_news", "updated_at").
		From("subscriptions").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return domain.SubscriptionPreference{}, fmt.Errorf("build subscription select: %w", err)
	}

	var rows []preferenceRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, sql, args...); err != nil {
		return domain.SubscriptionPreference{}, postgres.MapError(err, "subscription", userID)
	}
	if len(rows) == 0 {
		return domain.DefaultSubscriptionPreference(userID), nil
	}
	return domain.SubscriptionPreference(rows[0]), nil
}

// Upsert creates or replaces the user's preference. The last write wins.
func (r *Repo) Upsert(ctx context.Context, p domain.SubscriptionPreference) (domain.SubscriptionPreference, error) {
	sql, args, err := psql.Insert("subscriptions").
		Columns("user_id", "notify_documents", "notify_events", "notify_news").
		Values(p.UserID, p.NotifyDocuments, p.NotifyEvents, p.NotifyNews).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			notify_documents = EXCLUDED.notify_documents,
			notify_events = EXCLUDED.notify_events,
			notify_news = EXCLUDED.notify_news,
			updated_at = now()
		RETURNING updated_at`).
		ToSql()
	if err != nil {
		return domain.SubscriptionPreference{}, fmt.Errorf("build subscription upsert: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.db)
	if err := q.QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt); err != nil {
		return domain.SubscriptionPreference{}, postgres.MapError(err, "subscription", p.UserID)
	}
	return p, nil
}

// Remove deletes the user's preference. Removing a missing preference is not an error.
func (r *Repo) Remove(ctx context.Context, userID int64) error {
	sql, args, err := psql.Delete("subscriptions").Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build subscription delete: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "subscription", userID)
	}
	return nil
}

// SubscribersFor returns every user opted in to kind k, ordered by user id.
func (r *Repo) SubscribersFor(ctx context.Context, k domain.Kind) ([]domain.Subscriber, error) {
	s, ok := domain.SchemaFor(k)
	if !ok {
		return nil, domain.NewValidationError("kind", "unknown content kind")
	}

	sql, args, err := psql.Select("u.id AS user_id", "u.email").
		From("subscriptions s").
		Join("users u ON u.id = s.user_id").
		Where(sq.Eq{"s." + s.SubscriptionFlag: true}).
		OrderBy("u.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscribers select: %w", err)
	}

	var subs []domain.Subscriber
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &subs, sql, args...); err != nil {
		return nil, postgres.MapError(err, "subscribers", k)
	}
	return subs, nil
}
