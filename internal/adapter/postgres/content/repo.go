// Package content implements the content repository for every kind in the
// schema registry. Table and column names come from the registry only.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	postgres "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/internal/query"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides content persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new content repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a record of kind k. Empty values are stored as NULL.
func (r *Repo) Create(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error) {
	s, err := schemaOf(k)
	if err != nil {
		return domain.Record{}, err
	}

	var (
		cols []string
		vals []any
	)
	for _, f := range s.Fields {
		v := fields[f.Name]
		if v == "" {
			continue
		}
		cols = append(cols, f.Name)
		vals = append(vals, columnValue(f, v))
	}

	stmt := psql.Insert(s.Table).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + strings.Join(selectColumns(s), ", "))

	rec, err := r.queryRecord(ctx, s, stmt)
	if err != nil {
		return domain.Record{}, postgres.MapError(err, s.Noun, "")
	}
	return rec, nil
}

// Update applies a partial update. Fields missing from patch are untouched;
// an empty value sets the column to NULL.
func (r *Repo) Update(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error) {
	s, err := schemaOf(k)
	if err != nil {
		return domain.Record{}, err
	}

	stmt := psql.Update(s.Table)
	for _, f := range s.Fields {
		v, ok := patch[f.Name]
		if !ok {
			continue
		}
		if v == "" {
			stmt = stmt.Set(f.Name, nil)
		} else {
			stmt = stmt.Set(f.Name, columnValue(f, v))
		}
	}
	stmt = stmt.
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(selectColumns(s), ", "))

	rec, err := r.queryRecord(ctx, s, stmt)
	if err != nil {
		return domain.Record{}, postgres.MapError(err, s.Noun, id)
	}
	return rec, nil
}

// Delete removes a record permanently.
func (r *Repo) Delete(ctx context.Context, k domain.Kind, id int64) error {
	s, err := schemaOf(k)
	if err != nil {
		return err
	}

	sql, args, err := psql.Delete(s.Table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", s.Noun, err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, s.Noun, id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, s.Noun, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns one record.
func (r *Repo) GetByID(ctx context.Context, k domain.Kind, id int64) (domain.Record, error) {
	s, err := schemaOf(k)
	if err != nil {
		return domain.Record{}, err
	}

	stmt := psql.Select(selectColumns(s)...).From(s.Table).Where(sq.Eq{"id": id})

	rec, err := r.queryRecord(ctx, s, stmt)
	if err != nil {
		return domain.Record{}, postgres.MapError(err, s.Noun, id)
	}
	return rec, nil
}

// ListAll returns every record of kind k ordered by title.
func (r *Repo) ListAll(ctx context.Context, k domain.Kind) ([]domain.Record, error) {
	s, err := schemaOf(k)
	if err != nil {
		return nil, err
	}

	stmt := psql.Select(selectColumns(s)...).From(s.Table).OrderBy(query.OrderBy...)
	return r.queryRecords(ctx, s, stmt)
}

// Search returns at most domain.SearchResultLimit records matching c,
// ordered like ListAll.
func (r *Repo) Search(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error) {
	s, err := schemaOf(k)
	if err != nil {
		return nil, err
	}

	stmt := psql.Select(selectColumns(s)...).
		From(s.Table).
		OrderBy(query.OrderBy...).
		Limit(uint64(domain.SearchResultLimit))

	if q := query.Build(s, c); !q.Unconstrained() {
		stmt = stmt.Where(q.Where())
	}
	return r.queryRecords(ctx, s, stmt)
}

// DistinctValues returns the sorted distinct non-empty values of a filterable field.
func (r *Repo) DistinctValues(ctx context.Context, k domain.Kind, field string) ([]string, error) {
	s, err := schemaOf(k)
	if err != nil {
		return nil, err
	}
	if !s.IsFilterable(field) {
		return nil, domain.NewValidationError("field", fmt.Sprintf("%s cannot be filtered by %q", s.Collection, field))
	}

	sql, args, err := psql.Select(field).
		Distinct().
		From(s.Table).
		Where(sq.And{sq.NotEq{field: nil}, sq.NotEq{field: ""}}).
		OrderBy(field + " ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build distinct %s.%s: %w", s.Table, field, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, s.Noun, "")
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, postgres.MapError(err, s.Noun, "")
	}
	return values, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func schemaOf(k domain.Kind) (domain.Schema, error) {
	s, ok := domain.SchemaFor(k)
	if !ok {
		return domain.Schema{}, domain.NewValidationError("kind", "unknown content kind")
	}
	return s, nil
}

// selectColumns lists id, the kind's fields and timestamps. Dates are rendered
// as YYYY-MM-DD text so every field scans into a string.
func selectColumns(s domain.Schema) []string {
	cols := make([]string, 0, len(s.Fields)+3)
	cols = append(cols, "id")
	for _, f := range s.Fields {
		if f.Type == domain.FieldDate {
			cols = append(cols, fmt.Sprintf("to_char(%s, 'YYYY-MM-DD') AS %s", f.Name, f.Name))
			continue
		}
		cols = append(cols, f.Name)
	}
	return append(cols, "created_at", "updated_at")
}

func columnValue(f domain.Field, v string) any {
	if f.Type == domain.FieldDate {
		return sq.Expr("?::date", v)
	}
	return v
}

func (r *Repo) queryRecord(ctx context.Context, s domain.Schema, stmt sq.Sqlizer) (domain.Record, error) {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return domain.Record{}, fmt.Errorf("build query: %w", err)
	}
	return scanRecord(postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...), s)
}

func (r *Repo) queryRecords(ctx context.Context, s domain.Schema, stmt sq.Sqlizer) ([]domain.Record, error) {
	sql, args, err := stmt.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, s.Noun, "")
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Record, error) {
		return scanRecord(row, s)
	})
	if err != nil {
		return nil, postgres.MapError(err, s.Noun, "")
	}
	return records, nil
}

func scanRecord(row pgx.Row, s domain.Schema) (domain.Record, error) {
	var (
		rec    = domain.Record{Kind: s.Kind}
		values = make([]pgtype.Text, len(s.Fields))
		dest   = make([]any, 0, len(s.Fields)+3)
	)
	dest = append(dest, &rec.ID)
	for i := range values {
		dest = append(dest, &values[i])
	}
	var createdAt, updatedAt time.Time
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		return domain.Record{}, err
	}

	rec.Fields = make(map[string]string, len(s.Fields))
	for i, f := range s.Fields {
		if values[i].Valid {
			rec.Fields[f.Name] = values[i].String
		}
	}
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return rec, nil
}
