// Package query compiles search criteria for a content kind into a predicate.
// The same predicate is available as an in-memory matcher and as a SQL
// condition so both renditions stay in lockstep.
package query

import (
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// OrderBy is the result ordering shared by listing and search.
var OrderBy = []string{"title ASC", "id ASC"}

type filter struct {
	field string
	value string // lowercased
}

// Query is a compiled search over one content kind.
type Query struct {
	schema  domain.Schema
	keyword string // lowercased
	filters []filter
}

// Build compiles criteria against the schema. Blank keywords and blank filter
// values impose no constraint; filters on fields the kind does not declare as
// filterable are ignored. A non-blank keyword is matched as given, surrounding
// spaces included.
func Build(s domain.Schema, c domain.SearchCriteria) Query {
	q := Query{schema: s}
	if strings.TrimSpace(c.Keyword) != "" {
		q.keyword = strings.ToLower(c.Keyword)
	}

	fields := make([]string, 0, len(c.Filters))
	for field := range c.Filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		v := strings.TrimSpace(c.Filters[field])
		if v == "" || !s.IsFilterable(field) {
			continue
		}
		q.filters = append(q.filters, filter{field: field, value: strings.ToLower(v)})
	}
	return q
}

// Keyword returns the normalized keyword.
func (q Query) Keyword() string { return q.keyword }

// Filters returns the effective filters keyed by field.
func (q Query) Filters() map[string]string {
	out := make(map[string]string, len(q.filters))
	for _, f := range q.filters {
		out[f.field] = f.value
	}
	return out
}

// Unconstrained reports whether the query matches every record.
func (q Query) Unconstrained() bool {
	return q.keyword == "" && len(q.filters) == 0
}

// Match reports whether r satisfies the query. NULL fields match as "".
func (q Query) Match(r domain.Record) bool {
	if q.keyword != "" {
		hit := false
		for _, field := range q.schema.Searchable {
			if strings.Contains(strings.ToLower(r.Value(field)), q.keyword) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, f := range q.filters {
		if strings.ToLower(r.Value(f.field)) != f.value {
			return false
		}
	}
	return true
}

// Where renders the predicate as a SQL condition. Column names come from the
// schema, never from caller input.
func (q Query) Where() sq.Sqlizer {
	cond := sq.And{}
	if q.keyword != "" {
		pattern := "%" + escapeLike(q.keyword) + "%"
		keyword := sq.Or{}
		for _, field := range q.schema.Searchable {
			keyword = append(keyword, sq.Expr("LOWER(COALESCE("+field+", '')) LIKE ?", pattern))
		}
		cond = append(cond, keyword)
	}
	for _, f := range q.filters {
		cond = append(cond, sq.Expr("LOWER("+f.field+") = ?", f.value))
	}
	return cond
}

// escapeLike makes LIKE metacharacters in s match literally. PostgreSQL uses
// backslash as the default LIKE escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
