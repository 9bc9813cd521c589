package content

import (
	"context"
	"fmt"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// List returns every record of kind k ordered by title.
func (s *Service) List(ctx context.Context, k domain.Kind) ([]domain.Record, error) {
	if _, err := schemaOf(k); err != nil {
		return nil, err
	}
	records, err := s.records.ListAll(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", k, err)
	}
	return records, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, k domain.Kind, id int64) (domain.Record, error) {
	if _, err := schemaOf(k); err != nil {
		return domain.Record{}, err
	}
	rec, err := s.records.GetByID(ctx, k, id)
	if err != nil {
		return domain.Record{}, fmt.Errorf("get %s: %w", k, err)
	}
	return rec, nil
}

// Search returns at most domain.SearchResultLimit records matching c.
func (s *Service) Search(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error) {
	if _, err := schemaOf(k); err != nil {
		return nil, err
	}
	records, err := s.records.Search(ctx, k, c)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", k, err)
	}
	return records, nil
}

// FilterValues returns the distinct values of a filterable field, used to
// populate category and type pickers. Results are cached when a cache is
// configured.
func (s *Service) FilterValues(ctx context.Context, k domain.Kind, field string) ([]string, error) {
	sc, err := schemaOf(k)
	if err != nil {
		return nil, err
	}
	if !sc.IsFilterable(field) {
		return nil, domain.NewValidationError("field", fmt.Sprintf("%s cannot be filtered by %q", sc.Noun, field))
	}

	gen := int64(-1)
	if s.cache != nil {
		var values []string
		var ok bool
		if values, gen, ok = s.cache.Get(ctx, k, field); ok {
			return values, nil
		}
	}

	values, err := s.records.DistinctValues(ctx, k, field)
	if err != nil {
		return nil, fmt.Errorf("distinct %s.%s: %w", k, field, err)
	}

	if s.cache != nil {
		// A mutation committed since Get moves the generation on, so this
		// fill is never served.
		s.cache.Set(ctx, k, field, gen, values)
	}
	return values, nil
}
