// Package audit exposes the mutation history to administrators.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/pkg/ctxutil"
)

type auditRepo interface {
	ListAll(ctx context.Context) ([]domain.AuditEntry, error)
	ListByTarget(ctx context.Context, k domain.Kind, targetID int64) ([]domain.AuditEntry, error)
}

// Service implements read access to the audit log.
type Service struct {
	log   *slog.Logger
	audit auditRepo
}

// NewService creates a new audit service.
func NewService(logger *slog.Logger, audit auditRepo) *Service {
	return &Service{
		log:   logger.With("service", "audit"),
		audit: audit,
	}
}

// ListAll returns every audit entry, newest first.
func (s *Service) ListAll(ctx context.Context) ([]domain.AuditEntry, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	entries, err := s.audit.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// History returns the audit entries of one record, newest first.
func (s *Service) History(ctx context.Context, k domain.Kind, id int64) ([]domain.AuditEntry, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !k.IsValid() {
		return nil, domain.NewValidationError("kind", "unknown content kind")
	}

	entries, err := s.audit.ListByTarget(ctx, k, id)
	if err != nil {
		return nil, fmt.Errorf("list audit entries for %s %d: %w", k, id, err)
	}
	return entries, nil
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if !actor.Role.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
