// Package content implements publishing of regulatory content: reads and
// searches for everyone, audited mutations for administrators.
package content

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type contentRepo interface {
	Create(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error)
	Update(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error)
	Delete(ctx context.Context, k domain.Kind, id int64) error
	GetByID(ctx context.Context, k domain.Kind, id int64) (domain.Record, error)
	ListAll(ctx context.Context, k domain.Kind) ([]domain.Record, error)
	Search(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error)
	DistinctValues(ctx context.Context, k domain.Kind, field string) ([]string, error)
}

type auditRecorder interface {
	Record(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
}

type outboxWriter interface {
	Enqueue(ctx context.Context, k domain.Kind, snap domain.Snapshot) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type filterCache interface {
	Get(ctx context.Context, k domain.Kind, field string) (values []string, gen int64, ok bool)
	Set(ctx context.Context, k domain.Kind, field string, gen int64, values []string)
	Invalidate(ctx context.Context, k domain.Kind)
}

// waker is signalled after a create commits so the outbox is drained promptly.
type waker interface {
	Wake()
}

type mutationRecorder interface {
	IncMutation(kind, action string)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the content business logic.
type Service struct {
	log     *slog.Logger
	records contentRepo
	audit   auditRecorder
	outbox  outboxWriter
	tx      txManager
	cache   filterCache
	worker  waker
	metrics mutationRecorder
}

// Deps groups the collaborators of the content service.
type Deps struct {
	Records contentRepo
	Audit   auditRecorder
	Outbox  outboxWriter
	Tx      txManager
	Cache   filterCache
	Worker  waker
	Metrics mutationRecorder
}

// NewService creates a new content service.
func NewService(logger *slog.Logger, deps Deps) *Service {
	return &Service{
		log:     logger.With("service", "content"),
		records: deps.Records,
		audit:   deps.Audit,
		outbox:  deps.Outbox,
		tx:      deps.Tx,
		cache:   deps.Cache,
		worker:  deps.Worker,
		metrics: deps.Metrics,
	}
}

// ---------------------------------------------------------------------------
// Helpers (private)
// ---------------------------------------------------------------------------

func schemaOf(k domain.Kind) (domain.Schema, error) {
	s, ok := domain.SchemaFor(k)
	if !ok {
		return domain.Schema{}, domain.NewValidationError("kind", "unknown content kind")
	}
	return s, nil
}

// requireAdmin returns the actor when it may mutate content.
func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	if !actor.Role.IsAdmin() {
		return domain.Actor{}, domain.ErrForbidden
	}
	return actor, nil
}

// afterCommit runs the side effects of a committed mutation. None of them can
// fail the mutation.
func (s *Service) afterCommit(ctx context.Context, k domain.Kind, action domain.AuditAction) {
	if s.cache != nil {
		// The mutation is committed even if the request was cancelled meanwhile.
		s.cache.Invalidate(context.WithoutCancel(ctx), k)
	}
	if s.metrics != nil {
		s.metrics.IncMutation(k.String(), action.String())
	}
	if action == domain.AuditActionCreate && s.worker != nil {
		s.worker.Wake()
	}
}
