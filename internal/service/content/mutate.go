package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

// Create publishes a new record. The record, its audit entry and the
// notification task are written in one transaction; subscribers are notified
// asynchronously after commit.
func (s *Service) Create(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.Record{}, err
	}

	sc, err := schemaOf(k)
	if err != nil {
		return domain.Record{}, err
	}

	fields = sc.Normalize(fields)
	if err := sc.ValidateCreate(fields); err != nil {
		return domain.Record{}, err
	}

	var rec domain.Record
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.records.Create(txCtx, k, fields)
		if err != nil {
			return fmt.Errorf("create %s: %w", sc.Noun, err)
		}

		if _, err := s.audit.Record(txCtx, domain.NewAuditEntry(actor, domain.AuditActionCreate, sc, rec.ID)); err != nil {
			return fmt.Errorf("audit: %w", err)
		}

		if _, err := s.outbox.Enqueue(txCtx, k, domain.SnapshotOf(sc, rec)); err != nil {
			return fmt.Errorf("enqueue notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}

	s.afterCommit(ctx, k, domain.AuditActionCreate)

	s.log.InfoContext(ctx, "content created",
		slog.String("kind", k.String()),
		slog.Int64("id", rec.ID),
		slog.Int64("actor_id", actor.ID),
	)

	return rec, nil
}

// Update applies a partial update. An explicitly empty value clears a field.
func (s *Service) Update(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return domain.Record{}, err
	}

	sc, err := schemaOf(k)
	if err != nil {
		return domain.Record{}, err
	}

	patch = sc.Normalize(patch)
	if err := sc.ValidatePatch(patch); err != nil {
		return domain.Record{}, err
	}

	var rec domain.Record
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		rec, err = s.records.Update(txCtx, k, id, patch)
		if err != nil {
			return fmt.Errorf("update %s: %w", sc.Noun, err)
		}

		if _, err := s.audit.Record(txCtx, domain.NewAuditEntry(actor, domain.AuditActionUpdate, sc, id)); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Record{}, err
	}

	s.afterCommit(ctx, k, domain.AuditActionUpdate)

	s.log.InfoContext(ctx, "content updated",
		slog.String("kind", k.String()),
		slog.Int64("id", id),
		slog.Int64("actor_id", actor.ID),
	)

	return rec, nil
}

// Delete removes a record permanently.
func (s *Service) Delete(ctx context.Context, k domain.Kind, id int64) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}

	sc, err := schemaOf(k)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.records.Delete(txCtx, k, id); err != nil {
			return fmt.Errorf("delete %s: %w", sc.Noun, err)
		}

		if _, err := s.audit.Record(txCtx, domain.NewAuditEntry(actor, domain.AuditActionDelete, sc, id)); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, k, domain.AuditActionDelete)

	s.log.InfoContext(ctx, "content deleted",
		slog.String("kind", k.String()),
		slog.Int64("id", id),
		slog.Int64("actor_id", actor.ID),
	)

	return nil
}
