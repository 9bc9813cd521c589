// Package subscription manages a user's notification preferences.
package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/pkg/ctxutil"
)

type subscriptionRepo interface {
	Get(ctx context.Context, userID int64) (domain.SubscriptionPreference, error)
	Upsert(ctx context.Context, p domain.SubscriptionPreference) (domain.SubscriptionPreference, error)
	Remove(ctx context.Context, userID int64) error
}

// Service implements subscription management for the authenticated user.
type Service struct {
	log  *slog.Logger
	subs subscriptionRepo
}

// NewService creates a new subscription service.
func NewService(logger *slog.Logger, subs subscriptionRepo) *Service {
	return &Service{
		log:  logger.With("service", "subscription"),
		subs: subs,
	}
}

// SubscribeInput selects the kinds the user wants to hear about.
type SubscribeInput struct {
	Documents bool
	Events    bool
	News      bool
}

// Get returns the caller's preference; all-false when none is stored.
func (s *Service) Get(ctx context.Context) (domain.SubscriptionPreference, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.SubscriptionPreference{}, domain.ErrUnauthorized
	}

	pref, err := s.subs.Get(ctx, userID)
	if err != nil {
		return domain.SubscriptionPreference{}, fmt.Errorf("get subscription: %w", err)
	}
	return pref, nil
}

// Subscribe replaces the caller's preference. Repeating the call with the same
// flags leaves the same state.
func (s *Service) Subscribe(ctx context.Context, input SubscribeInput) (domain.SubscriptionPreference, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.SubscriptionPreference{}, domain.ErrUnauthorized
	}

	pref, err := s.subs.Upsert(ctx, domain.SubscriptionPreference{
		UserID:          userID,
		NotifyDocuments: input.Documents,
		NotifyEvents:    input.Events,
		NotifyNews:      input.News,
	})
	if err != nil {
		return domain.SubscriptionPreference{}, fmt.Errorf("upsert subscription: %w", err)
	}

	s.log.InfoContext(ctx, "subscription updated",
		slog.Int64("user_id", userID),
		slog.Bool("documents", pref.NotifyDocuments),
		slog.Bool("events", pref.NotifyEvents),
		slog.Bool("news", pref.NotifyNews),
	)

	return pref, nil
}

// Unsubscribe drops the caller's preference. Unsubscribing without a stored
// preference succeeds.
func (s *Service) Unsubscribe(ctx context.Context) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := s.subs.Remove(ctx, userID); err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}

	s.log.InfoContext(ctx, "subscription removed", slog.Int64("user_id", userID))
	return nil
}
