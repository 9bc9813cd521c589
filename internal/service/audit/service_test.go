package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/pkg/ctxutil"
)

type mockAuditRepo struct {
	listAllCalls int
	targets      []int64

	entries []domain.AuditEntry
	err     error
}

func (m *mockAuditRepo) ListAll(ctx context.Context) ([]domain.AuditEntry, error) {
	m.listAllCalls++
	return m.entries, m.err
}

func (m *mockAuditRepo) ListByTarget(ctx context.Context, k domain.Kind, targetID int64) ([]domain.AuditEntry, error) {
	m.targets = append(m.targets, targetID)
	return m.entries, m.err
}

func withRole(role domain.UserRole) context.Context {
	return ctxutil.WithActor(context.Background(), domain.Actor{ID: 1, Username: "u", Role: role})
}

func TestService_ListAll_Admin(t *testing.T) {
	t.Parallel()

	repo := &mockAuditRepo{entries: []domain.AuditEntry{
		{ID: 2, Action: "Updated document", ActorName: "root"},
		{ID: 1, Action: "Created document", ActorName: domain.UnknownActorLabel},
	}}
	svc := NewService(slog.Default(), repo)

	entries, err := svc.ListAll(withRole(domain.UserRoleAdmin))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, repo.listAllCalls)
}

func TestService_ListAll_AccessDenied(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{"anonymous", context.Background(), domain.ErrUnauthorized},
		{"regular user", withRole(domain.UserRoleUser), domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockAuditRepo{}
			svc := NewService(slog.Default(), repo)

			_, err := svc.ListAll(tt.ctx)
			assert.ErrorIs(t, err, tt.want)

			_, err = svc.History(tt.ctx, domain.KindDocument, 1)
			assert.ErrorIs(t, err, tt.want)

			assert.Zero(t, repo.listAllCalls)
			assert.Empty(t, repo.targets)
		})
	}
}

func TestService_History(t *testing.T) {
	t.Parallel()

	repo := &mockAuditRepo{entries: []domain.AuditEntry{{ID: 5, TargetID: 9, TargetKind: domain.KindNews}}}
	svc := NewService(slog.Default(), repo)

	entries, err := svc.History(withRole(domain.UserRoleAdmin), domain.KindNews, 9)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, []int64{9}, repo.targets)

	_, err = svc.History(withRole(domain.UserRoleAdmin), domain.Kind(0), 9)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_ListAll_RepoError(t *testing.T) {
	t.Parallel()

	repoErr := errors.New("boom")
	svc := NewService(slog.Default(), &mockAuditRepo{err: repoErr})

	_, err := svc.ListAll(withRole(domain.UserRoleAdmin))
	assert.ErrorIs(t, err, repoErr)
}
