package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/internal/service/auth"
	"github.com/heartmarshall/regpulse-backend/internal/service/subscription"
)

type fakeContent struct {
	ListFunc         func(ctx context.Context, k domain.Kind) ([]domain.Record, error)
	GetFunc          func(ctx context.Context, k domain.Kind, id int64) (domain.Record, error)
	SearchFunc       func(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error)
	FilterValuesFunc func(ctx context.Context, k domain.Kind, field string) ([]string, error)
	CreateFunc       func(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error)
	UpdateFunc       func(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error)
	DeleteFunc       func(ctx context.Context, k domain.Kind, id int64) error
}

func (f *fakeContent) List(ctx context.Context, k domain.Kind) ([]domain.Record, error) {
	return f.ListFunc(ctx, k)
}

func (f *fakeContent) Get(ctx context.Context, k domain.Kind, id int64) (domain.Record, error) {
	return f.GetFunc(ctx, k, id)
}

func (f *fakeContent) Search(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error) {
	return f.SearchFunc(ctx, k, c)
}

func (f *fakeContent) FilterValues(ctx context.Context, k domain.Kind, field string) ([]string, error) {
	return f.FilterValuesFunc(ctx, k, field)
}

func (f *fakeContent) Create(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error) {
	return f.CreateFunc(ctx, k, fields)
}

func (f *fakeContent) Update(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error) {
	return f.UpdateFunc(ctx, k, id, patch)
}

func (f *fakeContent) Delete(ctx context.Context, k domain.Kind, id int64) error {
	return f.DeleteFunc(ctx, k, id)
}

type fakeAudit struct {
	ListAllFunc func(ctx context.Context) ([]domain.AuditEntry, error)
	HistoryFunc func(ctx context.Context, k domain.Kind, id int64) ([]domain.AuditEntry, error)
}

func (f *fakeAudit) ListAll(ctx context.Context) ([]domain.AuditEntry, error) {
	return f.ListAllFunc(ctx)
}

func (f *fakeAudit) History(ctx context.Context, k domain.Kind, id int64) ([]domain.AuditEntry, error) {
	return f.HistoryFunc(ctx, k, id)
}

type fakeSubscriptions struct {
	GetFunc         func(ctx context.Context) (domain.SubscriptionPreference, error)
	SubscribeFunc   func(ctx context.Context, input subscription.SubscribeInput) (domain.SubscriptionPreference, error)
	UnsubscribeFunc func(ctx context.Context) error
}

func (f *fakeSubscriptions) Get(ctx context.Context) (domain.SubscriptionPreference, error) {
	return f.GetFunc(ctx)
}

func (f *fakeSubscriptions) Subscribe(ctx context.Context, input subscription.SubscribeInput) (domain.SubscriptionPreference, error) {
	return f.SubscribeFunc(ctx, input)
}

func (f *fakeSubscriptions) Unsubscribe(ctx context.Context) error {
	return f.UnsubscribeFunc(ctx)
}

type fakeAuth struct {
	RegisterFunc func(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error)
	LoginFunc    func(ctx context.Context, input auth.LoginInput) (*auth.AuthResult, error)
	MeFunc       func(ctx context.Context) (domain.User, error)
}

func (f *fakeAuth) Register(ctx context.Context, input auth.RegisterInput) (*auth.AuthResult, error) {
	return f.RegisterFunc(ctx, input)
}

func (f *fakeAuth) Login(ctx context.Context, input auth.LoginInput) (*auth.AuthResult, error) {
	return f.LoginFunc(ctx, input)
}

func (f *fakeAuth) Me(ctx context.Context) (domain.User, error) {
	return f.MeFunc(ctx)
}

type testServices struct {
	content *fakeContent
	audit   *fakeAudit
	subs    *fakeSubscriptions
	auth    *fakeAuth
}

func newTestRouter(svc testServices) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if svc.content == nil {
		svc.content = &fakeContent{}
	}
	if svc.audit == nil {
		svc.audit = &fakeAudit{}
	}
	if svc.subs == nil {
		svc.subs = &fakeSubscriptions{}
	}
	if svc.auth == nil {
		svc.auth = &fakeAuth{}
	}
	return NewRouter(Handlers{
		Auth:          NewAuthHandler(svc.auth, logger),
		Content:       NewContentHandler(svc.content, logger),
		Audit:         NewAuditHandler(svc.audit, logger),
		Notifications: NewNotificationHandler(svc.subs, logger),
		Health:        NewHealthHandler(&dbPingerMock{}, nil, "test"),
	})
}
