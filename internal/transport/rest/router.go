package rest

import "net/http"

// Handlers groups every REST handler mounted by NewRouter.
type Handlers struct {
	Auth          *AuthHandler
	Content       *ContentHandler
	Audit         *AuditHandler
	Notifications *NotificationHandler
	Health        *HealthHandler
	Metrics       http.Handler // optional
}

// NewRouter registers all routes on a new ServeMux. {kind} is one of
// "documents", "events" or "news".
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("GET /api/auth/me", h.Auth.Me)

	mux.HandleFunc("GET /api/audit/audit-logs", h.Audit.ListAll)
	mux.HandleFunc("GET /api/audit/{kind}/{id}/history", h.Audit.History)

	mux.HandleFunc("GET /api/notifications", h.Notifications.Get)
	mux.HandleFunc("POST /api/notifications/subscribe", h.Notifications.Subscribe)
	mux.HandleFunc("POST /api/notifications/unsubscribe", h.Notifications.Unsubscribe)

	mux.HandleFunc("GET /api/{kind}/all", h.Content.List)
	mux.HandleFunc("GET /api/{kind}/search", h.Content.Search)
	mux.HandleFunc("GET /api/{kind}/filters/{field}", h.Content.Filters)
	mux.HandleFunc("GET /api/{kind}/categories", h.Content.Categories)
	mux.HandleFunc("GET /api/{kind}/types", h.Content.Types)
	mux.HandleFunc("GET /api/{kind}/{id}", h.Content.Get)
	mux.HandleFunc("POST /api/{kind}", h.Content.Create)
	mux.HandleFunc("PUT /api/{kind}/{id}", h.Content.Update)
	mux.HandleFunc("DELETE /api/{kind}/{id}", h.Content.Delete)

	return mux
}
