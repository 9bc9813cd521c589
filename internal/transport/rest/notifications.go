package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/internal/service/subscription"
)

type subscriptionService interface {
	Get(ctx context.Context) (domain.SubscriptionPreference, error)
	Subscribe(ctx context.Context, input subscription.SubscribeInput) (domain.SubscriptionPreference, error)
	Unsubscribe(ctx context.Context) error
}

// NotificationHandler serves the caller's notification preferences.
type NotificationHandler struct {
	svc subscriptionService
	log *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(svc subscriptionService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, log: logger.With("handler", "notifications")}
}

type preferenceBody struct {
	NotifyDocuments bool `json:"notify_documents"`
	NotifyEvents    bool `json:"notify_events"`
	NotifyNews      bool `json:"notify_news"`
}

// Get handles GET /api/notifications.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	pref, err := h.svc.Get(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preferenceBody{
		NotifyDocuments: pref.NotifyDocuments,
		NotifyEvents:    pref.NotifyEvents,
		NotifyNews:      pref.NotifyNews,
	})
}

// Subscribe handles POST /api/notifications/subscribe. Missing flags are false.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req preferenceBody
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := h.svc.Subscribe(r.Context(), subscription.SubscribeInput{
		Documents: req.NotifyDocuments,
		Events:    req.NotifyEvents,
		News:      req.NotifyNews,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Notification preferences updated")
}

// Unsubscribe handles POST /api/notifications/unsubscribe.
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unsubscribe(r.Context()); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Unsubscribed from notifications")
}
