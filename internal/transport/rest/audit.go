package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

type auditService interface {
	ListAll(ctx context.Context) ([]domain.AuditEntry, error)
	History(ctx context.Context, k domain.Kind, id int64) ([]domain.AuditEntry, error)
}

// AuditHandler serves the admin audit log.
type AuditHandler struct {
	svc auditService
	log *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc auditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, log: logger.With("handler", "audit")}
}

type auditEntryResponse struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	TargetID   int64     `json:"target_id"`
	TargetType string    `json:"target_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListAll handles GET /api/audit/audit-logs, newest first.
func (h *AuditHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListAll(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponses(entries))
}

// History handles GET /api/audit/{kind}/{id}/history.
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	k, ok := domain.KindByCollection(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.History(r.Context(), k, id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuditResponses(entries))
}

func toAuditResponses(entries []domain.AuditEntry) []auditEntryResponse {
	out := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = auditEntryResponse{
			ID:         e.ID,
			UserID:     e.ActorID,
			Username:   e.ActorName,
			Action:     e.Action,
			TargetID:   e.TargetID,
			TargetType: e.TargetKind.String(),
			Timestamp:  e.CreatedAt.UTC(),
		}
	}
	return out
}
