package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/heartmarshall/regpulse-backend/internal/domain"
)

type contentService interface {
	List(ctx context.Context, k domain.Kind) ([]domain.Record, error)
	Get(ctx context.Context, k domain.Kind, id int64) (domain.Record, error)
	Search(ctx context.Context, k domain.Kind, c domain.SearchCriteria) ([]domain.Record, error)
	FilterValues(ctx context.Context, k domain.Kind, field string) ([]string, error)
	Create(ctx context.Context, k domain.Kind, fields map[string]string) (domain.Record, error)
	Update(ctx context.Context, k domain.Kind, id int64, patch map[string]string) (domain.Record, error)
	Delete(ctx context.Context, k domain.Kind, id int64) error
}

// ContentHandler serves documents, events and news under /api/{kind}.
type ContentHandler struct {
	svc contentService
	log *slog.Logger
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(svc contentService, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{svc: svc, log: logger.With("handler", "content")}
}

// List handles GET /api/{kind}/all.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}
	records, err := h.svc.List(r.Context(), s.Kind)
	if err != nil {
		h.handleError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(s, records))
}

// Search handles GET /api/{kind}/search?keyword=...&category=...&type=...
// Only the kind's filterable fields are read from the query string.
func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	criteria := domain.SearchCriteria{
		Keyword: q.Get("keyword"),
		Filters: make(map[string]string, len(s.Filterable)),
	}
	for _, field := range s.Filterable {
		if v := q.Get(field); v != "" {
			criteria.Filters[field] = v
		}
	}

	records, err := h.svc.Search(r.Context(), s.Kind, criteria)
	if err != nil {
		h.handleError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(s, records))
}

// Filters handles GET /api/{kind}/filters/{field}.
func (h *ContentHandler) Filters(w http.ResponseWriter, r *http.Request) {
	h.filterValues(w, r, r.PathValue("field"))
}

// Categories handles GET /api/{kind}/categories.
func (h *ContentHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.filterValues(w, r, "category")
}

// Types handles GET /api/{kind}/types.
func (h *ContentHandler) Types(w http.ResponseWriter, r *http.Request) {
	h.filterValues(w, r, "type")
}

// filterValues responds with [{"<field>": value}, ...].
func (h *ContentHandler) filterValues(w http.ResponseWriter, r *http.Request, field string) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}
	values, err := h.svc.FilterValues(r.Context(), s.Kind, field)
	if err != nil {
		h.handleError(w, r, s, err)
		return
	}

	resp := make([]map[string]string, len(values))
	for i, v := range values {
		resp[i] = map[string]string{field: v}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/{kind}/{id}.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Get(r.Context(), s.Kind, id)
	if err != nil {
		h.handleError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(s, rec))
}

// Create handles POST /api/{kind}. JSON nulls are treated as absent fields.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}
	var body map[string]*string
	if !decodeJSON(w, r, &body) {
		return
	}

	fields := make(map[string]string, len(body))
	for name, v := range body {
		if v != nil {
			fields[name] = *v
		}
	}

	rec, err := h.svc.Create(r.Context(), s.Kind, fields)
	if err != nil {
		h.handleError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordResponse(s, rec))
}

// Update handles PUT /api/{kind}/{id}. Omitted fields keep their value; a
// JSON null or empty string clears the field.
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var body map[string]*string
	if !decodeJSON(w, r, &body) {
		return
	}

	patch := make(map[string]string, len(body))
	for name, v := range body {
		if v == nil {
			patch[name] = ""
			continue
		}
		patch[name] = *v
	}

	rec, err := h.svc.Update(r.Context(), s.Kind, id, patch)
	if err != nil {
		h.handleError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(s, rec))
}

// Delete handles DELETE /api/{kind}/{id}.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schema(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), s.Kind, id); err != nil {
		h.handleError(w, r, s, err)
		return
	}
	writeMessage(w, http.StatusOK, capitalize(s.Noun)+" deleted successfully")
}

func (h *ContentHandler) schema(w http.ResponseWriter, r *http.Request) (domain.Schema, bool) {
	k, ok := domain.KindByCollection(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return domain.Schema{}, false
	}
	return domain.MustSchema(k), true
}

func (h *ContentHandler) handleError(w http.ResponseWriter, r *http.Request, s domain.Schema, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, capitalize(s.Noun)+" not found")
		return
	}
	handleError(h.log, w, r, err)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// toRecordResponse flattens a record into {"id", <fields>, "created_at", "updated_at"}.
// Every schema field is present; NULL fields are encoded as null.
func toRecordResponse(s domain.Schema, rec domain.Record) map[string]any {
	out := make(map[string]any, len(s.Fields)+3)
	out["id"] = rec.ID
	for _, f := range s.Fields {
		if v, ok := rec.Fields[f.Name]; ok {
			out[f.Name] = v
		} else {
			out[f.Name] = nil
		}
	}
	out["created_at"] = rec.CreatedAt.UTC().Format(time.RFC3339)
	out["updated_at"] = rec.UpdatedAt.UTC().Format(time.RFC3339)
	return out
}

func toRecordResponses(s domain.Schema, records []domain.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, rec := range records {
		out[i] = toRecordResponse(s, rec)
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
