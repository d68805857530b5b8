package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/notifica-api/internal/application/audit"
	"github.com/notifica-api/internal/domain"
	"github.com/notifica-api/internal/transport/http/middleware"
)

// AuditHandler exposes the audit trail read path.
type AuditHandler struct {
	svc audit.Service
}

func NewAuditHandler(svc audit.Service) *AuditHandler { return &AuditHandler{svc: svc} }

// List returns audit entries in append order. Without an explicit entity
// filter it returns the caller's own actions.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	f := domain.AuditFilter{
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if f.EntityType == "" || f.EntityID == "" {
		f.EntityType, f.EntityID = "", ""
		f.ActorID = claims.UserID
	}
	if v := q.Get("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'from' timestamp")
			return
		}
		f.From = &ts
	}
	if v := q.Get("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'to' timestamp")
			return
		}
		f.To = &ts
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		f.Limit = v
	} else {
		f.Limit = 100
	}

	entries, err := h.svc.List(r.Context(), f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Verify recomputes a subject's hash chain so an operator can prove the
// stored trail has not been edited after the fact.
func (h *AuditHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ClaimsFromContext(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	entityType, entityID := q.Get("entity_type"), q.Get("entity_id")
	if entityType == "" || entityID == "" {
		writeError(w, http.StatusBadRequest, "entity_type and entity_id are required")
		return
	}

	idx, err := h.svc.VerifyEntity(r.Context(), entityType, entityID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChainEnvelope{Intact: idx < 0, CorruptIndex: idx})
}
