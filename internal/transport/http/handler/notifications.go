package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/notifica-api/internal/application/notification"
	"github.com/notifica-api/internal/domain"
	"github.com/notifica-api/internal/transport/http/middleware"
)

// NotificationHandler handles the notification lifecycle endpoints.
type NotificationHandler struct {
	svc            notification.Service
	certificateTTL time.Duration
}

func NewNotificationHandler(svc notification.Service, certificateTTL time.Duration) *NotificationHandler {
	return &NotificationHandler{svc: svc, certificateTTL: certificateTTL}
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.svc.Create(r.Context(), claims.UserID, req, clientMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedEnvelope{ID: n.NotificationID, Notification: n})
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 50
	}
	notifications, err := h.svc.List(r.Context(), claims.UserID, int32(limit))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	counts, err := h.svc.Stats(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	n, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.EditNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), claims.UserID, req, clientMeta(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Send(r.Context(), chi.URLParam(r, "id"), claims.UserID, clientMeta(r)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageEnvelope{Message: "dispatch started"})
}

func (h *NotificationHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	url, err := h.svc.CertificateURL(r.Context(), chi.URLParam(r, "id"), claims.UserID, h.certificateTTL)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CertificateEnvelope{URL: url})
}

// TrackRead is the public read-receipt endpoint hit from the recipient side.
// It carries no auth; the notification id is the capability.
func (h *NotificationHandler) TrackRead(w http.ResponseWriter, r *http.Request) {
	telemetry := domain.ReadTelemetry{
		IP:        middleware.RealIP(r),
		UserAgent: r.UserAgent(),
		Location:  r.Header.Get("X-Geo-Location"),
	}
	if err := h.svc.RecordReadReceipt(r.Context(), chi.URLParam(r, "id"), telemetry); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "read receipt recorded"})
}

func clientMeta(r *http.Request) domain.ClientMeta {
	return domain.ClientMeta{
		IP:        middleware.RealIP(r),
		UserAgent: r.UserAgent(),
	}
}
