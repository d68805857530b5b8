package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/notifica-api/internal/application/audit"
	"github.com/notifica-api/internal/domain"
	"github.com/notifica-api/internal/pkg/clock"
	"github.com/notifica-api/internal/pkg/fingerprint"
	"github.com/notifica-api/internal/pkg/id"
	"github.com/notifica-api/internal/pkg/validate"
)

// Repository is the minimal interface the service requires from the
// notification store.
type Repository interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, limit int32) ([]domain.Notification, error)
	UpdateIfStatus(ctx context.Context, notificationID string, expected domain.Status, updates map[string]interface{}) error
	CountsByUser(ctx context.Context, userID string) (*domain.StatusCounts, error)
}

// Dispatcher runs the delivery orchestration for a notification already in
// `sending`. Immediate sends hand off to it asynchronously; the scheduler
// calls it inline.
type Dispatcher interface {
	Dispatch(ctx context.Context, notificationID string)
}

// CertificateStore resolves download URLs for dispatch certificates.
type CertificateStore interface {
	PresignedCertificateURL(ctx context.Context, notificationID string, ttl time.Duration) (string, error)
}

// Service owns the notification lifecycle up to the point of dispatch:
// creation, guarded edits, the promotion into `sending`, and the read
// receipt. Every state change is appended to the audit trail before the
// operation reports success.
type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateNotificationRequest, meta domain.ClientMeta) (*domain.Notification, error)
	Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error)
	List(ctx context.Context, userID string, limit int32) ([]domain.Notification, error)
	Stats(ctx context.Context, userID string) (*domain.StatusCounts, error)
	Update(ctx context.Context, notificationID, userID string, req domain.EditNotificationRequest, meta domain.ClientMeta) (*domain.Notification, error)
	Send(ctx context.Context, notificationID, userID string, meta domain.ClientMeta) error
	BeginDispatch(ctx context.Context, n *domain.Notification, actor string, meta domain.ClientMeta) error
	RecordReadReceipt(ctx context.Context, notificationID string, t domain.ReadTelemetry) error
	CertificateURL(ctx context.Context, notificationID, userID string, ttl time.Duration) (string, error)
}

type service struct {
	repo       Repository
	audit      audit.Service
	dispatcher Dispatcher
	certs      CertificateStore
	clock      clock.Clock
}

func NewService(repo Repository, auditSvc audit.Service, dispatcher Dispatcher, certs CertificateStore, clk clock.Clock) Service {
	return &service{repo: repo, audit: auditSvc, dispatcher: dispatcher, certs: certs, clock: clk}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateNotificationRequest, meta domain.ClientMeta) (*domain.Notification, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	level := domain.CertificationLevel(req.CertificationLevel)
	if req.CertificationLevel == "" {
		level = domain.LevelSimple
	}

	now := s.clock.Now().UTC()
	status := domain.StatusDraft
	var scheduledFor *time.Time
	if req.ScheduledFor != nil {
		if !req.ScheduledFor.After(now) {
			return nil, fmt.Errorf("scheduled_for must be in the future: %w", domain.ErrBadRequest)
		}
		// Stored normalized to UTC: the due-time index compares the
		// persisted string against a UTC bound, so a client-supplied
		// offset must never reach the store.
		t := req.ScheduledFor.UTC()
		scheduledFor = &t
		status = domain.StatusScheduled
	}

	n := &domain.Notification{
		NotificationID:     id.New(),
		UserID:             userID,
		RecipientName:      req.RecipientName,
		RecipientEmail:     req.RecipientEmail,
		RecipientPhone:     req.RecipientPhone,
		RecipientAddress:   req.RecipientAddress,
		Subject:            req.Subject,
		Content:            req.Content,
		CertificationLevel: level,
		DocumentHash:       fingerprint.Hash([]byte(req.Content)),
		Status:             status,
		ScheduledFor:       scheduledFor,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Put(ctx, n); err != nil {
		return nil, fmt.Errorf("store notification: %w", err)
	}

	if err := s.audit.Append(ctx, audit.Record{
		ActorID:    userID,
		Action:     domain.ActionNotificationCreate,
		EntityType: domain.EntityNotification,
		EntityID:   n.NotificationID,
		Details:    map[string]interface{}{"status": n.Status, "certification_level": n.CertificationLevel, "document_hash": n.DocumentHash},
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) Get(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrForbidden)
	}
	return n, nil
}

func (s *service) List(ctx context.Context, userID string, limit int32) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *service) Stats(ctx context.Context, userID string) (*domain.StatusCounts, error) {
	return s.repo.CountsByUser(ctx, userID)
}

func (s *service) Update(ctx context.Context, notificationID, userID string, req domain.EditNotificationRequest, meta domain.ClientMeta) (*domain.Notification, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	n, err := s.Get(ctx, notificationID, userID)
	if err != nil {
		return nil, err
	}
	if !n.Status.Editable() {
		return nil, fmt.Errorf("notification %s is %s and can no longer be edited: %w",
			notificationID, n.Status, domain.ErrStateViolation)
	}

	updates := map[string]interface{}{}
	if req.RecipientName != nil {
		updates["recipient_name"] = *req.RecipientName
	}
	if req.RecipientEmail != nil {
		updates["recipient_email"] = *req.RecipientEmail
	}
	if req.RecipientPhone != nil {
		updates["recipient_phone"] = *req.RecipientPhone
	}
	if req.RecipientAddress != nil {
		updates["recipient_address"] = *req.RecipientAddress
	}
	if req.Subject != nil {
		updates["subject"] = *req.Subject
	}
	if req.Content != nil {
		// Content changed while still editable: the fingerprint follows it.
		updates["content"] = *req.Content
		updates["document_hash"] = fingerprint.Hash([]byte(*req.Content))
	}

	newStatus := n.Status
	if req.ScheduledFor != nil {
		if !req.ScheduledFor.After(s.clock.Now().UTC()) {
			return nil, fmt.Errorf("scheduled_for must be in the future: %w", domain.ErrBadRequest)
		}
		updates["scheduled_for"] = req.ScheduledFor.UTC()
		newStatus = domain.StatusScheduled
	}
	if !n.Status.CanTransitionTo(newStatus) {
		return nil, domain.TransitionError(n.Status, newStatus)
	}
	updates["status"] = newStatus

	if len(updates) == 1 && req.ScheduledFor == nil {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadRequest)
	}

	// Conditional on the status observed above: a concurrent promotion to
	// `sending` makes this edit lose cleanly instead of clobbering it.
	if err := s.repo.UpdateIfStatus(ctx, notificationID, n.Status, updates); err != nil {
		return nil, err
	}

	if err := s.audit.Append(ctx, audit.Record{
		ActorID:    userID,
		Action:     domain.ActionNotificationUpdate,
		EntityType: domain.EntityNotification,
		EntityID:   notificationID,
		Details:    req,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, notificationID)
}

// Send is the immediate-send trigger. It shares the promotion path with the
// scheduler's due-time trigger; only the actor differs.
func (s *service) Send(ctx context.Context, notificationID, userID string, meta domain.ClientMeta) error {
	n, err := s.Get(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if err := s.BeginDispatch(ctx, n, userID, meta); err != nil {
		return err
	}
	// Callers cannot abort a dispatch in flight; the orchestrator's own
	// timeout budget is the only cancellation path.
	go s.dispatcher.Dispatch(context.Background(), n.NotificationID)
	return nil
}

// BeginDispatch promotes a notification into `sending` with a compare-and-swap
// on its current status and audits the promotion. Called for both triggers:
// an explicit send request and a due schedule.
func (s *service) BeginDispatch(ctx context.Context, n *domain.Notification, actor string, meta domain.ClientMeta) error {
	if !n.Status.CanTransitionTo(domain.StatusSending) {
		return domain.TransitionError(n.Status, domain.StatusSending)
	}
	if err := s.repo.UpdateIfStatus(ctx, n.NotificationID, n.Status, map[string]interface{}{
		"status": domain.StatusSending,
	}); err != nil {
		return err
	}
	return s.audit.Append(ctx, audit.Record{
		ActorID:    actor,
		Action:     domain.ActionNotificationSend,
		EntityType: domain.EntityNotification,
		EntityID:   n.NotificationID,
		Details:    map[string]interface{}{"from": n.Status, "certification_level": n.CertificationLevel},
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
}

// RecordReadReceipt moves a sent notification to `read` and captures the
// recipient telemetry. Write-once: a second receipt loses the status CAS and
// surfaces a state violation instead of overwriting the first.
func (s *service) RecordReadReceipt(ctx context.Context, notificationID string, t domain.ReadTelemetry) error {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if !n.Status.CanTransitionTo(domain.StatusRead) {
		return domain.TransitionError(n.Status, domain.StatusRead)
	}
	readAt := s.clock.Now().UTC()
	if err := s.repo.UpdateIfStatus(ctx, notificationID, domain.StatusSent, map[string]interface{}{
		"status":          domain.StatusRead,
		"read_at":         readAt,
		"read_ip":         t.IP,
		"read_user_agent": t.UserAgent,
		"read_location":   t.Location,
	}); err != nil {
		return err
	}
	return s.audit.Append(ctx, audit.Record{
		ActorID:    domain.ActorSystem,
		Action:     domain.ActionNotificationRead,
		EntityType: domain.EntityNotification,
		EntityID:   notificationID,
		Details:    map[string]interface{}{"read_at": readAt, "location": t.Location},
		IP:         t.IP,
		UserAgent:  t.UserAgent,
	})
}

func (s *service) CertificateURL(ctx context.Context, notificationID, userID string, ttl time.Duration) (string, error) {
	n, err := s.Get(ctx, notificationID, userID)
	if err != nil {
		return "", err
	}
	if n.CertificateURL == "" {
		return "", fmt.Errorf("notification %s has no certificate yet: %w", notificationID, domain.ErrNotFound)
	}
	return s.certs.PresignedCertificateURL(ctx, notificationID, ttl)
}
