// Package dispatch orchestrates the external steps that turn a `sending`
// notification into evidence: trusted timestamp, delivery, certificate.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/notifica-api/internal/application/audit"
	"github.com/notifica-api/internal/certification"
	"github.com/notifica-api/internal/domain"
	"github.com/notifica-api/internal/infrastructure/tsa"
	"github.com/notifica-api/internal/pkg/clock"
	"github.com/sethvargo/go-retry"
)

// Repository is the slice of the notification store the orchestrator needs.
type Repository interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	UpdateIfStatus(ctx context.Context, notificationID string, expected domain.Status, updates map[string]interface{}) error
}

// Mailer delivers the notification content to the recipient mailbox.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// DeliverySender is the third-party delivery integration required by
// qualified-level notifications.
type DeliverySender interface {
	SendNotice(ctx context.Context, phone, message string) (string, error)
	ServiceName() string
}

// CertificateStore persists the rendered dispatch certificate.
type CertificateStore interface {
	PutCertificate(ctx context.Context, notificationID string, doc []byte) (string, error)
}

// Service drives a notification from `sending` to its terminal outcome.
type Service interface {
	Dispatch(ctx context.Context, notificationID string)
}

type service struct {
	repo     Repository
	audit    audit.Service
	tsa      tsa.Client
	mailer   Mailer
	delivery DeliverySender
	certs    CertificateStore
	clock    clock.Clock

	maxRetries uint64
	backoff    time.Duration
	timeout    time.Duration
}

// Options bundle the orchestrator's retry and timeout budget.
type Options struct {
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

func NewService(repo Repository, auditSvc audit.Service, tsaClient tsa.Client, mailer Mailer, delivery DeliverySender, certs CertificateStore, clk clock.Clock, opts Options) Service {
	return &service{
		repo:       repo,
		audit:      auditSvc,
		tsa:        tsaClient,
		mailer:     mailer,
		delivery:   delivery,
		certs:      certs,
		clock:      clk,
		maxRetries: uint64(opts.MaxRetries),
		backoff:    opts.Backoff,
		timeout:    opts.Timeout,
	}
}

// certificate is the evidence document uploaded on successful dispatch.
type certificate struct {
	NotificationID     string                    `json:"notification_id"`
	DocumentHash       string                    `json:"document_hash"`
	CertificationLevel domain.CertificationLevel `json:"certification_level"`
	RecipientName      string                    `json:"recipient_name"`
	RecipientEmail     string                    `json:"recipient_email"`
	TimestampToken     string                    `json:"timestamp_token,omitempty"`
	TimestampURL       string                    `json:"timestamp_url,omitempty"`
	ExternalServiceID  string                    `json:"external_service_id,omitempty"`
	SentAt             time.Time                 `json:"sent_at"`
}

// Dispatch runs the certification steps for a notification that was already
// promoted to `sending`. Anything not in `sending` is skipped — a duplicate
// invocation from an overlapping sweep is a no-op.
func (s *service) Dispatch(ctx context.Context, notificationID string) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		slog.Error("dispatch: load notification", "id", notificationID, "err", err)
		return
	}
	if n.Status != domain.StatusSending {
		slog.Debug("dispatch: skipping, not in sending", "id", notificationID, "status", n.Status)
		return
	}

	reqs, err := certification.RequirementsFor(n.CertificationLevel)
	if err != nil {
		s.fail(ctx, n, fmt.Sprintf("unknown certification level %q", n.CertificationLevel))
		return
	}

	updates := map[string]interface{}{}

	if reqs.NeedsTimestamp {
		var token *tsa.Token
		err := s.withBackoff(ctx, func(ctx context.Context) error {
			t, err := s.tsa.Timestamp(ctx, n.DocumentHash)
			if err == nil {
				token = t
			}
			return err
		})
		if err != nil {
			s.fail(ctx, n, fmt.Sprintf("trusted timestamp could not be obtained: %v", err))
			return
		}
		n.TimestampToken = token.Token
		n.TimestampURL = token.URL
		updates["timestamp_token"] = token.Token
		updates["timestamp_url"] = token.URL
	}

	if err := s.withBackoff(ctx, func(ctx context.Context) error {
		return s.mailer.SendEmail(n.RecipientEmail, n.Subject, n.Content)
	}); err != nil {
		s.fail(ctx, n, fmt.Sprintf("delivery to %s failed: %v", n.RecipientEmail, err))
		return
	}

	if reqs.NeedsExternalDelivery {
		if s.delivery == nil {
			s.fail(ctx, n, "third-party delivery integration is not configured")
			return
		}
		phone := ""
		if n.RecipientPhone != nil {
			phone = *n.RecipientPhone
		}
		notice := fmt.Sprintf("You have received a certified legal notification: %s", n.Subject)
		var externalID string
		err := s.withBackoff(ctx, func(ctx context.Context) error {
			eid, err := s.delivery.SendNotice(ctx, phone, notice)
			if err == nil {
				externalID = eid
			}
			return err
		})
		if err != nil {
			s.fail(ctx, n, fmt.Sprintf("third-party delivery failed: %v", err))
			return
		}
		n.ExternalServiceID = externalID
		updates["external_service_id"] = externalID
		updates["external_service_name"] = s.delivery.ServiceName()
	}

	sentAt := s.clock.Now().UTC()
	doc, err := json.Marshal(certificate{
		NotificationID:     n.NotificationID,
		DocumentHash:       n.DocumentHash,
		CertificationLevel: n.CertificationLevel,
		RecipientName:      n.RecipientName,
		RecipientEmail:     n.RecipientEmail,
		TimestampToken:     n.TimestampToken,
		TimestampURL:       n.TimestampURL,
		ExternalServiceID:  n.ExternalServiceID,
		SentAt:             sentAt,
	})
	if err != nil {
		s.fail(ctx, n, fmt.Sprintf("certificate rendering failed: %v", err))
		return
	}
	var certURL string
	if err := s.withBackoff(ctx, func(ctx context.Context) error {
		u, err := s.certs.PutCertificate(ctx, n.NotificationID, doc)
		if err != nil {
			// Object-store writes have no permanent failure mode worth
			// distinguishing here; retry until the budget runs out.
			return fmt.Errorf("%s: %w", err, domain.ErrCollaboratorTransient)
		}
		certURL = u
		return nil
	}); err != nil {
		s.fail(ctx, n, fmt.Sprintf("certificate upload failed: %v", err))
		return
	}

	updates["status"] = domain.StatusSent
	updates["sent_at"] = sentAt
	updates["certificate_url"] = certURL
	if err := s.repo.UpdateIfStatus(ctx, n.NotificationID, domain.StatusSending, updates); err != nil {
		slog.Error("dispatch: finalize sent", "id", n.NotificationID, "err", err)
		return
	}

	if err := s.audit.Append(ctx, audit.Record{
		ActorID:    domain.ActorSystem,
		Action:     domain.ActionNotificationSent,
		EntityType: domain.EntityNotification,
		EntityID:   n.NotificationID,
		Details: map[string]interface{}{
			"certificate_url":     certURL,
			"timestamp_token_set": n.TimestampToken != "",
			"external_service_id": n.ExternalServiceID,
			"sent_at":             sentAt,
		},
	}); err != nil {
		slog.Error("dispatch: audit sent", "id", n.NotificationID, "err", err)
	}
}

// withBackoff retries fn with bounded exponential backoff while it reports
// transient collaborator failures. Permanent failures abort immediately.
func (s *service) withBackoff(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrCollaboratorTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// fail moves the notification to its terminal failed state with a reason a
// human can act on, then audits the outcome. The dispatch budget may already
// be exhausted when this runs, so the outcome writes get their own deadline;
// otherwise a timed-out send would strand the row in `sending` with no
// recorded reason.
func (s *service) fail(ctx context.Context, n *domain.Notification, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()

	if err := s.repo.UpdateIfStatus(ctx, n.NotificationID, domain.StatusSending, map[string]interface{}{
		"status":         domain.StatusFailed,
		"failure_reason": reason,
	}); err != nil {
		slog.Error("dispatch: mark failed", "id", n.NotificationID, "err", err)
		return
	}
	if err := s.audit.Append(ctx, audit.Record{
		ActorID:    domain.ActorSystem,
		Action:     domain.ActionNotificationFailed,
		EntityType: domain.EntityNotification,
		EntityID:   n.NotificationID,
		Details:    map[string]interface{}{"failure_reason": reason},
	}); err != nil {
		slog.Error("dispatch: audit failed", "id", n.NotificationID, "err", err)
	}
}
