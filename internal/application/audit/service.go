package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/notifica-api/internal/domain"
	"github.com/notifica-api/internal/pkg/id"
	"golang.org/x/crypto/sha3"
)

// Repository is the minimal interface the service requires from the audit store.
type Repository interface {
	Append(ctx context.Context, e *domain.AuditLogEntry) error
	LatestForEntity(ctx context.Context, entityKey string) (*domain.AuditLogEntry, error)
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, error)
}

// Record describes one state-changing action to be appended to the trail.
type Record struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    interface{} // marshalled to JSON; nil for none
	IP         string
	UserAgent  string
}

// Service is the audit trail write and read path. Append never fails
// silently: when the store is unavailable the triggering operation gets the
// error back and must not report success.
type Service interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, error)
	VerifyEntity(ctx context.Context, entityType, entityID string) (int, error)
}

type service struct {
	repo Repository

	// mu serializes appends so entries are chained and written in exactly
	// the order their transitions were applied. A single process-wide lock,
	// not per-entity: appends are one write per user action, so contention
	// is negligible and the simpler invariant wins.
	mu sync.Mutex
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Append(ctx context.Context, rec Record) error {
	var details string
	if rec.Details != nil {
		b, err := json.Marshal(rec.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		details = string(b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entityKey := rec.EntityType + "#" + rec.EntityID
	prev, err := s.repo.LatestForEntity(ctx, entityKey)
	if err != nil {
		return fmt.Errorf("read audit chain head: %w", err)
	}
	prevHash := ""
	if prev != nil {
		prevHash = prev.EntryHash
	}

	entry := &domain.AuditLogEntry{
		AuditID:    id.NewMonotonic(),
		ActorID:    rec.ActorID,
		Action:     rec.Action,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		EntityKey:  entityKey,
		Details:    details,
		IPAddress:  rec.IP,
		UserAgent:  rec.UserAgent,
		PrevHash:   prevHash,
		CreatedAt:  time.Now().UTC(),
	}
	entry.EntryHash = chainHash(entry)

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit append for %s: %w", entityKey, err)
	}
	return nil
}

func (s *service) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	return s.repo.List(ctx, f)
}

// VerifyEntity recomputes the hash chain over a subject's full history and
// returns the index of the first corrupted entry, or -1 when the chain is
// intact.
func (s *service) VerifyEntity(ctx context.Context, entityType, entityID string) (int, error) {
	entries, err := s.repo.List(ctx, domain.AuditFilter{EntityType: entityType, EntityID: entityID})
	if err != nil {
		return 0, err
	}
	return VerifyChain(entries), nil
}

// chainHash binds an entry to its predecessor. Recomputing the chain over a
// subject's entries and comparing hashes reveals any tampering with stored
// rows.
func chainHash(e *domain.AuditLogEntry) string {
	sum := sha3.Sum256([]byte(
		e.PrevHash + "|" + e.AuditID + "|" + e.ActorID + "|" + e.Action + "|" +
			e.EntityKey + "|" + e.Details + "|" + e.CreatedAt.Format(time.RFC3339Nano),
	))
	return fmt.Sprintf("%x", sum)
}

// VerifyChain recomputes the hash chain over entries (in append order) and
// reports the index of the first corrupted entry, or -1 when intact.
func VerifyChain(entries []domain.AuditLogEntry) int {
	prevHash := ""
	for i := range entries {
		e := entries[i]
		if e.PrevHash != prevHash || chainHash(&e) != e.EntryHash {
			return i
		}
		prevHash = e.EntryHash
	}
	return -1
}
