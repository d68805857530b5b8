// Package scheduler promotes due scheduled notifications into dispatch.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/notifica-api/internal/domain"
	"github.com/notifica-api/internal/pkg/clock"
)

// Repository is the due-selection slice of the notification store.
type Repository interface {
	ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Notification, error)
}

// Promoter performs the guarded scheduled->sending promotion. It is the same
// code path an explicit send request uses; only the trigger differs.
type Promoter interface {
	BeginDispatch(ctx context.Context, n *domain.Notification, actor string, meta domain.ClientMeta) error
}

// Dispatcher runs delivery orchestration for a promoted notification.
type Dispatcher interface {
	Dispatch(ctx context.Context, notificationID string)
}

// Processor sweeps for due scheduled notifications on a fixed interval.
// Sweeps are idempotent: the promotion is a status compare-and-swap, so a
// notification picked up by two overlapping sweeps is dispatched exactly
// once. Due-time comparison uses this process's wall clock only — a
// notification becomes eligible at most one sweep interval after its due
// instant, which is the accepted consistency window.
type Processor struct {
	repo       Repository
	promoter   Promoter
	dispatcher Dispatcher
	clock      clock.Clock
	interval   time.Duration
}

func NewProcessor(repo Repository, promoter Promoter, dispatcher Dispatcher, clk clock.Clock, interval time.Duration) *Processor {
	return &Processor{
		repo:       repo,
		promoter:   promoter,
		dispatcher: dispatcher,
		clock:      clk,
		interval:   interval,
	}
}

// Run sweeps until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	slog.Info("scheduler started", "interval", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep selects everything due and drives each notification toward dispatch.
func (p *Processor) Sweep(ctx context.Context) {
	now := p.clock.Now().UTC()
	due, err := p.repo.ListDueScheduled(ctx, now)
	if err != nil {
		slog.Error("scheduler: list due notifications", "err", err)
		return
	}

	for i := range due {
		n := due[i]
		err := p.promoter.BeginDispatch(ctx, &n, domain.ActorSystem, domain.ClientMeta{})
		if errors.Is(err, domain.ErrStateViolation) {
			// Another sweep or a manual send got there first.
			continue
		}
		if err != nil {
			slog.Error("scheduler: promote due notification", "id", n.NotificationID, "err", err)
			continue
		}
		slog.Info("scheduler: dispatching due notification", "id", n.NotificationID, "scheduled_for", n.ScheduledFor)
		p.dispatcher.Dispatch(ctx, n.NotificationID)
	}
}
