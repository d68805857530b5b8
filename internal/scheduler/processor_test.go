package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/notifica-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

// --- mocks ---

type mockRepo struct{ mock.Mock }

func (m *mockRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Notification, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Notification), args.Error(1)
}

type mockPromoter struct{ mock.Mock }

func (m *mockPromoter) BeginDispatch(ctx context.Context, n *domain.Notification, actor string, meta domain.ClientMeta) error {
	return m.Called(ctx, n, actor, meta).Error(0)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, notificationID string) {
	m.Called(ctx, notificationID)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// --- tests ---

var sweepNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func dueNotification(id string) domain.Notification {
	due := sweepNow.Add(-time.Minute)
	return domain.Notification{
		NotificationID: id,
		UserID:         "user-1",
		Status:         domain.StatusScheduled,
		ScheduledFor:   &due,
	}
}

func TestSweep_PromotesAndDispatchesDueNotifications(t *testing.T) {
	repo, promoter, dispatcher := &mockRepo{}, &mockPromoter{}, &mockDispatcher{}
	repo.On("ListDueScheduled", mock.Anything, sweepNow).
		Return([]domain.Notification{dueNotification("ntf-1"), dueNotification("ntf-2")}, nil)
	promoter.On("BeginDispatch", mock.Anything, mock.Anything, domain.ActorSystem, domain.ClientMeta{}).Return(nil)
	dispatcher.On("Dispatch", mock.Anything, "ntf-1").Return()
	dispatcher.On("Dispatch", mock.Anything, "ntf-2").Return()

	NewProcessor(repo, promoter, dispatcher, fixedClock{t: sweepNow}, time.Minute).Sweep(context.Background())

	dispatcher.AssertNumberOfCalls(t, "Dispatch", 2)
}

func TestSweep_LostPromotionRaceSkipsDispatch(t *testing.T) {
	repo, promoter, dispatcher := &mockRepo{}, &mockPromoter{}, &mockDispatcher{}
	repo.On("ListDueScheduled", mock.Anything, mock.Anything).
		Return([]domain.Notification{dueNotification("ntf-1"), dueNotification("ntf-2")}, nil)
	// ntf-1 was already promoted by an overlapping sweep or a manual send.
	promoter.On("BeginDispatch", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.NotificationID == "ntf-1"
	}), mock.Anything, mock.Anything).Return(domain.TransitionError(domain.StatusSending, domain.StatusSending))
	promoter.On("BeginDispatch", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.NotificationID == "ntf-2"
	}), mock.Anything, mock.Anything).Return(nil)
	dispatcher.On("Dispatch", mock.Anything, "ntf-2").Return()

	NewProcessor(repo, promoter, dispatcher, fixedClock{t: sweepNow}, time.Minute).Sweep(context.Background())

	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, "ntf-1")
}

func TestSweep_PromotionErrorDoesNotStopTheSweep(t *testing.T) {
	repo, promoter, dispatcher := &mockRepo{}, &mockPromoter{}, &mockDispatcher{}
	repo.On("ListDueScheduled", mock.Anything, mock.Anything).
		Return([]domain.Notification{dueNotification("ntf-1"), dueNotification("ntf-2")}, nil)
	promoter.On("BeginDispatch", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.NotificationID == "ntf-1"
	}), mock.Anything, mock.Anything).Return(errors.New("store unavailable"))
	promoter.On("BeginDispatch", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.NotificationID == "ntf-2"
	}), mock.Anything, mock.Anything).Return(nil)
	dispatcher.On("Dispatch", mock.Anything, "ntf-2").Return()

	NewProcessor(repo, promoter, dispatcher, fixedClock{t: sweepNow}, time.Minute).Sweep(context.Background())

	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestSweep_ListFailureIsQuiet(t *testing.T) {
	repo, promoter, dispatcher := &mockRepo{}, &mockPromoter{}, &mockDispatcher{}
	repo.On("ListDueScheduled", mock.Anything, mock.Anything).
		Return([]domain.Notification{}, errors.New("query throttled"))

	NewProcessor(repo, promoter, dispatcher, fixedClock{t: sweepNow}, time.Minute).Sweep(context.Background())

	promoter.AssertNotCalled(t, "BeginDispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo, promoter, dispatcher := &mockRepo{}, &mockPromoter{}, &mockDispatcher{}
	repo.On("ListDueScheduled", mock.Anything, mock.Anything).Return([]domain.Notification{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewProcessor(repo, promoter, dispatcher, fixedClock{t: sweepNow}, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
