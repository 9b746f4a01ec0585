package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/aura-events/backend/internal/models"
	"github.com/aura-events/backend/internal/testutil"
	"github.com/aura-events/backend/pkg/apperror"
	"github.com/aura-events/backend/pkg/database"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishActivity(ctx context.Context, a models.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func newTestLedger(t *testing.T, pub ActivityPublisher) (*Ledger, *database.DB) {
	t.Helper()
	db := testutil.OpenSQLite(t)
	return New(db, pub, zaptest.NewLogger(t)), db
}

func TestRegisterCancelScenario(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	user := testutil.InsertUser(t, db, "one@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Big Conf", Capacity: 500})

	conf, err := l.Register(ctx, user, event)
	require.NoError(t, err)
	require.Equal(t, models.RegistrationActive, conf.Registration.Status)
	require.Equal(t, "Big Conf", conf.Event.Name)
	require.Equal(t, 499, testutil.AvailableSeats(t, db, event))

	_, err = l.Register(ctx, user, event)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	require.Equal(t, 499, testutil.AvailableSeats(t, db, event))

	require.NoError(t, l.Cancel(ctx, user, event))
	require.Equal(t, 500, testutil.AvailableSeats(t, db, event))

	err = l.Cancel(ctx, user, event)
	require.ErrorIs(t, err, ErrRegistrationNotFound)
	require.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	require.Equal(t, 500, testutil.AvailableSeats(t, db, event))
}

func TestRegisterFullEvent(t *testing.T) {
	l, db := newTestLedger(t, nil)
	user := testutil.InsertUser(t, db, "full@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 3})
	testutil.SetAvailableSeats(t, db, event, 0)

	_, err := l.Register(context.Background(), user, event)

	require.ErrorIs(t, err, ErrEventFull)
	require.Equal(t, 0, testutil.AvailableSeats(t, db, event))
	require.Zero(t, testutil.CountRegistrations(t, db, event, ""))
}

func TestRegisterUnknownEvent(t *testing.T) {
	l, db := newTestLedger(t, nil)
	user := testutil.InsertUser(t, db, "lost@example.com")

	_, err := l.Register(context.Background(), user, uuid.New())

	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestCancelWithoutRegistration(t *testing.T) {
	l, db := newTestLedger(t, nil)
	user := testutil.InsertUser(t, db, "never@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 4})

	require.ErrorIs(t, l.Cancel(context.Background(), user, event), ErrRegistrationNotFound)
	require.ErrorIs(t, l.Cancel(context.Background(), user, uuid.New()), ErrRegistrationNotFound)
	require.Equal(t, 4, testutil.AvailableSeats(t, db, event))
}

func TestReactivationReusesRow(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	user := testutil.InsertUser(t, db, "again@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 10})

	first, err := l.Register(ctx, user, event)
	require.NoError(t, err)
	require.NoError(t, l.Cancel(ctx, user, event))
	second, err := l.Register(ctx, user, event)
	require.NoError(t, err)

	require.Equal(t, first.Registration.ID, second.Registration.ID)
	require.Equal(t, 1, testutil.CountRegistrations(t, db, event, ""))
	require.Equal(t, 1, testutil.CountRegistrations(t, db, event, "active"))
	require.Equal(t, 9, testutil.AvailableSeats(t, db, event))
}

func TestConcurrentRegisterLastSeat(t *testing.T) {
	l, db := newTestLedger(t, nil)
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 1})

	const n = 20
	users := make([]uuid.UUID, n)
	for i := range users {
		users[i] = testutil.InsertUser(t, db, fmt.Sprintf("racer%d@example.com", i))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for _, u := range users {
		wg.Add(1)
		go func(u uuid.UUID) {
			defer wg.Done()
			_, err := l.Register(context.Background(), u, event)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}(u)
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Len(t, failures, n-1)
	for _, err := range failures {
		require.ErrorIs(t, err, ErrEventFull)
	}
	require.Equal(t, 0, testutil.AvailableSeats(t, db, event))
	require.Equal(t, 1, testutil.CountRegistrations(t, db, event, "active"))
	require.Zero(t, l.locks.size())
}

func TestConcurrentDoubleSubmit(t *testing.T) {
	l, db := newTestLedger(t, nil)
	user := testutil.InsertUser(t, db, "double@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 10})

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Register(context.Background(), user, event)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 9, testutil.AvailableSeats(t, db, event))
	require.Equal(t, 1, testutil.CountRegistrations(t, db, event, ""))
}

func TestConcurrentRegisterSeparateEvents(t *testing.T) {
	l, db := newTestLedger(t, nil)
	events := []uuid.UUID{
		testutil.InsertEvent(t, db, testutil.EventFixture{Name: "A", Capacity: 5}),
		testutil.InsertEvent(t, db, testutil.EventFixture{Name: "B", Capacity: 5}),
	}
	users := make([]uuid.UUID, 5)
	for i := range users {
		users[i] = testutil.InsertUser(t, db, fmt.Sprintf("multi%d@example.com", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(events)*len(users))
	for _, e := range events {
		for _, u := range users {
			wg.Add(1)
			go func(u, e uuid.UUID) {
				defer wg.Done()
				_, err := l.Register(context.Background(), u, e)
				errs <- err
			}(u, e)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	for _, e := range events {
		require.Equal(t, 0, testutil.AvailableSeats(t, db, e))
		require.Equal(t, 5, testutil.CountRegistrations(t, db, e, "active"))
	}
}

func TestConcurrentRegisterAndCancelKeepsInvariant(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 3})
	users := make([]uuid.UUID, 6)
	for i := range users {
		users[i] = testutil.InsertUser(t, db, fmt.Sprintf("churn%d@example.com", i))
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u uuid.UUID) {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				if _, err := l.Register(ctx, u, event); err == nil {
					_ = l.Cancel(ctx, u, event)
				}
			}
		}(u)
	}
	wg.Wait()

	active := testutil.CountRegistrations(t, db, event, "active")
	require.Equal(t, 3-active, testutil.AvailableSeats(t, db, event))
	report, err := l.Reconcile(ctx, false)
	require.NoError(t, err)
	require.Empty(t, report.Drift)
}

func TestCancelRollsBackWhenCounterAtCapacity(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	user := testutil.InsertUser(t, db, "drift@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 2})

	_, err := l.Register(ctx, user, event)
	require.NoError(t, err)
	testutil.SetAvailableSeats(t, db, event, 2)

	err = l.Cancel(ctx, user, event)

	require.ErrorIs(t, err, ErrSeatInvariant)
	require.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	require.Equal(t, 1, testutil.CountRegistrations(t, db, event, "active"))
	require.Equal(t, 2, testutil.AvailableSeats(t, db, event))
}

func TestListForUserPartitions(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	user := testutil.InsertUser(t, db, "sched@example.com")
	other := testutil.InsertUser(t, db, "other@example.com")

	nextWeek := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Next week", Date: now.Add(7 * 24 * time.Hour)})
	yesterday := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Yesterday", Date: now.Add(-24 * time.Hour)})
	tomorrow := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Tomorrow", Date: now.Add(24 * time.Hour), Tags: []string{"go", "backend"}})
	cancelled := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Cancelled", Date: now.Add(48 * time.Hour)})

	for _, e := range []uuid.UUID{nextWeek, yesterday, tomorrow, cancelled} {
		_, err := l.Register(ctx, user, e)
		require.NoError(t, err)
	}
	require.NoError(t, l.Cancel(ctx, user, cancelled))
	_, err := l.Register(ctx, other, tomorrow)
	require.NoError(t, err)

	s, err := l.ListForUser(ctx, user, now)
	require.NoError(t, err)

	require.Equal(t, 3, s.Total)
	require.Len(t, s.Past, 1)
	require.Equal(t, "Yesterday", s.Past[0].Name)
	require.Len(t, s.Upcoming, 2)
	require.Equal(t, "Tomorrow", s.Upcoming[0].Name)
	require.Equal(t, []string{"go", "backend"}, s.Upcoming[0].Tags)
	require.Equal(t, "Next week", s.Upcoming[1].Name)
	require.True(t, s.Upcoming[0].Date.Before(s.Upcoming[1].Date))
}

func TestListForUserEmpty(t *testing.T) {
	l, db := newTestLedger(t, nil)
	user := testutil.InsertUser(t, db, "empty@example.com")

	s, err := l.ListForUser(context.Background(), user, time.Now())
	require.NoError(t, err)
	require.Zero(t, s.Total)
	require.NotNil(t, s.Upcoming)
	require.NotNil(t, s.Past)
}

func TestIsRegistered(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	user := testutil.InsertUser(t, db, "is@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{})

	ok, err := l.IsRegistered(ctx, user, event)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = l.Register(ctx, user, event)
	require.NoError(t, err)
	ok, err = l.IsRegistered(ctx, user, event)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Cancel(ctx, user, event))
	ok, err = l.IsRegistered(ctx, user, event)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPublishesActivityAfterCommit(t *testing.T) {
	pub := &mockPublisher{}
	l, db := newTestLedger(t, pub)
	ctx := context.Background()
	user := testutil.InsertUser(t, db, "pub@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 2})

	isAction := func(action models.ActivityAction) interface{} {
		return mock.MatchedBy(func(a models.Activity) bool {
			return a.Action == action && a.UserID == user && a.EventID == event
		})
	}
	pub.On("PublishActivity", mock.Anything, isAction(models.ActivityRegistered)).Return(nil).Once()
	pub.On("PublishActivity", mock.Anything, isAction(models.ActivityCancelled)).Return(errors.New("queue down")).Once()

	_, err := l.Register(ctx, user, event)
	require.NoError(t, err)
	require.NoError(t, l.Cancel(ctx, user, event))

	_, err = l.Register(ctx, user, uuid.New())
	require.ErrorIs(t, err, ErrEventNotFound)

	pub.AssertExpectations(t)
	require.Equal(t, 2, testutil.AvailableSeats(t, db, event))
}

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	l, db := newTestLedger(t, nil)
	ctx := context.Background()
	user := testutil.InsertUser(t, db, "rec@example.com")
	healthy := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Healthy", Capacity: 5})
	drifted := testutil.InsertEvent(t, db, testutil.EventFixture{Name: "Drifted", Capacity: 5})

	_, err := l.Register(ctx, user, drifted)
	require.NoError(t, err)
	testutil.SetAvailableSeats(t, db, drifted, 2)

	report, err := l.Reconcile(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, report.EventsChecked)
	require.Len(t, report.Drift, 1)
	d := report.Drift[0]
	require.Equal(t, drifted, d.EventID)
	require.Equal(t, 2, d.AvailableSeats)
	require.Equal(t, 1, d.ActiveCount)
	require.Equal(t, 4, d.Expected)
	require.False(t, d.Repaired)
	require.Equal(t, 2, testutil.AvailableSeats(t, db, drifted))

	report, err = l.Reconcile(ctx, true)
	require.NoError(t, err)
	require.Len(t, report.Drift, 1)
	require.True(t, report.Drift[0].Repaired)
	require.Equal(t, 4, testutil.AvailableSeats(t, db, drifted))
	require.Equal(t, 5, testutil.AvailableSeats(t, db, healthy))

	report, err = l.Reconcile(ctx, true)
	require.NoError(t, err)
	require.Empty(t, report.Drift)
}

func TestRegisterSurfacesLockContentionAsInternal(t *testing.T) {
	primary, contender := testutil.OpenSQLitePair(t)
	user := testutil.InsertUser(t, primary, "busy@example.com")
	event := testutil.InsertEvent(t, primary, testutil.EventFixture{Capacity: 3})
	release := testutil.HoldWriteLock(t, primary)

	l := New(contender, nil, zaptest.NewLogger(t))
	_, err := l.Register(context.Background(), user, event)

	require.Error(t, err)
	require.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	require.ErrorContains(t, err, "after 3 attempts")
	require.True(t, contender.Dialect.IsTransient(err))

	release()
	require.Equal(t, 3, testutil.AvailableSeats(t, primary, event))
	require.Zero(t, testutil.CountRegistrations(t, primary, event, ""))
}

func TestRegisterGivesUpWaitingWhenContextEnds(t *testing.T) {
	l, db := newTestLedger(t, nil)
	user := testutil.InsertUser(t, db, "gone@example.com")
	event := testutil.InsertEvent(t, db, testutil.EventFixture{Capacity: 3})

	unlock, err := l.locks.lock(context.Background(), event)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Register(ctx, user, event)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	require.Equal(t, 3, testutil.AvailableSeats(t, db, event))
}
