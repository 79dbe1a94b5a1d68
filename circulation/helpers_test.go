package circulation_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore/memengine"
	"github.com/AntonStoeckl/circulation-engine-go/internal/clock"
)

const itemID = "item-1"

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	coordinator *circulation.Coordinator
	clock       *clock.Manual
	store       *memengine.EventStore
	notifier    *notifierSpy
}

func newFixture(t *testing.T, options ...circulation.Option) fixture {
	t.Helper()

	store, err := memengine.NewEventStore()
	require.NoError(t, err)

	f := fixture{
		clock:    clock.NewManual(t0),
		store:    store,
		notifier: &notifierSpy{},
	}

	var seq atomic.Int64
	defaults := []circulation.Option{
		circulation.WithClock(f.clock),
		circulation.WithNotifier(f.notifier),
		circulation.WithSynchronousNotifications(),
		circulation.WithIDGenerator(func() string { return "id-" + strconv.FormatInt(seq.Add(1), 10) }),
	}

	f.coordinator, err = circulation.NewCoordinator(store, append(defaults, options...)...)
	require.NoError(t, err)
	t.Cleanup(f.coordinator.Close)

	return f
}

func (f fixture) givenItemWithCopies(t *testing.T, copies int) {
	t.Helper()

	_, err := f.coordinator.OnCatalogCopyCountChanged(context.Background(), itemID, copies)
	require.NoError(t, err)
}

func (f fixture) borrow(t *testing.T, userID string) circulation.BorrowResult {
	t.Helper()

	result, err := f.coordinator.BorrowItem(context.Background(), itemID, userID)
	require.NoError(t, err)

	return result
}

func (f fixture) item(t *testing.T) circulation.ItemSnapshot {
	t.Helper()

	snapshot, err := f.coordinator.Item(context.Background(), itemID)
	require.NoError(t, err)

	return snapshot
}

// assertCopiesAccountedFor checks that every copy is in exactly one place: the pool, a loan, or an offer.
func assertCopiesAccountedFor(t *testing.T, snapshot circulation.ItemSnapshot) {
	t.Helper()

	assert.Equal(t,
		snapshot.TotalCopies,
		snapshot.AvailableCopies+snapshot.ActiveLoans()+snapshot.OfferedCopies,
		"available + active loans + offered must equal total",
	)
}

type notifierSpy struct {
	mu            sync.Mutex
	notifications []circulation.OfferNotification
	err           error
}

func (s *notifierSpy) Notify(_ context.Context, notification circulation.OfferNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)

	return s.err
}

func (s *notifierSpy) received() []circulation.OfferNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]circulation.OfferNotification(nil), s.notifications...)
}
