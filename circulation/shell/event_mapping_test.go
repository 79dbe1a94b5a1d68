package shell_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
	"github.com/AntonStoeckl/circulation-engine-go/circulation/shell"
	"github.com/AntonStoeckl/circulation-engine-go/eventstore"
)

func sequentialIDs() func() string {
	n := 0

	return func() string {
		n++
		return "msg-" + strconv.Itoa(n)
	}
}

func Test_StorableEventsFrom_ThenDomainEventsFrom_PreservesAnItemHistory(t *testing.T) {
	// arrange
	at := time.Date(2026, 3, 2, 9, 0, 0, 123456789, time.UTC)
	history := core.DomainEvents{
		core.BuildItemCopyCountChanged("item-1", 0, 1, at),
		core.BuildLoanCreated("item-1", "loan-1", "alice", "", at.Add(14*24*time.Hour), at),
		core.BuildReservationEnqueued("item-1", "res-2", "bob", 1, at),
		core.BuildLoanMarkedOverdue("item-1", "loan-1", "alice", at.Add(14*24*time.Hour), at.Add(15*24*time.Hour)),
		core.BuildLoanReturned("item-1", "loan-1", "alice", 2, 20, at.Add(16*24*time.Hour)),
		core.BuildReservationOffered("item-1", "res-2", "bob", at.Add(18*24*time.Hour), at.Add(16*24*time.Hour)),
		core.BuildReservationFulfilled("item-1", "res-2", "bob", "loan-2", at.Add(17*24*time.Hour)),
		core.BuildLoanCreated("item-1", "loan-2", "bob", "res-2", at.Add(31*24*time.Hour), at.Add(17*24*time.Hour)),
		core.BuildFinePaymentRecorded("item-1", "loan-1", "alice", 20, 20, true, at.Add(18*24*time.Hour)),
		core.BuildLoanMarkedLost("item-1", "loan-2", "bob", 2500, at.Add(40*24*time.Hour)),
		core.BuildReservationEnqueued("item-1", "res-3", "carol", 1, at.Add(41*24*time.Hour)),
		core.BuildReservationCancelled("item-1", "res-3", "carol", false, at.Add(42*24*time.Hour)),
		core.BuildReservationEnqueued("item-1", "res-4", "dave", 1, at.Add(43*24*time.Hour)),
		core.BuildReservationExpired("item-1", "res-4", "dave", at.Add(44*24*time.Hour)),
	}

	// act
	storable, mapErr := shell.StorableEventsFrom(history, sequentialIDs(), "cmd-1", "corr-1")
	require.NoError(t, mapErr)
	restored, err := shell.DomainEventsFrom(storable)

	// assert
	require.NoError(t, err)
	assert.Equal(t, history, restored)
	assert.Equal(t, core.LoanCreatedEventType, storable[1].EventType)
	assert.Equal(t, at.Truncate(time.Microsecond), storable[0].OccurredAt)
}

func Test_StorableEventsFrom_SharesCorrelationButNotMessageIDs(t *testing.T) {
	// arrange
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := core.DomainEvents{
		core.BuildLoanReturned("item-1", "loan-1", "alice", 0, 0, at),
		core.BuildReservationOffered("item-1", "res-2", "bob", at.Add(48*time.Hour), at),
	}

	// act
	storable, err := shell.StorableEventsFrom(events, sequentialIDs(), "cmd-1", "corr-1")
	require.NoError(t, err)

	first, firstErr := shell.EventMetadataFrom(storable[0])
	second, secondErr := shell.EventMetadataFrom(storable[1])

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, shell.EventMetadata{MessageID: "msg-1", CausationID: "cmd-1", CorrelationID: "corr-1"}, first)
	assert.Equal(t, "msg-2", second.MessageID)
	assert.Equal(t, first.CorrelationID, second.CorrelationID)
}

func Test_DomainEventFrom_UnknownEventType(t *testing.T) {
	// arrange
	storable, err := eventstore.BuildStorableEventWithEmptyMetadata("BookCopyLentToReader", time.Now(), []byte(`{"ItemID":"item-1"}`))
	require.NoError(t, err)

	// act
	_, err = shell.DomainEventFrom(storable)

	// assert
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventFailed)
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
}

func Test_DomainEventFrom_MalformedPayload(t *testing.T) {
	// arrange
	storable := eventstore.StorableEvent{
		EventType:   core.LoanCreatedEventType,
		OccurredAt:  time.Now(),
		PayloadJSON: []byte(`{"ItemID":42}`),
	}

	// act
	_, err := shell.DomainEventFrom(storable)

	// assert
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventFailed)
	assert.NotErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
}

func Test_EventMetadataFrom_MalformedMetadata(t *testing.T) {
	// arrange
	storable := eventstore.StorableEvent{MetadataJSON: []byte(`{"MessageID":`)}

	// act
	_, err := shell.EventMetadataFrom(storable)

	// assert
	assert.ErrorIs(t, err, shell.ErrMappingToEventMetadataFailed)
}
