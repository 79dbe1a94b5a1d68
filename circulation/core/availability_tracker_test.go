package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/circulation-engine-go/circulation/core"
)

func Test_AvailabilityTracker_TryReserveCopy_FailsWhenNoneLeft(t *testing.T) {
	// arrange
	tracker := core.NewAvailabilityTracker(1)

	// act
	first := tracker.TryReserveCopy()
	second := tracker.TryReserveCopy()

	// assert
	assert.NoError(t, first)
	assert.ErrorIs(t, second, core.ErrNoCopiesAvailable)
	assert.Equal(t, 0, tracker.Available())
}

func Test_AvailabilityTracker_ReleaseCopy_IsCappedAtTotal(t *testing.T) {
	// arrange
	tracker := core.NewAvailabilityTracker(2)
	_ = tracker.TryReserveCopy()

	// act
	tracker.ReleaseCopy()
	tracker.ReleaseCopy()

	// assert
	assert.Equal(t, 2, tracker.Available())
	assert.Equal(t, 2, tracker.Total())
}

func Test_AvailabilityTracker_RemoveCopyPermanently_LeavesAvailableUntouched(t *testing.T) {
	// arrange
	tracker := core.NewAvailabilityTracker(3)
	_ = tracker.TryReserveCopy()

	// act
	tracker.RemoveCopyPermanently()

	// assert
	assert.Equal(t, 2, tracker.Total())
	assert.Equal(t, 2, tracker.Available())
}

func Test_AvailabilityTracker_RemoveCopyPermanently_NeverBelowZero(t *testing.T) {
	// arrange
	tracker := core.NewAvailabilityTracker(0)

	// act
	tracker.RemoveCopyPermanently()

	// assert
	assert.Equal(t, 0, tracker.Total())
	assert.Equal(t, 0, tracker.Available())
}

func Test_AvailabilityTracker_Reconcile(t *testing.T) {
	testCases := []struct {
		name          string
		newTotal      int
		outstanding   int
		wantErr       error
		wantTotal     int
		wantAvailable int
	}{
		{name: "acquisition", newTotal: 5, outstanding: 2, wantTotal: 5, wantAvailable: 3},
		{name: "withdrawal down to outstanding", newTotal: 2, outstanding: 2, wantTotal: 2, wantAvailable: 0},
		{name: "below outstanding", newTotal: 1, outstanding: 2, wantErr: core.ErrInvalidCopyCount, wantTotal: 3, wantAvailable: 1},
		{name: "negative", newTotal: -1, outstanding: 0, wantErr: core.ErrInvalidCopyCount, wantTotal: 3, wantAvailable: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			tracker := core.NewAvailabilityTracker(3)
			_ = tracker.TryReserveCopy()
			_ = tracker.TryReserveCopy()

			// act
			err := tracker.Reconcile(tc.newTotal, tc.outstanding)

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantTotal, tracker.Total())
			assert.Equal(t, tc.wantAvailable, tracker.Available())
		})
	}
}
