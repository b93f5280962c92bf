package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 11, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(at(10, 0), at(11, 0), at(10, 30), at(11, 30)))
	assert.True(t, Overlaps(at(10, 0), at(11, 0), at(9, 0), at(12, 0)))
	assert.False(t, Overlaps(at(10, 0), at(11, 0), at(11, 0), at(12, 0)))
	assert.False(t, Overlaps(at(10, 0), at(11, 0), at(9, 0), at(10, 0)))
}

func TestDetectConflicts(t *testing.T) {
	existing := []Booking{
		{ID: "r1", ResourceID: "lab", Start: at(10, 30), End: at(11, 30), Status: StatusConfirmed},
		{ID: "r2", ResourceID: "lab", Start: at(9, 0), End: at(10, 15), Status: StatusConfirmed},
		{ID: "r3", ResourceID: "lab", Start: at(10, 0), End: at(11, 0), Status: StatusCancelled},
		{ID: "r4", ResourceID: "lab", Start: at(10, 0), End: at(11, 0), Status: StatusPending},
		{ID: "r5", ResourceID: "gym", Start: at(10, 0), End: at(11, 0), Status: StatusConfirmed},
		{ID: "r6", ResourceID: "lab", Start: at(11, 0), End: at(12, 0), Status: StatusConfirmed},
	}

	t.Run("confirmed overlaps on the same resource conflict", func(t *testing.T) {
		conflicts := DetectConflicts(existing, Booking{ResourceID: "lab", Start: at(10, 0), End: at(11, 0)})

		require.Len(t, conflicts, 2)
		assert.Equal(t, "r2", conflicts[0].ID)
		assert.Equal(t, "r1", conflicts[1].ID)
	})

	t.Run("cancelled reservation no longer blocks", func(t *testing.T) {
		only := []Booking{{ID: "r1", ResourceID: "lab", Start: at(10, 30), End: at(11, 30), Status: StatusCancelled}}

		assert.Empty(t, DetectConflicts(only, Booking{ResourceID: "lab", Start: at(10, 0), End: at(11, 0)}))
	})

	t.Run("own id is excluded", func(t *testing.T) {
		conflicts := DetectConflicts(existing, Booking{ID: "r1", ResourceID: "lab", Start: at(10, 30), End: at(11, 0)})

		assert.Empty(t, conflicts)
	})

	t.Run("adjacent bookings do not conflict", func(t *testing.T) {
		conflicts := DetectConflicts(existing, Booking{ResourceID: "gym", Start: at(11, 0), End: at(12, 0)})

		assert.Empty(t, conflicts)
	})
}

func TestBlocking(t *testing.T) {
	assert.True(t, Blocking(StatusConfirmed))
	assert.False(t, Blocking(StatusPending))
	assert.False(t, Blocking(StatusCancelled))
	assert.False(t, Blocking(""))
}
