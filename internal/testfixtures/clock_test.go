package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	assert.True(t, clock.Now().Equal(ReferenceTime()))
	assert.Equal(t, time.Monday, clock.Now().Weekday())
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)
	nowFn := clock.NowFunc()

	assert.True(t, clock.Advance(90*time.Minute).Equal(start.Add(90*time.Minute)))
	assert.True(t, nowFn().Equal(start.Add(90*time.Minute)))

	clock.Set(start.Add(2 * time.Hour))
	assert.True(t, nowFn().Equal(start.Add(2*time.Hour)))

	var nilClock *Clock
	assert.NotNil(t, nilClock.NowFunc())
}

func TestClockAt(t *testing.T) {
	zone := time.FixedZone("BRT", -3*60*60)
	clock := NewClock(time.Date(2024, time.March, 12, 1, 0, 0, 0, time.UTC))

	got := clock.At(zone, 10, 30)
	assert.Equal(t, time.Date(2024, time.March, 11, 13, 30, 0, 0, time.UTC), got.UTC())
}
