package schedule

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]TimeOfDay{
		"00:00": 0,
		"07:30": 450,
		"23:59": 1439,
		"24:00": 1440,
		" 12:05": 725,
	}
	for input, want := range valid {
		got, err := ParseTimeOfDay(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, input := range []string{"", "7:30", "07:60", "25:00", "24:01", "07-30", "+1:30", "ab:cd", "07:30:00"} {
		_, err := ParseTimeOfDay(input)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, input)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "07:05", TimeOfDay(425).String())
	assert.Equal(t, "24:00", TimeOfDay(MinutesPerDay).String())
}

func TestTimeOfDayOn(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2024, 3, 11, 23, 0, 0, 0, time.UTC) // 20:00 local, same date

	got := MustParseTimeOfDay("07:30").On(day, loc)

	assert.Equal(t, time.Date(2024, 3, 11, 7, 30, 0, 0, loc), got)
	assert.Equal(t, "2024-03-11T10:30:00Z", got.UTC().Format(time.RFC3339))
}

func TestTimeOfDayOnKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Clocks jumped from 02:00 to 03:00 on 2024-03-10.
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)

	got := MustParseTimeOfDay("10:00").On(day, loc)
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, "2024-03-10T14:00:00Z", got.UTC().Format(time.RFC3339))

	midnight := MustParseTimeOfDay("24:00").On(day, loc)
	assert.Equal(t, "2024-03-11T04:00:00Z", midnight.UTC().Format(time.RFC3339))
}

func TestIntervalOverlaps(t *testing.T) {
	a := iv("08:00", "09:00")

	assert.True(t, a.Overlaps(iv("08:30", "09:30")))
	assert.True(t, a.Overlaps(iv("07:00", "10:00")))
	assert.False(t, a.Overlaps(iv("09:00", "10:00")), "touching intervals do not overlap")
	assert.False(t, a.Overlaps(iv("07:00", "08:00")))
	assert.True(t, a.Valid())
	assert.False(t, iv("09:00", "09:00").Valid())
}

func TestParseBlocks(t *testing.T) {
	intervals, err := ParseBlocks([]Block{{StartTime: "08:00", EndTime: "08:50"}})
	require.NoError(t, err)
	assert.Equal(t, []Interval{iv("08:00", "08:50")}, intervals)

	_, err = ParseBlocks([]Block{{StartTime: "08:00", EndTime: "08:50"}, {StartTime: "x", EndTime: "09:00"}})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "block 1:"))
}
