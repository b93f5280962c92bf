// Package schedule models the school day: wall clock times, class blocks,
// breaks, and the selectable time slots derived from them.
//
// Everything in this package is pure. Callers pass settings explicitly; no
// function reads ambient configuration.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the number of minutes between 00:00 and 24:00.
const MinutesPerDay = 24 * 60

// ErrInvalidTimeOfDay is returned when a value is not a zero padded "HH:MM" time.
var ErrInvalidTimeOfDay = errors.New("schedule: invalid time of day")

// TimeOfDay is a wall clock time expressed in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a zero padded 24h "HH:MM" value. "24:00" is accepted
// so a day can end at midnight.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	if len(value) != 5 || value[2] != ':' || !isDigits(value[:2]) || !isDigits(value[3:]) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hours, _ := strconv.Atoi(value[:2])
	minutes, _ := strconv.Atoi(value[3:])
	if hours > 24 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(hours*60 + minutes), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on malformed input.
func MustParseTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// On anchors the wall-clock time to the calendar date of day in loc. 24:00
// is the next day's midnight.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := day.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), int(t)/60, int(t)%60, 0, 0, loc)
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

// Interval is a half-open [Start, End) span of the school day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Valid reports whether the interval has positive length inside the day.
func (i Interval) Valid() bool {
	return i.Start >= 0 && i.End <= MinutesPerDay && i.Start < i.End
}

// Contains reports whether t falls inside [Start, End).
func (i Interval) Contains(t TimeOfDay) bool {
	return t >= i.Start && t < i.End
}

// Overlaps reports whether two half-open intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && other.Start < i.End
}

// Minutes returns the interval length.
func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Block is the textual form of an interval as stored in settings and
// exchanged with clients.
type Block struct {
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
}

// Interval parses the block boundaries.
func (b Block) Interval() (Interval, error) {
	start, err := ParseTimeOfDay(b.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseTimeOfDay(b.EndTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// BlockOf renders an interval as a Block.
func BlockOf(i Interval) Block {
	return Block{StartTime: i.Start.String(), EndTime: i.End.String()}
}

// BlocksOf renders a list of intervals.
func BlocksOf(intervals []Interval) []Block {
	if len(intervals) == 0 {
		return nil
	}
	out := make([]Block, 0, len(intervals))
	for _, interval := range intervals {
		out = append(out, BlockOf(interval))
	}
	return out
}

// ParseBlocks parses every block, reporting the index of the first malformed one.
func ParseBlocks(blocks []Block) ([]Interval, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	out := make([]Interval, 0, len(blocks))
	for i, block := range blocks {
		interval, err := block.Interval()
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, interval)
	}
	return out, nil
}
