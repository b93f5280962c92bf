package schedule

import (
	"fmt"
	"sort"
)

// GenerateClassBlocks partitions [start, end) into consecutive blocks of
// classBlockMinutes, never overlapping a break.
//
// A cursor inside a break jumps to the break end. A candidate block that a
// break starts inside is dropped and the cursor jumps past that break; blocks
// are never truncated. A trailing remainder shorter than a full block is not
// emitted. The result is chronological and depends only on the arguments.
func GenerateClassBlocks(start, end TimeOfDay, classBlockMinutes int, breaks []Interval) []Interval {
	if classBlockMinutes <= 0 || end <= start {
		return nil
	}

	sorted := sortedBreaks(breaks)

	var blocks []Interval
	cursor := start
	for cursor < end {
		if brk, ok := breakContaining(sorted, cursor); ok {
			cursor = brk.End
			continue
		}

		candidateEnd := cursor.Add(classBlockMinutes)
		if candidateEnd > end {
			break
		}

		if brk, ok := breakStartingWithin(sorted, cursor, candidateEnd); ok {
			cursor = brk.End
			continue
		}

		blocks = append(blocks, Interval{Start: cursor, End: candidateEnd})
		cursor = candidateEnd
	}

	return blocks
}

// GenerateFromSettings is GenerateClassBlocks over the textual settings form.
func GenerateFromSettings(startTime, endTime string, classBlockMinutes int, breaks []Block) ([]Block, error) {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}
	parsed, err := ParseBlocks(breaks)
	if err != nil {
		return nil, fmt.Errorf("breaks: %w", err)
	}
	return BlocksOf(GenerateClassBlocks(start, end, classBlockMinutes, parsed)), nil
}

// sortedBreaks drops empty or inverted breaks and orders the rest by start.
func sortedBreaks(breaks []Interval) []Interval {
	sorted := make([]Interval, 0, len(breaks))
	for _, brk := range breaks {
		if brk.End <= brk.Start {
			continue
		}
		sorted = append(sorted, brk)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}

func breakContaining(breaks []Interval, t TimeOfDay) (Interval, bool) {
	for _, brk := range breaks {
		if brk.Contains(t) {
			return brk, true
		}
	}
	return Interval{}, false
}

func breakStartingWithin(breaks []Interval, from, to TimeOfDay) (Interval, bool) {
	for _, brk := range breaks {
		if brk.Start > from && brk.Start < to {
			return brk, true
		}
	}
	return Interval{}, false
}
