package schedule

import (
	"sort"
	"strings"
)

// TimeSlots lists the selectable boundaries offered by reservation forms.
type TimeSlots struct {
	Boundaries []string `json:"boundaries"`
	Starts     []string `json:"startSlots"`
	Ends       []string `json:"endSlots"`
}

// EnumerateTimeSlots collects every distinct start and end time of the class
// blocks and breaks. Lexicographic order is chronological because values are
// zero padded "HH:MM" strings.
func EnumerateTimeSlots(classBlocks, breaks []Block) TimeSlots {
	seen := make(map[string]struct{}, 2*(len(classBlocks)+len(breaks)))
	collect := func(blocks []Block) {
		for _, block := range blocks {
			for _, value := range []string{block.StartTime, block.EndTime} {
				value = strings.TrimSpace(value)
				if value == "" {
					continue
				}
				seen[value] = struct{}{}
			}
		}
	}
	collect(classBlocks)
	collect(breaks)

	boundaries := make([]string, 0, len(seen))
	for value := range seen {
		boundaries = append(boundaries, value)
	}
	sort.Strings(boundaries)

	slots := TimeSlots{Boundaries: boundaries, Starts: []string{}, Ends: []string{}}
	if len(boundaries) >= 2 {
		slots.Starts = append(slots.Starts, boundaries[:len(boundaries)-1]...)
		slots.Ends = append(slots.Ends, boundaries[1:]...)
	}
	return slots
}

// Pairs returns every adjacent boundary pair as a candidate slot.
func (s TimeSlots) Pairs() []Block {
	if len(s.Boundaries) < 2 {
		return nil
	}
	pairs := make([]Block, 0, len(s.Boundaries)-1)
	for i := 0; i+1 < len(s.Boundaries); i++ {
		pairs = append(pairs, Block{StartTime: s.Boundaries[i], EndTime: s.Boundaries[i+1]})
	}
	return pairs
}

// EndOptions returns the end boundaries strictly later than start.
func (s TimeSlots) EndOptions(start string) []string {
	options := make([]string, 0, len(s.Ends))
	for _, end := range s.Ends {
		if end > start {
			options = append(options, end)
		}
	}
	return options
}
