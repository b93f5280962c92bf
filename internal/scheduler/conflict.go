package scheduler

import (
	"sort"
	"time"
)

// Reservation statuses as persisted.
const (
	StatusConfirmed = "Confirmada"
	StatusPending   = "Pendente"
	StatusCancelled = "Cancelada"
)

// Booking is the slice of a reservation that conflict detection needs.
type Booking struct {
	ID         string
	ResourceID string
	Start      time.Time
	End        time.Time
	Status     string
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Blocking reports whether a booking in the given status holds its slot.
// Only confirmed bookings do.
func Blocking(status string) bool {
	return status == StatusConfirmed
}

// DetectConflicts returns the existing bookings that prevent the candidate
// from being confirmed: same resource, blocking status, a different id and an
// overlapping interval. The result is ordered by start time.
func DetectConflicts(existing []Booking, candidate Booking) []Booking {
	var conflicts []Booking
	for _, booking := range existing {
		if booking.ResourceID != candidate.ResourceID {
			continue
		}
		if candidate.ID != "" && booking.ID == candidate.ID {
			continue
		}
		if !Blocking(booking.Status) {
			continue
		}
		if !Overlaps(booking.Start, booking.End, candidate.Start, candidate.End) {
			continue
		}
		conflicts = append(conflicts, booking)
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Start.Before(conflicts[j].Start)
	})
	return conflicts
}
