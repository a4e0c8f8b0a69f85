package availability

import (
	"time"

	"atrium/internal/domains/appointment/lifecycle"
)

// Interval is one room's occupied window taken from a persisted appointment.
type Interval struct {
	AppointmentID string    `db:"appointment_id"`
	RoomID        string    `db:"room_id"`
	RoomName      string    `db:"room_name"`
	Status        string    `db:"status"`
	Start         time.Time `db:"start_time"`
	End           time.Time `db:"end_time"`
}

// Overlaps reports whether two half-open intervals [s1,e1) and [s2,e2)
// intersect. Touching endpoints, a booking ending exactly when another
// begins, do not conflict.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// FirstConflict returns the first blocking interval that overlaps the
// requested window. Intervals whose appointment is rejected or cancelled
// never block. Pure function over its inputs; callers must re-evaluate it
// against the latest persisted set right before committing a booking.
func FirstConflict(start, end time.Time, existing []Interval) (Interval, bool) {
	for _, iv := range existing {
		if !lifecycle.Blocking(iv.Status) {
			continue
		}

		if Overlaps(start, end, iv.Start, iv.End) {
			return iv, true
		}
	}

	return Interval{}, false
}

// IsAvailable reports whether no blocking interval overlaps the requested
// window.
func IsAvailable(start, end time.Time, existing []Interval) bool {
	_, conflict := FirstConflict(start, end, existing)

	return !conflict
}
