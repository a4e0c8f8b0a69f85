package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Pricing models a room may be booked under. A room can support several
// models at once; the booking request picks one per room.
const (
	CostTypeFlat        = "flat"
	CostTypeHourly      = "hourly"
	CostTypePerAttendee = "per_attendee"
)

var ErrUnknownCostType = errors.New("unknown cost type")

// Room carries the rate card needed to price one room. All rates are in
// integer minor currency units; a nil rate means the model is unsupported.
type Room struct {
	ID           string
	Name         string
	FlatRate     *int64
	HourlyRate   *int64
	AttendeeRate *int64
	Facilities   []Facility
}

// Facility is a paid add-on offered by a room.
type Facility struct {
	Name string
	Cost int64
}

// FacilityLine is one charged add-on inside a breakdown.
type FacilityLine struct {
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// Breakdown is the priced result for a single room.
type Breakdown struct {
	RoomID     string         `json:"room_id"`
	RoomName   string         `json:"room_name"`
	CostType   string         `json:"cost_type"`
	Base       int64          `json:"base"`
	Facilities []FacilityLine `json:"facilities"`
	Total      int64          `json:"total"`
}

// Quote aggregates per-room breakdowns over one shared time window.
type Quote struct {
	Rooms     []Breakdown `json:"rooms"`
	Hours     int64       `json:"hours"`
	Attendees int         `json:"attendees"`
	Total     int64       `json:"total"`
}

// Hours returns the billable duration of a window: wall-clock hours rounded
// up to the next whole hour, minimum one hour.
func Hours(start, end time.Time) int64 {
	d := end.Sub(start)
	if d <= 0 {
		return 1
	}

	hours := int64(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}

	if hours < 1 {
		hours = 1
	}

	return hours
}

// SupportsCostType reports whether the room carries a rate for the model.
func SupportsCostType(room Room, costType string) bool {
	switch costType {
	case CostTypeFlat:
		return room.FlatRate != nil
	case CostTypeHourly:
		return room.HourlyRate != nil
	case CostTypePerAttendee:
		return room.AttendeeRate != nil
	default:
		return false
	}
}

// RoomCost prices one room for the window under the requested model plus the
// requested facility add-ons. Facilities are flat charges added once, never
// scaled by time or attendees; requested names missing from the room's list
// are stale references and silently ignored.
func RoomCost(room Room, costType string, start, end time.Time, attendees int, requestedFacilities []string) (Breakdown, error) {
	var base int64

	switch costType {
	case CostTypeFlat:
		if room.FlatRate != nil {
			base = *room.FlatRate
		}
	case CostTypeHourly:
		if room.HourlyRate != nil {
			base = *room.HourlyRate * Hours(start, end)
		}
	case CostTypePerAttendee:
		if room.AttendeeRate != nil {
			base = *room.AttendeeRate * int64(attendees)
		}
	default:
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownCostType, costType)
	}

	breakdown := Breakdown{
		RoomID:     room.ID,
		RoomName:   room.Name,
		CostType:   costType,
		Base:       base,
		Facilities: []FacilityLine{},
		Total:      base,
	}

	for _, requested := range requestedFacilities {
		for _, facility := range room.Facilities {
			if facility.Name != requested {
				continue
			}

			breakdown.Facilities = append(breakdown.Facilities, FacilityLine{
				Name: facility.Name,
				Cost: facility.Cost,
			})
			breakdown.Total += facility.Cost

			break
		}
	}

	return breakdown, nil
}

// Aggregate sums independently priced rooms sharing one window. Hours reports
// the shared window duration, not a per-room sum.
func Aggregate(start, end time.Time, attendees int, rooms []Breakdown) Quote {
	quote := Quote{
		Rooms:     rooms,
		Hours:     Hours(start, end),
		Attendees: attendees,
	}

	for _, room := range rooms {
		quote.Total += room.Total
	}

	return quote
}

// ToMinorUnits converts a major-currency amount to minor units with a single
// round-half-up, applied once to avoid compounding rounding error.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}
