package model

import (
	"atrium/shared/model"
)

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID           = "id"
	FieldLocationID   = "location_id"
	FieldName         = "name"
	FieldCapacity     = "capacity"
	FieldFlatRate     = "flat_rate"
	FieldHourlyRate   = "hourly_rate"
	FieldAttendeeRate = "attendee_rate"
	FieldImage        = "image"
	FieldActive       = "active"
	FieldDescription  = "description"
)

// Room is a bookable room. Rates are integer minor currency units; a nil
// rate means the corresponding pricing model is not offered. At least one
// rate must be set for the room to be bookable.
type Room struct {
	ID           string `db:"id"`
	LocationID   string `db:"location_id"`
	Name         string `db:"name"`
	Capacity     int    `db:"capacity"`
	FlatRate     *int64 `db:"flat_rate"`
	HourlyRate   *int64 `db:"hourly_rate"`
	AttendeeRate *int64 `db:"attendee_rate"`
	Image        string `db:"image"`
	Active       bool   `db:"active"`
	Description  string `db:"description"`
	model.Metadata
}

// Bookable reports whether the room offers at least one pricing model.
func (r *Room) Bookable() bool {
	return r.FlatRate != nil || r.HourlyRate != nil || r.AttendeeRate != nil
}
