package model

import "time"

const (
	FacilityTableName  = "room_facilities"
	FacilityEntityName = "room_facility"

	FacilityFieldID       = "id"
	FacilityFieldRoomID   = "room_id"
	FacilityFieldName     = "name"
	FacilityFieldCost     = "cost"
	FacilityFieldPosition = "position"
)

// Facility is a paid add-on offered by a room, billed flat per booking.
type Facility struct {
	ID        string    `db:"id"`
	RoomID    string    `db:"room_id"`
	Name      string    `db:"name"`
	Cost      int64     `db:"cost"`
	Position  int       `db:"position"`
	CreatedAt time.Time `db:"created_at"`
}
