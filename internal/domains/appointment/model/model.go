package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"atrium/internal/domains/appointment/pricing"
	"atrium/shared/model"
)

const (
	TableName  = "appointments"
	EntityName = "appointment"

	FieldID            = "id"
	FieldOrderNumber   = "order_number"
	FieldTitle         = "title"
	FieldStartTime     = "start_time"
	FieldEndTime       = "end_time"
	FieldStatus        = "status"
	FieldCustomerName  = "customer_name"
	FieldCustomerEmail = "customer_email"
	FieldAttendees     = "attendees"
	FieldAgreedCost    = "agreed_cost"
	FieldHours         = "hours"
	FieldIsCustom      = "is_custom"
	FieldCreatedBy     = "created_by"
)

type Appointment struct {
	ID            string    `db:"id"`
	OrderNumber   string    `db:"order_number"`
	Title         string    `db:"title"`
	StartTime     time.Time `db:"start_time"`
	EndTime       time.Time `db:"end_time"`
	Status        string    `db:"status"`
	CustomerName  string    `db:"customer_name"`
	CustomerEmail string    `db:"customer_email"`
	CustomerPhone string    `db:"customer_phone"`
	CustomerOrg   string    `db:"customer_org"`
	Attendees     int       `db:"attendees"`
	Purpose       string    `db:"purpose"`
	AgreedCost    int64     `db:"agreed_cost"`
	Hours         int64     `db:"hours"`
	IsCustom      bool      `db:"is_custom"`
	model.Metadata
}

const (
	RoomsTableName  = "appointment_rooms"
	RoomsEntityName = "appointment_room"

	RoomsFieldID            = "id"
	RoomsFieldAppointmentID = "appointment_id"
	RoomsFieldRoomID        = "room_id"
)

// RoomBooking is one room's share of an appointment. RoomName is a snapshot
// taken at booking time so historical records stay readable after the room is
// renamed or deleted.
type RoomBooking struct {
	ID            string        `db:"id"`
	AppointmentID string        `db:"appointment_id"`
	RoomID        string        `db:"room_id"`
	RoomName      string        `db:"room_name"`
	CostType      string        `db:"cost_type"`
	Facilities    FacilityLines `db:"facilities"`
	BaseCost      int64         `db:"base_cost"`
	TotalCost     int64         `db:"total_cost"`
	CreatedAt     time.Time     `db:"created_at"`
}

// FacilityLines stores the charged facility line items as JSONB.
type FacilityLines []pricing.FacilityLine

func (f FacilityLines) Value() (driver.Value, error) {
	if f == nil {
		f = FacilityLines{}
	}

	value, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal facility lines: %w", err)
	}

	return value, nil
}

func (f *FacilityLines) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		*f = FacilityLines{}

		return nil
	case []byte:
		return json.Unmarshal(data, f) //nolint:wrapcheck
	case string:
		return json.Unmarshal([]byte(data), f) //nolint:wrapcheck
	default:
		return errors.New("unsupported source type for facility lines")
	}
}

// Names returns the facility names charged on this room booking.
func (f FacilityLines) Names() []string {
	names := make([]string, len(f))
	for i, line := range f {
		names[i] = line.Name
	}

	return names
}
