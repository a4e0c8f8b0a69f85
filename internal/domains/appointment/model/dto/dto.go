package dto

import (
	"time"

	"atrium/internal/domains/appointment/model"
	"atrium/internal/domains/appointment/pricing"
	"atrium/shared"
	"atrium/shared/constant"
	gDto "atrium/shared/dto"
	gModel "atrium/shared/model"
	"atrium/shared/timezone"

	"github.com/google/uuid"
)

// RoomSelection picks one room, the pricing model to bill it under, and the
// facility add-ons to charge.
type RoomSelection struct {
	RoomID     string   `json:"room_id"    validate:"required"`
	CostType   string   `json:"cost_type"  validate:"required,oneof=flat hourly per_attendee"`
	Facilities []string `json:"facilities" validate:"omitempty,dive,max=100"`
}

type CreateAppointmentRequest struct {
	Title         string          `json:"title"          validate:"required,max=200"`
	Rooms         []RoomSelection `json:"rooms"          validate:"required,min=1,dive"`
	StartTime     time.Time       `json:"start_time"     validate:"required"`
	EndTime       time.Time       `json:"end_time"       validate:"required"`
	CustomerName  string          `json:"customer_name"  validate:"required,max=100"`
	CustomerEmail string          `json:"customer_email" validate:"required,email"`
	CustomerPhone string          `json:"customer_phone" validate:"omitempty,max=30"`
	CustomerOrg   string          `json:"customer_org"   validate:"omitempty,max=100"`
	Attendees     int             `json:"attendees"      validate:"required,min=1"`
	Purpose       string          `json:"purpose"        validate:"omitempty,max=1000"`
}

// RoomIDs returns the selected room ids in request order.
func (c *CreateAppointmentRequest) RoomIDs() []string {
	ids := make([]string, len(c.Rooms))
	for i, room := range c.Rooms {
		ids[i] = room.RoomID
	}

	return ids
}

// ToModel builds the appointment row with the priced totals already applied.
func (c *CreateAppointmentRequest) ToModel(user, orderNumber string, quote pricing.Quote) model.Appointment {
	return model.Appointment{
		ID:            uuid.NewString(),
		OrderNumber:   orderNumber,
		Title:         c.Title,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		CustomerName:  c.CustomerName,
		CustomerEmail: c.CustomerEmail,
		CustomerPhone: c.CustomerPhone,
		CustomerOrg:   c.CustomerOrg,
		Attendees:     c.Attendees,
		Purpose:       c.Purpose,
		AgreedCost:    quote.Total,
		Hours:         quote.Hours,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// QuoteRequest prices a prospective booking without persisting anything.
type QuoteRequest struct {
	Rooms     []RoomSelection `json:"rooms"      validate:"required,min=1,dive"`
	StartTime time.Time       `json:"start_time" validate:"required"`
	EndTime   time.Time       `json:"end_time"   validate:"required"`
	Attendees int             `json:"attendees"  validate:"required,min=1"`
}

// RoomIDs returns the selected room ids in request order.
func (q *QuoteRequest) RoomIDs() []string {
	ids := make([]string, len(q.Rooms))
	for i, room := range q.Rooms {
		ids[i] = room.RoomID
	}

	return ids
}

// UpdateAppointmentRequest edits a non-terminal appointment. Changing rooms,
// window or attendees re-prices the booking unless custom pricing is active;
// setting IsCustom with AgreedCost pins the total until custom pricing is
// switched off again.
type UpdateAppointmentRequest struct {
	Title         string          `db:"title"          json:"title"          validate:"omitempty,max=200"`
	Rooms         []RoomSelection `json:"rooms"         validate:"omitempty,min=1,dive"`
	StartTime     *time.Time      `json:"start_time"    validate:"omitempty"`
	EndTime       *time.Time      `json:"end_time"      validate:"omitempty"`
	CustomerName  string          `db:"customer_name"  json:"customer_name"  validate:"omitempty,max=100"`
	CustomerEmail string          `db:"customer_email" json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string          `db:"customer_phone" json:"customer_phone" validate:"omitempty,max=30"`
	CustomerOrg   string          `db:"customer_org"   json:"customer_org"   validate:"omitempty,max=100"`
	Attendees     *int            `json:"attendees"     validate:"omitempty,min=1"`
	Purpose       string          `db:"purpose"        json:"purpose"        validate:"omitempty,max=1000"`
	IsCustom      *bool           `json:"is_custom"     validate:"omitempty"`
	AgreedCost    *int64          `json:"agreed_cost"   validate:"omitempty,min=0"`
}

// RoomIDs returns the replacement room ids, or nil when rooms are unchanged.
func (u *UpdateAppointmentRequest) RoomIDs() []string {
	if u.Rooms == nil {
		return nil
	}

	ids := make([]string, len(u.Rooms))
	for i, room := range u.Rooms {
		ids[i] = room.RoomID
	}

	return ids
}

type RoomBookingResponse struct {
	RoomID     string                 `json:"room_id"`
	RoomName   string                 `json:"room_name"`
	CostType   string                 `json:"cost_type"`
	Facilities []pricing.FacilityLine `json:"facilities"`
	BaseCost   int64                  `json:"base_cost"`
	TotalCost  int64                  `json:"total_cost"`
}

type AppointmentResponse struct {
	ID            string                `json:"id"`
	OrderNumber   string                `json:"order_number"`
	Title         string                `json:"title"`
	Rooms         []RoomBookingResponse `json:"rooms"`
	StartTime     string                `json:"start_time"`
	EndTime       string                `json:"end_time"`
	Status        string                `json:"status"`
	CustomerName  string                `json:"customer_name"`
	CustomerEmail string                `json:"customer_email"`
	CustomerPhone string                `json:"customer_phone"`
	CustomerOrg   string                `json:"customer_org"`
	Attendees     int                   `json:"attendees"`
	Purpose       string                `json:"purpose"`
	AgreedCost    int64                 `json:"agreed_cost"`
	Hours         int64                 `json:"hours"`
	IsCustom      bool                  `json:"is_custom"`
	gDto.Metadata
}

func (r *AppointmentResponse) FromModel(mod model.Appointment, bookings []model.RoomBooking) {
	r.ID = mod.ID
	r.OrderNumber = mod.OrderNumber
	r.Title = mod.Title
	r.StartTime = timezone.Format(mod.StartTime, constant.DateFormat)
	r.EndTime = timezone.Format(mod.EndTime, constant.DateFormat)
	r.Status = mod.Status
	r.CustomerName = mod.CustomerName
	r.CustomerEmail = mod.CustomerEmail
	r.CustomerPhone = mod.CustomerPhone
	r.CustomerOrg = mod.CustomerOrg
	r.Attendees = mod.Attendees
	r.Purpose = mod.Purpose
	r.AgreedCost = mod.AgreedCost
	r.Hours = mod.Hours
	r.IsCustom = mod.IsCustom
	r.Metadata.FromModel(mod.Metadata)

	r.Rooms = make([]RoomBookingResponse, len(bookings))
	for i, booking := range bookings {
		r.Rooms[i] = RoomBookingResponse{
			RoomID:     booking.RoomID,
			RoomName:   booking.RoomName,
			CostType:   booking.CostType,
			Facilities: booking.Facilities,
			BaseCost:   booking.BaseCost,
			TotalCost:  booking.TotalCost,
		}
	}
}

type GetAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetAppointmentsResponse) FromModels(models []model.Appointment, bookings map[string][]model.RoomBooking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Appointments = make([]AppointmentResponse, len(models))
	for i, mod := range models {
		r.Appointments[i].FromModel(mod, bookings[mod.ID])
	}
}

// AvailabilityResponse answers "is this room free for this window", listing
// the occupied windows that fall inside the queried range.
type AvailabilityResponse struct {
	RoomID    string               `json:"room_id"`
	StartTime string               `json:"start_time"`
	EndTime   string               `json:"end_time"`
	Available bool                 `json:"available"`
	Busy      []BusyWindowResponse `json:"busy"`
}

type BusyWindowResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

type AuditLogResponse struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	OldData   map[string]any `json:"old_data"`
	NewData   map[string]any `json:"new_data"`
	CreatedAt string         `json:"created_at"`
}

type GetAuditLogsResponse struct {
	Logs []AuditLogResponse `json:"logs"`
}

func (r *GetAuditLogsResponse) FromModels(models []model.AuditLog) {
	r.Logs = make([]AuditLogResponse, len(models))
	for i, mod := range models {
		r.Logs[i] = AuditLogResponse{
			ID:        mod.ID,
			Actor:     mod.Actor,
			Action:    mod.Action,
			OldData:   mod.OldData,
			NewData:   mod.NewData,
			CreatedAt: timezone.Format(mod.CreatedAt, constant.DateFormat),
		}
	}
}
