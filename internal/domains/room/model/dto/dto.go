package dto

import (
	"atrium/internal/domains/room/model"
	"atrium/shared"
	gDto "atrium/shared/dto"
	gModel "atrium/shared/model"
	"atrium/shared/timezone"

	"github.com/google/uuid"
)

type FacilityRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Cost int64  `json:"cost" validate:"min=0"`
}

type CreateRoomRequest struct {
	Name         string            `json:"name"          validate:"required,max=100"`
	LocationID   string            `json:"location_id"   validate:"required"`
	Capacity     int               `json:"capacity"      validate:"required,min=1"`
	FlatRate     *int64            `json:"flat_rate"     validate:"omitempty,min=0"`
	HourlyRate   *int64            `json:"hourly_rate"   validate:"omitempty,min=0"`
	AttendeeRate *int64            `json:"attendee_rate" validate:"omitempty,min=0"`
	Facilities   []FacilityRequest `json:"facilities"    validate:"omitempty,dive"`
	Active       *bool             `json:"active"        validate:"omitempty"`
	Description  string            `json:"description"   validate:"omitempty,max=1000"`
}

func (c *CreateRoomRequest) ToModel(user string) model.Room {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Room{
		ID:           uuid.NewString(),
		LocationID:   c.LocationID,
		Name:         c.Name,
		Capacity:     c.Capacity,
		FlatRate:     c.FlatRate,
		HourlyRate:   c.HourlyRate,
		AttendeeRate: c.AttendeeRate,
		Active:       active,
		Description:  c.Description,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// ToFacilityModels builds the facility rows for a room, preserving order.
func (c *CreateRoomRequest) ToFacilityModels(roomID string) []model.Facility {
	facilities := make([]model.Facility, len(c.Facilities))
	for i, facility := range c.Facilities {
		facilities[i] = model.Facility{
			ID:        uuid.NewString(),
			RoomID:    roomID,
			Name:      facility.Name,
			Cost:      facility.Cost,
			Position:  i,
			CreatedAt: timezone.Now(),
		}
	}

	return facilities
}

type UpdateRoomRequest struct {
	Name         string            `db:"name"          json:"name"          validate:"omitempty,max=100"`
	LocationID   string            `db:"location_id"   json:"location_id"   validate:"omitempty"`
	Capacity     *int              `db:"capacity"      json:"capacity"      validate:"omitempty,min=1"`
	FlatRate     *int64            `db:"flat_rate"     json:"flat_rate"     validate:"omitempty,min=0"`
	HourlyRate   *int64            `db:"hourly_rate"   json:"hourly_rate"   validate:"omitempty,min=0"`
	AttendeeRate *int64            `db:"attendee_rate" json:"attendee_rate" validate:"omitempty,min=0"`
	Facilities   []FacilityRequest `json:"facilities"   validate:"omitempty,dive"`
	Active       *bool             `db:"active"        json:"active"        validate:"omitempty"`
	Description  string            `db:"description"   json:"description"   validate:"omitempty,max=1000"`
}

// ToFacilityModels builds the replacement facility rows for a room.
func (u *UpdateRoomRequest) ToFacilityModels(roomID string) []model.Facility {
	facilities := make([]model.Facility, len(u.Facilities))
	for i, facility := range u.Facilities {
		facilities[i] = model.Facility{
			ID:        uuid.NewString(),
			RoomID:    roomID,
			Name:      facility.Name,
			Cost:      facility.Cost,
			Position:  i,
			CreatedAt: timezone.Now(),
		}
	}

	return facilities
}

type FacilityResponse struct {
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

type RoomResponse struct {
	ID           string             `json:"id"`
	LocationID   string             `json:"location_id"`
	Name         string             `json:"name"`
	Capacity     int                `json:"capacity"`
	FlatRate     *int64             `json:"flat_rate"`
	HourlyRate   *int64             `json:"hourly_rate"`
	AttendeeRate *int64             `json:"attendee_rate"`
	Facilities   []FacilityResponse `json:"facilities"`
	Image        string             `json:"image"`
	Active       bool               `json:"active"`
	Description  string             `json:"description"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(mod model.Room, facilities []model.Facility) {
	r.ID = mod.ID
	r.LocationID = mod.LocationID
	r.Name = mod.Name
	r.Capacity = mod.Capacity
	r.FlatRate = mod.FlatRate
	r.HourlyRate = mod.HourlyRate
	r.AttendeeRate = mod.AttendeeRate
	r.Image = mod.Image
	r.Active = mod.Active
	r.Description = mod.Description
	r.Metadata.FromModel(mod.Metadata)

	r.Facilities = make([]FacilityResponse, len(facilities))
	for i, facility := range facilities {
		r.Facilities[i] = FacilityResponse{Name: facility.Name, Cost: facility.Cost}
	}
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, facilities map[string][]model.Facility, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod, facilities[mod.ID])
	}
}
