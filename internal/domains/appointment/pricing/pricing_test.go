package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"atrium/internal/domains/appointment/pricing"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestHours(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int64
	}{
		{
			name:  "exact hours",
			start: base,
			end:   base.Add(2 * time.Hour),
			want:  2,
		},
		{
			name:  "partial hour rounds up",
			start: base,
			end:   base.Add(90 * time.Minute),
			want:  2,
		},
		{
			name:  "short booking bills one hour",
			start: base,
			end:   base.Add(15 * time.Minute),
			want:  1,
		},
		{
			name:  "zero duration bills one hour",
			start: base,
			end:   base,
			want:  1,
		},
		{
			name:  "inverted window bills one hour",
			start: base.Add(time.Hour),
			end:   base,
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.Hours(tt.start, tt.end))
		})
	}
}

func TestSupportsCostType(t *testing.T) {
	room := pricing.Room{
		ID:         "room-1",
		FlatRate:   int64Ptr(50000),
		HourlyRate: int64Ptr(10000),
	}

	assert.True(t, pricing.SupportsCostType(room, pricing.CostTypeFlat))
	assert.True(t, pricing.SupportsCostType(room, pricing.CostTypeHourly))
	assert.False(t, pricing.SupportsCostType(room, pricing.CostTypePerAttendee))
	assert.False(t, pricing.SupportsCostType(room, "weekly"))
}

func TestRoomCost(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	room := pricing.Room{
		ID:           "room-1",
		Name:         "Boardroom",
		FlatRate:     int64Ptr(50000),
		HourlyRate:   int64Ptr(1000),
		AttendeeRate: int64Ptr(300),
		Facilities: []pricing.Facility{
			{Name: "projector", Cost: 1500},
			{Name: "catering", Cost: 7000},
		},
	}

	t.Run("flat ignores duration and attendees", func(t *testing.T) {
		breakdown, err := pricing.RoomCost(room, pricing.CostTypeFlat, start, end, 12, nil)

		assert.NoError(t, err)
		assert.Equal(t, int64(50000), breakdown.Base)
		assert.Equal(t, int64(50000), breakdown.Total)
	})

	t.Run("hourly bills rounded up hours", func(t *testing.T) {
		// 10:00 to 11:30 at 1000/hour bills two hours
		breakdown, err := pricing.RoomCost(room, pricing.CostTypeHourly, start, end, 12, nil)

		assert.NoError(t, err)
		assert.Equal(t, int64(2000), breakdown.Base)
		assert.Equal(t, int64(2000), breakdown.Total)
	})

	t.Run("per attendee multiplies headcount", func(t *testing.T) {
		breakdown, err := pricing.RoomCost(room, pricing.CostTypePerAttendee, start, end, 5, nil)

		assert.NoError(t, err)
		assert.Equal(t, int64(1500), breakdown.Base)
	})

	t.Run("facilities are flat per booking", func(t *testing.T) {
		breakdown, err := pricing.RoomCost(room, pricing.CostTypeHourly, start, end, 5, []string{"projector", "catering"})

		assert.NoError(t, err)
		assert.Equal(t, int64(2000), breakdown.Base)
		assert.Equal(t, int64(10500), breakdown.Total)
		assert.Len(t, breakdown.Facilities, 2)
	})

	t.Run("unknown facility names are ignored", func(t *testing.T) {
		breakdown, err := pricing.RoomCost(room, pricing.CostTypeFlat, start, end, 5, []string{"jacuzzi", "projector"})

		assert.NoError(t, err)
		assert.Equal(t, int64(51500), breakdown.Total)
		assert.Len(t, breakdown.Facilities, 1)
		assert.Equal(t, "projector", breakdown.Facilities[0].Name)
	})

	t.Run("unknown cost type errors", func(t *testing.T) {
		_, err := pricing.RoomCost(room, "weekly", start, end, 5, nil)

		assert.ErrorIs(t, err, pricing.ErrUnknownCostType)
	})
}

func TestAggregate(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	rooms := []pricing.Breakdown{
		{RoomID: "room-1", Total: 3000},
		{RoomID: "room-2", Total: 4500},
	}

	quote := pricing.Aggregate(start, end, 8, rooms)

	assert.Equal(t, int64(7500), quote.Total)
	assert.Equal(t, int64(3), quote.Hours)
	assert.Equal(t, 8, quote.Attendees)
	assert.Len(t, quote.Rooms, 2)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1050), pricing.ToMinorUnits(10.50))
	assert.Equal(t, int64(314), pricing.ToMinorUnits(3.14159))
	assert.Equal(t, int64(0), pricing.ToMinorUnits(0))
}
