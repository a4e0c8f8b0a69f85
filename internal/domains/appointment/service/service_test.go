package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"atrium/config"
	kafkaMocks "atrium/infras/kafka/mocks"
	"atrium/infras/otel/mocks"
	"atrium/internal/domains/appointment/availability"
	"atrium/internal/domains/appointment/lifecycle"
	appointmentMocks "atrium/internal/domains/appointment/mocks"
	"atrium/internal/domains/appointment/model"
	"atrium/internal/domains/appointment/model/dto"
	"atrium/internal/domains/appointment/service"
	roomMocks "atrium/internal/domains/room/mocks"
	roomModel "atrium/internal/domains/room/model"
	"atrium/shared/cache"
	cacheMocks "atrium/shared/cache/mocks"
	"atrium/shared/constant"
	gDto "atrium/shared/dto"
	"atrium/shared/failure"
	gModel "atrium/shared/model"
	"atrium/shared/timezone"
)

type serviceMocks struct {
	repo     *appointmentMocks.MockAppointment
	audit    *appointmentMocks.MockAudit
	room     *roomMocks.MockRoom
	facility *roomMocks.MockFacility
	cache    *cacheMocks.MockRedisCache
}

func newService(ctrl *gomock.Controller) (service.Appointment, serviceMocks) {
	m := serviceMocks{
		repo:     appointmentMocks.NewMockAppointment(ctrl),
		audit:    appointmentMocks.NewMockAudit(ctrl),
		room:     roomMocks.NewMockRoom(ctrl),
		facility: roomMocks.NewMockFacility(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 60

	svc := service.New(m.repo, m.audit, m.room, m.facility, cfg, m.cache, mocks.NewOtel(), kafkaMocks.NewMockClient(ctrl))

	return svc, m
}

func ctxWithUser(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func testRoom(id, name string) roomModel.Room {
	return roomModel.Room{
		ID:         id,
		Name:       name,
		Capacity:   20,
		FlatRate:   int64Ptr(50000),
		HourlyRate: int64Ptr(1000),
		Active:     true,
	}
}

func testAppointment(id, createdBy, status string) model.Appointment {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	return model.Appointment{
		ID:          id,
		OrderNumber: "RES-20260310-ABCDEF12",
		Title:       "Quarterly planning",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Status:      status,
		Attendees:   8,
		AgreedCost:  2000,
		Hours:       2,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  createdBy,
			ModifiedBy: createdBy,
		},
	}
}

func TestAppointmentService_Quote(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	tests := []struct {
		name      string
		req       dto.QuoteRequest
		setupMock func(m serviceMocks)
		wantTotal int64
		wantErr   bool
		wantCode  int
	}{
		{
			name: "prices multiple rooms with facilities",
			req: dto.QuoteRequest{
				Rooms: []dto.RoomSelection{
					{RoomID: "room-a", CostType: "hourly", Facilities: []string{"projector"}},
					{RoomID: "room-b", CostType: "flat"},
				},
				StartTime: start,
				EndTime:   end,
				Attendees: 5,
			},
			setupMock: func(m serviceMocks) {
				m.room.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Room{testRoom("room-a", "Boardroom"), testRoom("room-b", "Auditorium")}, nil)

				m.facility.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Facility{{ID: "f-1", RoomID: "room-a", Name: "projector", Cost: 1500}}, nil)
			},
			// 90 minutes bills two hours at 1000, plus the projector, plus the flat room
			wantTotal: 53500,
		},
		{
			name: "inverted window is rejected",
			req: dto.QuoteRequest{
				Rooms:     []dto.RoomSelection{{RoomID: "room-a", CostType: "hourly"}},
				StartTime: end,
				EndTime:   start,
				Attendees: 5,
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "duplicate room selection is rejected",
			req: dto.QuoteRequest{
				Rooms: []dto.RoomSelection{
					{RoomID: "room-a", CostType: "hourly"},
					{RoomID: "room-a", CostType: "flat"},
				},
				StartTime: start,
				EndTime:   end,
				Attendees: 5,
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown room is not found",
			req: dto.QuoteRequest{
				Rooms:     []dto.RoomSelection{{RoomID: "room-missing", CostType: "hourly"}},
				StartTime: start,
				EndTime:   end,
				Attendees: 5,
			},
			setupMock: func(m serviceMocks) {
				m.room.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Room{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "inactive room is rejected",
			req: dto.QuoteRequest{
				Rooms:     []dto.RoomSelection{{RoomID: "room-a", CostType: "hourly"}},
				StartTime: start,
				EndTime:   end,
				Attendees: 5,
			},
			setupMock: func(m serviceMocks) {
				closed := testRoom("room-a", "Boardroom")
				closed.Active = false

				m.room.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Room{closed}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "attendees over capacity is rejected",
			req: dto.QuoteRequest{
				Rooms:     []dto.RoomSelection{{RoomID: "room-a", CostType: "hourly"}},
				StartTime: start,
				EndTime:   end,
				Attendees: 50,
			},
			setupMock: func(m serviceMocks) {
				m.room.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Room{testRoom("room-a", "Boardroom")}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "cost type the room does not offer is rejected",
			req: dto.QuoteRequest{
				Rooms:     []dto.RoomSelection{{RoomID: "room-a", CostType: "per_attendee"}},
				StartTime: start,
				EndTime:   end,
				Attendees: 5,
			},
			setupMock: func(m serviceMocks) {
				m.room.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Room{testRoom("room-a", "Boardroom")}, nil)

				m.facility.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]roomModel.Facility{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newService(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			quote, err := svc.Quote(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantTotal, quote.Total)
			assert.Equal(t, int64(2), quote.Hours)
		})
	}
}

func TestAppointmentService_CheckAvailability(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	t.Run("unknown room is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.room.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		_, err := svc.CheckAvailability(context.Background(), "room-missing", start, end)

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("occupied window is reported busy", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.room.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		m.repo.EXPECT().
			BlockingWindows(gomock.Any(), []string{"room-a"}, constant.Empty).
			Return([]availability.Interval{
				{
					AppointmentID: "apt-1",
					RoomID:        "room-a",
					Status:        lifecycle.StatusApproved,
					Start:         start.Add(30 * time.Minute),
					End:           start.Add(2 * time.Hour),
				},
			}, nil)

		res, err := svc.CheckAvailability(context.Background(), "room-a", start, end)

		assert.NoError(t, err)
		assert.False(t, res.Available)
		assert.Len(t, res.Busy, 1)
		assert.Equal(t, lifecycle.StatusApproved, res.Busy[0].Status)
	})

	t.Run("free window is available", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.room.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		m.repo.EXPECT().
			BlockingWindows(gomock.Any(), []string{"room-a"}, constant.Empty).
			Return([]availability.Interval{
				{
					AppointmentID: "apt-1",
					RoomID:        "room-a",
					Status:        lifecycle.StatusApproved,
					Start:         end,
					End:           end.Add(time.Hour),
				},
			}, nil)

		res, err := svc.CheckAvailability(context.Background(), "room-a", start, end)

		assert.NoError(t, err)
		assert.True(t, res.Available)
		assert.Empty(t, res.Busy)
	})
}

func TestAppointmentService_Get(t *testing.T) {
	t.Run("guest reads own appointment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		appointment := testAppointment("apt-1", "guest-1", lifecycle.StatusPending)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(appointment, nil)

		m.repo.EXPECT().
			GetRooms(gomock.Any(), []string{"apt-1"}).
			Return([]model.RoomBooking{{AppointmentID: "apt-1", RoomID: "room-a", RoomName: "Boardroom"}}, nil)

		res, err := svc.Get(ctxWithUser("guest-1", constant.RoleGuest), "apt-1")

		assert.NoError(t, err)
		assert.Equal(t, "apt-1", res.ID)
		assert.Len(t, res.Rooms, 1)
	})

	t.Run("guest cannot read another guest's appointment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusPending), nil)

		_, err := svc.Get(ctxWithUser("guest-2", constant.RoleGuest), "apt-1")

		assert.ErrorIs(t, err, failure.ResourceRestrictedError)
	})

	t.Run("director reads any appointment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusPending), nil)

		m.repo.EXPECT().
			GetRooms(gomock.Any(), []string{"apt-1"}).
			Return(nil, nil)

		_, err := svc.Get(ctxWithUser("director-1", constant.RoleDirector), "apt-1")

		assert.NoError(t, err)
	})

	t.Run("missing appointment is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Appointment{}, nil)

		_, err := svc.Get(ctxWithUser("admin-1", constant.RoleAdmin), "apt-missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestAppointmentService_GetAll(t *testing.T) {
	t.Run("guest listing is restricted to own appointments", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		appointment := testAppointment("apt-1", "guest-1", lifecycle.StatusPending)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil).
			Times(2)

		m.repo.EXPECT().
			Count(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
				assert.NotEmpty(t, filter.Filters)

				owned, ok := filter.Filters[len(filter.Filters)-1].(gDto.Filter)
				assert.True(t, ok)
				assert.Equal(t, model.FieldCreatedBy, owned.Field)
				assert.Equal(t, "guest-1", owned.Value)

				return 1, nil
			})

		m.repo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Appointment{appointment}, nil)

		m.repo.EXPECT().
			GetRooms(gomock.Any(), []string{"apt-1"}).
			Return([]model.RoomBooking{{AppointmentID: "apt-1", RoomID: "room-a"}}, nil)

		m.cache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		res, err := svc.GetAll(ctxWithUser("guest-1", constant.RoleGuest), gDto.QueryParams{Limit: 10}, gDto.FilterGroup{})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.TotalData)
		assert.Len(t, res.Appointments, 1)
		assert.Len(t, res.Appointments[0].Rooms, 1)
	})

	t.Run("cache hit skips the repository", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				res, ok := value.(*dto.GetAppointmentsResponse)
				assert.True(t, ok)
				res.TotalData = 3

				return nil
			})

		res, err := svc.GetAll(ctxWithUser("admin-1", constant.RoleAdmin), gDto.QueryParams{Limit: 10}, gDto.FilterGroup{})

		assert.NoError(t, err)
		assert.Equal(t, 3, res.TotalData)
	})
}

func TestAppointmentService_Update(t *testing.T) {
	t.Run("terminal appointment rejects edits", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusCancelled), nil)

		err := svc.Update(ctxWithUser("admin-1", constant.RoleAdmin), dto.UpdateAppointmentRequest{Title: "New title"}, "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
		assert.Contains(t, err.Error(), "can no longer be modified")
	})

	t.Run("enabling custom pricing requires agreed cost", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusPending), nil)

		err := svc.Update(ctxWithUser("admin-1", constant.RoleAdmin), dto.UpdateAppointmentRequest{IsCustom: boolPtr(true)}, "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		assert.Contains(t, err.Error(), "agreed_cost")
	})
}

func TestAppointmentService_Cancel(t *testing.T) {
	t.Run("guest cannot cancel another guest's appointment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusPending), nil)

		err := svc.Cancel(ctxWithUser("guest-2", constant.RoleGuest), "apt-1")

		assert.ErrorIs(t, err, failure.ResourceRestrictedError)
	})

	t.Run("cancelled appointment cannot be cancelled again", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusCancelled), nil)

		err := svc.Cancel(ctxWithUser("admin-1", constant.RoleAdmin), "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	})
}

func TestAppointmentService_Approve(t *testing.T) {
	t.Run("rejected appointment cannot be approved", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusRejected), nil)

		err := svc.Approve(ctxWithUser("director-1", constant.RoleDirector), "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	})
}

func TestAppointmentService_Delete(t *testing.T) {
	t.Run("live appointment cannot be deleted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusApproved), nil)

		err := svc.Delete(ctxWithUser("admin-1", constant.RoleAdmin), "apt-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
		assert.Contains(t, err.Error(), "cancel or reject")
	})
}

func TestAppointmentService_GetAuditLogs(t *testing.T) {
	t.Run("owner reads the trail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusApproved), nil)

		m.audit.EXPECT().
			GetAll(gomock.Any(), "apt-1").
			Return([]model.AuditLog{
				{ID: "log-1", AppointmentID: "apt-1", Actor: "guest-1", Action: lifecycle.ActionCreate},
				{ID: "log-2", AppointmentID: "apt-1", Actor: "director-1", Action: lifecycle.ActionApprove},
			}, nil)

		res, err := svc.GetAuditLogs(ctxWithUser("guest-1", constant.RoleGuest), "apt-1")

		assert.NoError(t, err)
		assert.Len(t, res.Logs, 2)
		assert.Equal(t, lifecycle.ActionApprove, res.Logs[1].Action)
	})

	t.Run("guest cannot read another guest's trail", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(testAppointment("apt-1", "guest-1", lifecycle.StatusApproved), nil)

		_, err := svc.GetAuditLogs(ctxWithUser("guest-2", constant.RoleGuest), "apt-1")

		assert.ErrorIs(t, err, failure.ResourceRestrictedError)
	})
}

func TestAppointmentService_Create_Validation(t *testing.T) {
	start := timezone.Now().Add(time.Hour)

	t.Run("start in the past is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, _ := newService(ctrl)

		past := timezone.Now().Add(-time.Hour)

		_, err := svc.Create(ctxWithUser("guest-1", constant.RoleGuest), dto.CreateAppointmentRequest{
			Rooms:     []dto.RoomSelection{{RoomID: "room-a", CostType: "hourly"}},
			StartTime: past,
			EndTime:   past.Add(time.Hour),
			Attendees: 5,
		})

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		assert.Contains(t, err.Error(), "past")
	})

	t.Run("duplicate rooms are rejected before any lock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, _ := newService(ctrl)

		_, err := svc.Create(ctxWithUser("guest-1", constant.RoleGuest), dto.CreateAppointmentRequest{
			Rooms: []dto.RoomSelection{
				{RoomID: "room-a", CostType: "hourly"},
				{RoomID: "room-a", CostType: "flat"},
			},
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Attendees: 5,
		})

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}
