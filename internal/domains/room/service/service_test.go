package service_test

import (
	"context"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"atrium/config"
	"atrium/infras/otel/mocks"
	s3Mocks "atrium/infras/s3/mocks"
	locationMocks "atrium/internal/domains/location/mocks"
	roomMocks "atrium/internal/domains/room/mocks"
	"atrium/internal/domains/room/model"
	"atrium/internal/domains/room/model/dto"
	"atrium/internal/domains/room/service"
	"atrium/shared/cache"
	cacheMocks "atrium/shared/cache/mocks"
	"atrium/shared/constant"
	"atrium/shared/failure"
)

type serviceMocks struct {
	repo     *roomMocks.MockRoom
	facility *roomMocks.MockFacility
	location *locationMocks.MockLocation
	cache    *cacheMocks.MockRedisCache
	s3       *s3Mocks.MockS3
}

func newService(ctrl *gomock.Controller) (service.Room, serviceMocks) {
	m := serviceMocks{
		repo:     roomMocks.NewMockRoom(ctrl),
		facility: roomMocks.NewMockFacility(ctrl),
		location: locationMocks.NewMockLocation(ctrl),
		cache:    cacheMocks.NewMockRedisCache(ctrl),
		s3:       s3Mocks.NewMockS3(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 60
	cfg.External.S3.BucketName = "atrium-assets"

	svc := service.New(m.repo, m.facility, m.location, cfg, m.cache, mocks.NewOtel(), m.s3)

	return svc, m
}

// invalidation runs in a goroutine after writes; the calls may or may not
// land before the test finishes.
func allowInvalidation(m serviceMocks) {
	m.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func int64Ptr(v int64) *int64 {
	return &v
}

func adminCtx() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)
}

func TestRoomService_Create(t *testing.T) {
	req := dto.CreateRoomRequest{
		Name:       "Boardroom",
		LocationID: "loc-1",
		Capacity:   12,
		HourlyRate: int64Ptr(1000),
		Facilities: []dto.FacilityRequest{{Name: "projector", Cost: 1500}},
	}

	t.Run("creates room with facilities", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)
		allowInvalidation(m)

		m.location.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		m.repo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, room model.Room) error {
				assert.Equal(t, "Boardroom", room.Name)
				assert.True(t, room.Active)
				assert.True(t, room.Bookable())

				return nil
			})

		m.facility.EXPECT().
			InsertBulk(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, facilities []model.Facility) error {
				assert.Len(t, facilities, 1)
				assert.Equal(t, "projector", facilities[0].Name)

				return nil
			})

		assert.NoError(t, svc.Create(adminCtx(), req))
	})

	t.Run("unknown location is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.location.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Create(adminCtx(), req)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("room without any rate is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.location.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		unbookable := req
		unbookable.HourlyRate = nil

		err := svc.Create(adminCtx(), unbookable)

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
		assert.Contains(t, err.Error(), "rate")
	})
}

func TestRoomService_Get(t *testing.T) {
	t.Run("cache miss loads room with facilities", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{ID: "room-1", Name: "Boardroom", HourlyRate: int64Ptr(1000), Active: true}, nil)

		m.facility.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Facility{{ID: "f-1", RoomID: "room-1", Name: "projector", Cost: 1500}}, nil)

		m.cache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		res, err := svc.Get(context.Background(), "room-1")

		assert.NoError(t, err)
		assert.Equal(t, "room-1", res.ID)
		assert.Len(t, res.Facilities, 1)
	})

	t.Run("missing room is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.cache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(cache.Nil)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{}, nil)

		_, err := svc.Get(context.Background(), "room-missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestRoomService_Update(t *testing.T) {
	t.Run("missing room is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Update(adminCtx(), dto.UpdateRoomRequest{Name: "Renamed"}, "room-missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("replaces facilities when provided", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)
		allowInvalidation(m)

		m.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		m.facility.EXPECT().
			Replace(gomock.Any(), "room-1", gomock.Any()).
			Return(nil)

		err := svc.Update(adminCtx(), dto.UpdateRoomRequest{
			Facilities: []dto.FacilityRequest{{Name: "whiteboard", Cost: 500}},
		}, "room-1")

		assert.NoError(t, err)
	})

	t.Run("moving to an unknown location is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		m.location.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Update(adminCtx(), dto.UpdateRoomRequest{LocationID: "loc-missing"}, "room-1")

		assert.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestRoomService_UploadImage(t *testing.T) {
	header := &multipart.FileHeader{Filename: "boardroom.png"}

	t.Run("stores image and records url", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)
		allowInvalidation(m)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{ID: "room-1", Name: "Boardroom"}, nil)

		m.s3.EXPECT().
			UploadFile(gomock.Any(), "atrium-assets", model.EntityName, gomock.Any(), header, gomock.Any()).
			Return("https://cdn.example.com/room/boardroom.png", nil)

		m.repo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, "https://cdn.example.com/room/boardroom.png", fields[model.FieldImage])

				return nil
			})

		assert.NoError(t, svc.UploadImage(adminCtx(), "room-1", nil, header))
	})

	t.Run("missing room is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Room{}, nil)

		err := svc.UploadImage(adminCtx(), "room-missing", nil, header)

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestRoomService_Delete(t *testing.T) {
	t.Run("deletes room and its facilities", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)
		allowInvalidation(m)

		m.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		m.facility.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil)

		m.repo.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil)

		assert.NoError(t, svc.Delete(adminCtx(), "room-1"))
	})

	t.Run("missing room is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Delete(adminCtx(), "room-missing")

		assert.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}
