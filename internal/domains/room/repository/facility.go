package repository

//go:generate go run go.uber.org/mock/mockgen -source=./facility.go -destination=../mocks/facility_mock.go -package=mocks

import (
	"context"

	"atrium/infras/otel"
	"atrium/infras/postgres"
	"atrium/internal/domains/room/model"
	gDto "atrium/shared/dto"
	gRepo "atrium/shared/repository"
)

type Facility interface {
	InsertBulk(ctx context.Context, models []model.Facility) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Facility, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error

	// Replace swaps a room's facility set in one call: delete then bulk
	// insert. Callers pass the already-built replacement rows.
	Replace(ctx context.Context, roomID string, models []model.Facility) error
}

type facilityRepositoryImpl struct {
	gRepo.Repository[model.Facility]
	db   *postgres.Connection
	otel otel.Otel
}

func NewFacility(db *postgres.Connection, otel otel.Otel) Facility {
	return &facilityRepositoryImpl{
		Repository: gRepo.NewRepository[model.Facility](model.FacilityEntityName, model.FacilityTableName, model.FacilityFieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (repo *facilityRepositoryImpl) Replace(ctx context.Context, roomID string, models []model.Facility) error {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FacilityFieldRoomID,
				Operator: gDto.FilterOperatorEq,
				Value:    roomID,
				Table:    model.FacilityTableName,
			},
		},
	}

	if err := repo.Repository.Delete(ctx, filter); err != nil {
		return err //nolint:wrapcheck
	}

	if len(models) == 0 {
		return nil
	}

	return repo.Repository.InsertBulk(ctx, models) //nolint:wrapcheck
}
