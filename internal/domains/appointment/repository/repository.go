package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"atrium/infras/otel"
	"atrium/infras/postgres"
	"atrium/internal/domains/appointment/availability"
	"atrium/internal/domains/appointment/lifecycle"
	"atrium/internal/domains/appointment/model"
	roomModel "atrium/internal/domains/room/model"
	"atrium/shared/constant"
	gDto "atrium/shared/dto"
	"atrium/shared/logger"
	gRepo "atrium/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Appointment interface {
	Insert(ctx context.Context, model model.Appointment) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Appointment, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Appointment, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error

	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Appointment) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	DeleteTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup) error

	LockRoomsTx(ctx context.Context, sqltx *sqlx.Tx, roomIDs []string) ([]roomModel.Room, error)
	BlockingWindows(ctx context.Context, roomIDs []string, excludeAppointmentID string) ([]availability.Interval, error)
	BlockingWindowsTx(ctx context.Context, sqltx *sqlx.Tx, roomIDs []string, excludeAppointmentID string) ([]availability.Interval, error)

	InsertRoomsTx(ctx context.Context, sqltx *sqlx.Tx, bookings []model.RoomBooking) error
	DeleteRoomsTx(ctx context.Context, sqltx *sqlx.Tx, appointmentID string) error
	GetRooms(ctx context.Context, appointmentIDs []string) ([]model.RoomBooking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Appointment]
	roomsRepo gRepo.Repository[model.RoomBooking]
	db        *postgres.Connection
	otel      otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Appointment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Appointment](model.EntityName, model.TableName, model.FieldID, db, otel),
		roomsRepo:  gRepo.NewRepository[model.RoomBooking](model.RoomsEntityName, model.RoomsTableName, model.RoomsFieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (repo *repositoryImpl) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	sqltx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to begin transaction (%s): %w", model.EntityName, err)
	}

	return sqltx, nil
}

// LockRoomsTx loads the requested rooms with row locks held until the
// surrounding transaction ends. Concurrent bookings touching the same rooms
// serialize here, so the conflict re-check that follows sees committed state.
// Rooms are locked in sorted id order; callers must pass sorted ids to keep
// lock acquisition deadlock-free.
func (repo *repositoryImpl) LockRoomsTx(ctx context.Context, sqltx *sqlx.Tx, roomIDs []string) (rooms []roomModel.Room, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.LockRoomsTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query, args, err := sqlx.In(`
		SELECT id, location_id, name, capacity, flat_rate, hourly_rate, attendee_rate, image, active, description,
		       created_at, modified_at, created_by, modified_by
		FROM rooms
		WHERE id IN (?)
		ORDER BY id
		FOR UPDATE`, roomIDs)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to build room lock query: %w", err)
	}

	query = sqltx.Rebind(query)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = sqltx.SelectContext(ctx, &rooms, query, args...); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to lock rooms: %w", err)
	}

	return rooms, nil
}

func (repo *repositoryImpl) BlockingWindows(ctx context.Context, roomIDs []string, excludeAppointmentID string) ([]availability.Interval, error) {
	return repo.blockingWindows(ctx, repo.db.Read, roomIDs, excludeAppointmentID)
}

func (repo *repositoryImpl) BlockingWindowsTx(ctx context.Context, sqltx *sqlx.Tx, roomIDs []string, excludeAppointmentID string) ([]availability.Interval, error) {
	return repo.blockingWindows(ctx, sqltx, roomIDs, excludeAppointmentID)
}

type queryer interface {
	Rebind(query string) string
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// blockingWindows returns the occupied windows of every appointment still
// holding the given rooms. Rejected and cancelled appointments release their
// windows and are filtered out here rather than in Go so the result stays
// small.
func (repo *repositoryImpl) blockingWindows(ctx context.Context, q queryer, roomIDs []string, excludeAppointmentID string) (intervals []availability.Interval, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.blockingWindows")
	defer scope.End()
	defer scope.TraceIfError(err)

	statuses := []string{lifecycle.StatusPending, lifecycle.StatusApproved}

	query := `
		SELECT a.id AS appointment_id, ar.room_id, ar.room_name, a.status, a.start_time, a.end_time
		FROM appointments a
		JOIN appointment_rooms ar ON ar.appointment_id = a.id
		WHERE ar.room_id IN (?) AND a.status IN (?)`

	args := []any{roomIDs, statuses}

	if excludeAppointmentID != constant.Empty {
		query += " AND a.id != ?"
		args = append(args, excludeAppointmentID)
	}

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to build blocking windows query: %w", err)
	}

	query = q.Rebind(query)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if err = q.SelectContext(ctx, &intervals, query, inArgs...); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to get blocking windows: %w", err)
	}

	return intervals, nil
}

func (repo *repositoryImpl) InsertRoomsTx(ctx context.Context, sqltx *sqlx.Tx, bookings []model.RoomBooking) error {
	return repo.roomsRepo.InsertBulkTx(ctx, sqltx, bookings) //nolint:wrapcheck
}

func (repo *repositoryImpl) DeleteRoomsTx(ctx context.Context, sqltx *sqlx.Tx, appointmentID string) error {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.RoomsFieldAppointmentID,
				Operator: gDto.FilterOperatorEq,
				Value:    appointmentID,
				Table:    model.RoomsTableName,
			},
		},
	}

	return repo.roomsRepo.DeleteTx(ctx, sqltx, filter) //nolint:wrapcheck
}

func (repo *repositoryImpl) GetRooms(ctx context.Context, appointmentIDs []string) ([]model.RoomBooking, error) {
	if len(appointmentIDs) == 0 {
		return []model.RoomBooking{}, nil
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.RoomsFieldAppointmentID,
				Operator: gDto.FilterOperatorIn,
				Value:    appointmentIDs,
				Table:    model.RoomsTableName,
			},
		},
	}

	params := gDto.QueryParams{
		SortBy:  model.RoomsFieldRoomID,
		SortDir: gDto.SortDirAsc,
	}

	return repo.roomsRepo.GetAll(ctx, params, filter) //nolint:wrapcheck
}
