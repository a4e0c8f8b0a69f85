package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"atrium/config"
	"atrium/infras/kafka"
	"atrium/infras/otel"
	"atrium/internal/domains/appointment/availability"
	"atrium/internal/domains/appointment/lifecycle"
	"atrium/internal/domains/appointment/model"
	"atrium/internal/domains/appointment/model/dto"
	"atrium/internal/domains/appointment/pricing"
	"atrium/internal/domains/appointment/repository"
	roomModel "atrium/internal/domains/room/model"
	roomRepo "atrium/internal/domains/room/repository"
	"atrium/shared"
	"atrium/shared/cache"
	"atrium/shared/constant"
	gDto "atrium/shared/dto"
	"atrium/shared/failure"
	"atrium/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetAllAppointment = "appointment:gets"
	cacheCountAppointment  = "appointment:count"

	orderNumberDateFormat = "20060102"
)

// Appointment event types published to Kafka. Delivery is fire and forget;
// a failed publish never fails the booking.
const (
	EventCreated   = "appointment.created"
	EventUpdated   = "appointment.updated"
	EventApproved  = "appointment.approved"
	EventRejected  = "appointment.rejected"
	EventCancelled = "appointment.cancelled"
	EventDeleted   = "appointment.deleted"
)

type Event struct {
	Type          string `json:"type"`
	AppointmentID string `json:"appointment_id"`
	OrderNumber   string `json:"order_number"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}

type Appointment interface {
	Create(ctx context.Context, req dto.CreateAppointmentRequest) (dto.AppointmentResponse, error)
	Quote(ctx context.Context, req dto.QuoteRequest) (pricing.Quote, error)
	CheckAvailability(ctx context.Context, roomID string, start, end time.Time) (dto.AvailabilityResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetAppointmentsResponse, error)
	Count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.AppointmentResponse, error)
	Update(ctx context.Context, req dto.UpdateAppointmentRequest, id string) error
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	GetAuditLogs(ctx context.Context, id string) (dto.GetAuditLogsResponse, error)
}

type serviceImpl struct {
	repo         repository.Appointment
	auditRepo    repository.Audit
	roomRepo     roomRepo.Room
	facilityRepo roomRepo.Facility
	cfg          *config.Config
	cache        cache.RedisCache
	otel         otel.Otel
	kafka        kafka.Client
}

func New(repo repository.Appointment, auditRepo repository.Audit, roomRepo roomRepo.Room, facilityRepo roomRepo.Facility, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, kafka kafka.Client) Appointment {
	return &serviceImpl{
		repo:         repo,
		auditRepo:    auditRepo,
		roomRepo:     roomRepo,
		facilityRepo: facilityRepo,
		cfg:          cfg,
		cache:        cache,
		otel:         otel,
		kafka:        kafka,
	}
}

// Create books one or more rooms over a single window as one appointment.
// Either every requested room is available and the whole set is committed, or
// nothing is written. Room rows are locked before the availability re-check so
// two racing requests for the same room serialize instead of double-booking.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateAppointmentRequest) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err = s.validateWindow(req.StartTime, req.EndTime, true); err != nil {
		return res, err
	}

	roomIDs, err := uniqueSortedRoomIDs(req.RoomIDs())
	if err != nil {
		return res, err
	}

	sqltx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		if err != nil {
			s.rollback(sqltx)
		}
	}()

	rateCards, err := s.lockRateCards(ctx, sqltx, roomIDs, req.Attendees)
	if err != nil {
		return res, err
	}

	breakdowns, err := s.price(req.Rooms, rateCards, req.StartTime, req.EndTime, req.Attendees)
	if err != nil {
		return res, err
	}

	if err = s.ensureAvailableTx(ctx, sqltx, roomIDs, req.StartTime, req.EndTime, constant.Empty, rateCards); err != nil {
		return res, err
	}

	quote := pricing.Aggregate(req.StartTime, req.EndTime, req.Attendees, breakdowns)

	appointment := req.ToModel(user, s.orderNumber(), quote)
	appointment.Status = lifecycle.StatusPending

	if err = s.repo.InsertTx(ctx, sqltx, appointment); err != nil {
		log.Error().Err(err).Msg("failed to create appointment")

		return res, fmt.Errorf("failed to create appointment: %w", err)
	}

	bookings := toRoomBookings(appointment.ID, breakdowns)
	if err = s.repo.InsertRoomsTx(ctx, sqltx, bookings); err != nil {
		log.Error().Err(err).Msg("failed to create appointment rooms")

		return res, fmt.Errorf("failed to create appointment rooms: %w", err)
	}

	audit := s.auditEntry(appointment.ID, user, lifecycle.ActionCreate, nil, model.JSONMap{
		model.FieldStatus:      appointment.Status,
		model.FieldStartTime:   appointment.StartTime,
		model.FieldEndTime:     appointment.EndTime,
		model.FieldAgreedCost:  appointment.AgreedCost,
		model.FieldOrderNumber: appointment.OrderNumber,
	})
	if err = s.auditRepo.InsertTx(ctx, sqltx, audit); err != nil {
		log.Error().Err(err).Msg("failed to record appointment audit log")

		return res, fmt.Errorf("failed to record appointment audit log: %w", err)
	}

	if err = sqltx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit booking transaction")

		return res, fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	s.publishEvent(ctx, EventCreated, appointment)
	s.invalidateAppointments(ctx)

	res.FromModel(appointment, bookings)

	return res, nil
}

// Quote prices a prospective booking without reserving anything.
func (s *serviceImpl) Quote(ctx context.Context, req dto.QuoteRequest) (res pricing.Quote, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Quote")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.validateWindow(req.StartTime, req.EndTime, false); err != nil {
		return res, err
	}

	roomIDs, err := uniqueSortedRoomIDs(req.RoomIDs())
	if err != nil {
		return res, err
	}

	rateCards, err := s.rateCards(ctx, roomIDs, req.Attendees)
	if err != nil {
		return res, err
	}

	breakdowns, err := s.price(req.Rooms, rateCards, req.StartTime, req.EndTime, req.Attendees)
	if err != nil {
		return res, err
	}

	return pricing.Aggregate(req.StartTime, req.EndTime, req.Attendees, breakdowns), nil
}

// CheckAvailability reports whether one room is free over a window, listing
// the occupied windows that overlap it.
func (s *serviceImpl) CheckAvailability(ctx context.Context, roomID string, start, end time.Time) (res dto.AvailabilityResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckAvailability")
	defer scope.End()
	defer scope.TraceIfError(err)

	if err = s.validateWindow(start, end, false); err != nil {
		return res, err
	}

	exist, err := s.roomRepo.Exist(ctx, shared.FilterByID(roomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if room exists")

		return res, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound("room not found") //nolint:wrapcheck
	}

	intervals, err := s.repo.BlockingWindows(ctx, []string{roomID}, constant.Empty)
	if err != nil {
		log.Error().Err(err).Msg("failed to get blocking windows")

		return res, fmt.Errorf("failed to get blocking windows: %w", err)
	}

	res = dto.AvailabilityResponse{
		RoomID:    roomID,
		StartTime: timezone.Format(start, constant.DateFormat),
		EndTime:   timezone.Format(end, constant.DateFormat),
		Available: availability.IsAvailable(start, end, intervals),
		Busy:      []dto.BusyWindowResponse{},
	}

	for _, iv := range intervals {
		if !availability.Overlaps(start, end, iv.Start, iv.End) {
			continue
		}

		res.Busy = append(res.Busy, dto.BusyWindowResponse{
			StartTime: timezone.Format(iv.Start, constant.DateFormat),
			EndTime:   timezone.Format(iv.End, constant.DateFormat),
			Status:    iv.Status,
		})
	}

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetAppointmentsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter = s.restrictToOwner(ctx, filter)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllAppointment, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointments")

		return res, nil
	}

	total, err := s.Count(ctx, params, filter)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointments")

		return res, fmt.Errorf("failed to get appointments: %w", err)
	}

	ids := make([]string, len(models))
	for i, mod := range models {
		ids[i] = mod.ID
	}

	bookings, err := s.bookingsByAppointment(ctx, ids)
	if err != nil {
		return res, err
	}

	res.FromModels(models, bookings, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointments to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter = s.restrictToOwner(ctx, filter)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountAppointment, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for appointment count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count appointments")

		return res, fmt.Errorf("failed to count appointments: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save appointment count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.AppointmentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	appointment, err := s.getOwned(ctx, id)
	if err != nil {
		return res, err
	}

	bookings, err := s.bookingsByAppointment(ctx, []string{id})
	if err != nil {
		return res, err
	}

	res.FromModel(appointment, bookings[id])

	return res, nil
}

// Update edits a non-terminal appointment. Changing the rooms, the window or
// the attendee count re-prices the booking and re-checks availability under
// the same locks as Create; terminal appointments reject every edit. While
// custom pricing is active the stored room line items stay untouched unless
// the edit changes rooms, window or attendees; toggling custom pricing off
// recomputes the agreed cost from current rates.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateAppointmentRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	appointment, err := s.getAppointment(ctx, id)
	if err != nil {
		return err
	}

	if lifecycle.Terminal(appointment.Status) {
		return failure.UnprocessableEntity(fmt.Sprintf("appointment is %s and can no longer be modified", appointment.Status)) //nolint:wrapcheck
	}

	start := appointment.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}

	end := appointment.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}

	attendees := appointment.Attendees
	if req.Attendees != nil {
		attendees = *req.Attendees
	}

	if err = s.validateWindow(start, end, req.StartTime != nil); err != nil {
		return err
	}

	isCustom := appointment.IsCustom
	if req.IsCustom != nil {
		isCustom = *req.IsCustom
	}

	if isCustom && req.AgreedCost == nil && !appointment.IsCustom {
		return failure.BadRequestFromString("custom pricing requires agreed_cost") //nolint:wrapcheck
	}

	reprice := needsReprice(isCustom, req)

	var (
		selections []dto.RoomSelection
		roomIDs    []string
	)

	if reprice {
		selections = req.Rooms
		if selections == nil {
			currentBookings, bookingsErr := s.bookingsByAppointment(ctx, []string{id})
			if bookingsErr != nil {
				return bookingsErr
			}

			selections = toSelections(currentBookings[id])
		}

		roomIDs, err = uniqueSortedRoomIDs(selectionRoomIDs(selections))
		if err != nil {
			return err
		}
	}

	sqltx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin booking transaction: %w", err)
	}

	defer func() {
		if err != nil {
			s.rollback(sqltx)
		}
	}()

	quoted := appointment.AgreedCost
	hours := appointment.Hours

	var breakdowns []pricing.Breakdown

	if reprice {
		var rateCards map[string]pricing.Room

		rateCards, err = s.lockRateCards(ctx, sqltx, roomIDs, attendees)
		if err != nil {
			return err
		}

		breakdowns, err = s.price(selections, rateCards, start, end, attendees)
		if err != nil {
			return err
		}

		if err = s.ensureAvailableTx(ctx, sqltx, roomIDs, start, end, id, rateCards); err != nil {
			return err
		}

		quote := pricing.Aggregate(start, end, attendees, breakdowns)
		quoted = quote.Total
		hours = quote.Hours
	}

	agreedCost := resolveAgreedCost(isCustom, appointment.AgreedCost, req.AgreedCost, quoted)

	updatedFields := shared.TransformFields(req, user)
	updatedFields[model.FieldStartTime] = start
	updatedFields[model.FieldEndTime] = end
	updatedFields[model.FieldAttendees] = attendees
	updatedFields[model.FieldAgreedCost] = agreedCost
	updatedFields[model.FieldHours] = hours
	updatedFields[model.FieldIsCustom] = isCustom

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	if err = s.repo.UpdateTx(ctx, sqltx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update appointment")

		return fmt.Errorf("failed to update appointment: %w", err)
	}

	if reprice {
		if err = s.repo.DeleteRoomsTx(ctx, sqltx, id); err != nil {
			log.Error().Err(err).Msg("failed to replace appointment rooms")

			return fmt.Errorf("failed to replace appointment rooms: %w", err)
		}

		if err = s.repo.InsertRoomsTx(ctx, sqltx, toRoomBookings(id, breakdowns)); err != nil {
			log.Error().Err(err).Msg("failed to replace appointment rooms")

			return fmt.Errorf("failed to replace appointment rooms: %w", err)
		}
	}

	audit := s.auditEntry(id, user, lifecycle.ActionUpdate,
		model.JSONMap{
			model.FieldStartTime:  appointment.StartTime,
			model.FieldEndTime:    appointment.EndTime,
			model.FieldAttendees:  appointment.Attendees,
			model.FieldAgreedCost: appointment.AgreedCost,
			model.FieldIsCustom:   appointment.IsCustom,
		},
		model.JSONMap{
			model.FieldStartTime:  start,
			model.FieldEndTime:    end,
			model.FieldAttendees:  attendees,
			model.FieldAgreedCost: agreedCost,
			model.FieldIsCustom:   isCustom,
		})
	if err = s.auditRepo.InsertTx(ctx, sqltx, audit); err != nil {
		log.Error().Err(err).Msg("failed to record appointment audit log")

		return fmt.Errorf("failed to record appointment audit log: %w", err)
	}

	if err = sqltx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit booking transaction")

		return fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	s.publishEvent(ctx, EventUpdated, appointment)
	s.invalidateAppointments(ctx)

	return nil
}

func (s *serviceImpl) Approve(ctx context.Context, id string) error {
	return s.transition(ctx, id, lifecycle.StatusApproved, EventApproved)
}

func (s *serviceImpl) Reject(ctx context.Context, id string) error {
	return s.transition(ctx, id, lifecycle.StatusRejected, EventRejected)
}

// Cancel moves an appointment to cancelled and frees its rooms. Guests may
// cancel only their own appointments; approval roles may cancel any.
func (s *serviceImpl) Cancel(ctx context.Context, id string) error {
	return s.transition(ctx, id, lifecycle.StatusCancelled, EventCancelled)
}

// Delete removes a terminal appointment and its room rows. The audit trail of
// live appointments must stay intact, so only rejected or cancelled
// appointments can be deleted.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	appointment, err := s.getAppointment(ctx, id)
	if err != nil {
		return err
	}

	if !lifecycle.Terminal(appointment.Status) {
		return failure.UnprocessableEntity(fmt.Sprintf("appointment is %s; cancel or reject it before deleting", appointment.Status)) //nolint:wrapcheck
	}

	sqltx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			s.rollback(sqltx)
		}
	}()

	if err = s.repo.DeleteRoomsTx(ctx, sqltx, id); err != nil {
		log.Error().Err(err).Msg("failed to delete appointment rooms")

		return fmt.Errorf("failed to delete appointment rooms: %w", err)
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	if err = s.repo.DeleteTx(ctx, sqltx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete appointment")

		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	if err = sqltx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publishEvent(ctx, EventDeleted, appointment)
	s.invalidateAppointments(ctx)

	return nil
}

func (s *serviceImpl) GetAuditLogs(ctx context.Context, id string) (res dto.GetAuditLogsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAuditLogs")
	defer scope.End()
	defer scope.TraceIfError(err)

	if _, err = s.getOwned(ctx, id); err != nil {
		return res, err
	}

	logs, err := s.auditRepo.GetAll(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment audit logs")

		return res, fmt.Errorf("failed to get appointment audit logs: %w", err)
	}

	res.FromModels(logs)

	return res, nil
}

// transition applies one lifecycle change and records it atomically with its
// audit entry.
func (s *serviceImpl) transition(ctx context.Context, id, target, eventType string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	appointment, err := s.getAppointment(ctx, id)
	if err != nil {
		return err
	}

	if target == lifecycle.StatusCancelled {
		if err = s.ensureOwned(ctx, appointment); err != nil {
			return err
		}
	}

	if err = lifecycle.Transition(appointment.Status, target); err != nil {
		return err
	}

	sqltx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			s.rollback(sqltx)
		}
	}()

	updatedFields := map[string]any{
		model.FieldStatus:        target,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	if err = s.repo.UpdateTx(ctx, sqltx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update appointment status")

		return fmt.Errorf("failed to update appointment status: %w", err)
	}

	audit := s.auditEntry(id, user, lifecycle.ActionFor(target),
		model.JSONMap{model.FieldStatus: appointment.Status},
		model.JSONMap{model.FieldStatus: target})
	if err = s.auditRepo.InsertTx(ctx, sqltx, audit); err != nil {
		log.Error().Err(err).Msg("failed to record appointment audit log")

		return fmt.Errorf("failed to record appointment audit log: %w", err)
	}

	if err = sqltx.Commit(); err != nil {
		log.Error().Err(err).Msg("failed to commit transaction")

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	appointment.Status = target
	s.publishEvent(ctx, eventType, appointment)
	s.invalidateAppointments(ctx)

	return nil
}

func (s *serviceImpl) getAppointment(ctx context.Context, id string) (model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment")

		return appointment, fmt.Errorf("failed to get appointment: %w", err)
	}

	if appointment.ID == constant.Empty {
		return appointment, failure.NotFound("appointment not found") //nolint:wrapcheck
	}

	return appointment, nil
}

// getOwned loads an appointment and enforces that guests only see their own.
func (s *serviceImpl) getOwned(ctx context.Context, id string) (model.Appointment, error) {
	appointment, err := s.getAppointment(ctx, id)
	if err != nil {
		return appointment, err
	}

	if err = s.ensureOwned(ctx, appointment); err != nil {
		return appointment, err
	}

	return appointment, nil
}

func (s *serviceImpl) ensureOwned(ctx context.Context, appointment model.Appointment) error {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role != constant.RoleGuest {
		return nil
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if appointment.CreatedBy != user {
		return failure.ResourceRestrictedError //nolint:wrapcheck
	}

	return nil
}

// restrictToOwner narrows list queries to the caller's own appointments when
// the caller is a guest.
func (s *serviceImpl) restrictToOwner(ctx context.Context, filter gDto.FilterGroup) gDto.FilterGroup {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role != constant.RoleGuest {
		return filter
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	owned := gDto.Filter{
		Field:    model.FieldCreatedBy,
		Operator: gDto.FilterOperatorEq,
		Value:    user,
		Table:    model.TableName,
	}

	if len(filter.Filters) == 0 {
		return gDto.FilterGroup{Filters: []any{owned}}
	}

	return gDto.FilterGroup{
		Filters:  []any{filter, owned},
		Operator: gDto.FilterGroupOperatorAnd,
	}
}

// validateWindow enforces the half-open window rules shared by every booking
// path: the end must come after the start, and new windows may not start in
// the past beyond the configured grace.
func (s *serviceImpl) validateWindow(start, end time.Time, rejectPast bool) error {
	if start.IsZero() || end.IsZero() {
		return failure.BadRequestFromString("start_time and end_time are required") //nolint:wrapcheck
	}

	if !start.Before(end) {
		return failure.BadRequestFromString("end_time must be after start_time") //nolint:wrapcheck
	}

	if !rejectPast {
		return nil
	}

	grace := time.Duration(s.cfg.Booking.AllowPastGraceS) * time.Second
	if start.Before(timezone.Now().Add(-grace)) {
		return failure.BadRequestFromString("start_time cannot be in the past") //nolint:wrapcheck
	}

	return nil
}

// lockRateCards locks the requested room rows for the rest of the transaction
// and returns their rate cards.
func (s *serviceImpl) lockRateCards(ctx context.Context, sqltx *sqlx.Tx, roomIDs []string, attendees int) (map[string]pricing.Room, error) {
	rooms, err := s.repo.LockRoomsTx(ctx, sqltx, roomIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to lock rooms")

		return nil, fmt.Errorf("failed to lock rooms: %w", err)
	}

	return s.buildRateCards(ctx, roomIDs, rooms, attendees)
}

// rateCards loads rate cards without locks, for quotes.
func (s *serviceImpl) rateCards(ctx context.Context, roomIDs []string, attendees int) (map[string]pricing.Room, error) {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    roomModel.FieldID,
				Operator: gDto.FilterOperatorIn,
				Value:    roomIDs,
				Table:    roomModel.TableName,
			},
		},
	}

	rooms, err := s.roomRepo.GetAll(ctx, gDto.QueryParams{}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get rooms")

		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}

	return s.buildRateCards(ctx, roomIDs, rooms, attendees)
}

func (s *serviceImpl) buildRateCards(ctx context.Context, roomIDs []string, rooms []roomModel.Room, attendees int) (map[string]pricing.Room, error) {
	byID := make(map[string]roomModel.Room, len(rooms))
	for _, room := range rooms {
		byID[room.ID] = room
	}

	for _, id := range roomIDs {
		room, ok := byID[id]
		if !ok {
			return nil, failure.NotFound(fmt.Sprintf("room %q not found", id)) //nolint:wrapcheck
		}

		if !room.Active {
			return nil, failure.BadRequestFromString(fmt.Sprintf("room %q is not open for booking", room.Name)) //nolint:wrapcheck
		}

		if attendees > room.Capacity {
			return nil, failure.BadRequestFromString(fmt.Sprintf("room %q holds %d attendees at most", room.Name, room.Capacity)) //nolint:wrapcheck
		}
	}

	facilities, err := s.facilitiesByRoom(ctx, roomIDs)
	if err != nil {
		return nil, err
	}

	rateCards := make(map[string]pricing.Room, len(rooms))

	for id, room := range byID {
		card := pricing.Room{
			ID:           room.ID,
			Name:         room.Name,
			FlatRate:     room.FlatRate,
			HourlyRate:   room.HourlyRate,
			AttendeeRate: room.AttendeeRate,
		}

		for _, facility := range facilities[id] {
			card.Facilities = append(card.Facilities, pricing.Facility{
				Name: facility.Name,
				Cost: facility.Cost,
			})
		}

		rateCards[id] = card
	}

	return rateCards, nil
}

func (s *serviceImpl) facilitiesByRoom(ctx context.Context, roomIDs []string) (map[string][]roomModel.Facility, error) {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    roomModel.FacilityFieldRoomID,
				Operator: gDto.FilterOperatorIn,
				Value:    roomIDs,
				Table:    roomModel.FacilityTableName,
			},
		},
	}

	params := gDto.QueryParams{
		SortBy:  roomModel.FacilityFieldPosition,
		SortDir: gDto.SortDirAsc,
	}

	facilities, err := s.facilityRepo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get room facilities")

		return nil, fmt.Errorf("failed to get room facilities: %w", err)
	}

	result := make(map[string][]roomModel.Facility, len(roomIDs))
	for _, facility := range facilities {
		result[facility.RoomID] = append(result[facility.RoomID], facility)
	}

	return result, nil
}

// price validates each selection's cost model against the room's rate card
// and returns the per-room breakdowns.
func (s *serviceImpl) price(selections []dto.RoomSelection, rateCards map[string]pricing.Room, start, end time.Time, attendees int) ([]pricing.Breakdown, error) {
	breakdowns := make([]pricing.Breakdown, 0, len(selections))

	for _, selection := range selections {
		card := rateCards[selection.RoomID]

		if !pricing.SupportsCostType(card, selection.CostType) {
			return nil, failure.BadRequestFromString(fmt.Sprintf("room %q does not offer %s pricing", card.Name, selection.CostType)) //nolint:wrapcheck
		}

		breakdown, err := pricing.RoomCost(card, selection.CostType, start, end, attendees, selection.Facilities)
		if err != nil {
			return nil, failure.BadRequest(err) //nolint:wrapcheck
		}

		breakdowns = append(breakdowns, breakdown)
	}

	return breakdowns, nil
}

// ensureAvailableTx re-checks every requested room against the committed
// calendar while the room rows are locked. Any overlap fails the whole
// booking, naming the first conflicting room.
func (s *serviceImpl) ensureAvailableTx(ctx context.Context, sqltx *sqlx.Tx, roomIDs []string, start, end time.Time, excludeAppointmentID string, rateCards map[string]pricing.Room) error {
	intervals, err := s.repo.BlockingWindowsTx(ctx, sqltx, roomIDs, excludeAppointmentID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get blocking windows")

		return fmt.Errorf("failed to get blocking windows: %w", err)
	}

	for _, id := range roomIDs {
		roomIntervals := make([]availability.Interval, 0, len(intervals))

		for _, iv := range intervals {
			if iv.RoomID == id {
				roomIntervals = append(roomIntervals, iv)
			}
		}

		if conflict, found := availability.FirstConflict(start, end, roomIntervals); found {
			return failure.Conflict(fmt.Sprintf("room %q is already booked from %s to %s", //nolint:wrapcheck
				rateCards[id].Name,
				timezone.Format(conflict.Start, constant.DateFormat),
				timezone.Format(conflict.End, constant.DateFormat)))
		}
	}

	return nil
}

func (s *serviceImpl) orderNumber() string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])

	return fmt.Sprintf("%s-%s-%s", s.cfg.Booking.OrderPrefix, timezone.Now().Format(orderNumberDateFormat), fragment)
}

func (s *serviceImpl) auditEntry(appointmentID, actor, action string, oldData, newData model.JSONMap) model.AuditLog {
	return model.AuditLog{
		ID:            uuid.NewString(),
		AppointmentID: appointmentID,
		Actor:         actor,
		Action:        action,
		OldData:       oldData,
		NewData:       newData,
		CreatedAt:     timezone.Now(),
	}
}

func (s *serviceImpl) bookingsByAppointment(ctx context.Context, appointmentIDs []string) (map[string][]model.RoomBooking, error) {
	bookings, err := s.repo.GetRooms(ctx, appointmentIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to get appointment rooms")

		return nil, fmt.Errorf("failed to get appointment rooms: %w", err)
	}

	result := make(map[string][]model.RoomBooking, len(appointmentIDs))
	for _, booking := range bookings {
		result[booking.AppointmentID] = append(result[booking.AppointmentID], booking)
	}

	return result, nil
}

func (s *serviceImpl) publishEvent(ctx context.Context, eventType string, appointment model.Appointment) {
	go func() {
		c := context.WithoutCancel(ctx)

		event := Event{
			Type:          eventType,
			AppointmentID: appointment.ID,
			OrderNumber:   appointment.OrderNumber,
			Status:        appointment.Status,
			OccurredAt:    timezone.Format(timezone.Now(), constant.DateFormat),
		}

		message := kafka.Message{Key: appointment.ID, Value: event}

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.AppointmentEvents, message); err != nil {
			log.Error().Err(err).Str("type", eventType).Msg("failed to publish appointment event")
		}
	}()
}

func (s *serviceImpl) invalidateAppointments(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllAppointment)
		shared.InvalidateCaches(c, s.cache, cacheCountAppointment)
	}()
}

func (s *serviceImpl) rollback(sqltx *sqlx.Tx) {
	if err := sqltx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error().Err(err).Msg("failed to rollback transaction")
	}
}

func toRoomBookings(appointmentID string, breakdowns []pricing.Breakdown) []model.RoomBooking {
	bookings := make([]model.RoomBooking, len(breakdowns))
	for i, breakdown := range breakdowns {
		bookings[i] = model.RoomBooking{
			ID:            uuid.NewString(),
			AppointmentID: appointmentID,
			RoomID:        breakdown.RoomID,
			RoomName:      breakdown.RoomName,
			CostType:      breakdown.CostType,
			Facilities:    model.FacilityLines(breakdown.Facilities),
			BaseCost:      breakdown.Base,
			TotalCost:     breakdown.Total,
			CreatedAt:     timezone.Now(),
		}
	}

	return bookings
}

// needsReprice reports whether an edit must re-run pricing and the
// availability re-check. While custom pricing is active the stored line items
// are authoritative, so only a change to rooms, window or attendees forces a
// re-price; standard pricing always recomputes.
func needsReprice(isCustom bool, req dto.UpdateAppointmentRequest) bool {
	if !isCustom {
		return true
	}

	return req.Rooms != nil || req.StartTime != nil || req.EndTime != nil || req.Attendees != nil
}

// resolveAgreedCost picks the total to store: the computed quote under
// standard pricing, the pinned amount (or its explicit override) while custom
// pricing is active.
func resolveAgreedCost(isCustom bool, current int64, override *int64, quoted int64) int64 {
	if !isCustom {
		return quoted
	}

	if override != nil {
		return *override
	}

	return current
}

func toSelections(bookings []model.RoomBooking) []dto.RoomSelection {
	selections := make([]dto.RoomSelection, len(bookings))
	for i, booking := range bookings {
		selections[i] = dto.RoomSelection{
			RoomID:     booking.RoomID,
			CostType:   booking.CostType,
			Facilities: booking.Facilities.Names(),
		}
	}

	return selections
}

func selectionRoomIDs(selections []dto.RoomSelection) []string {
	ids := make([]string, len(selections))
	for i, selection := range selections {
		ids[i] = selection.RoomID
	}

	return ids
}

// uniqueSortedRoomIDs rejects duplicate room selections and returns the ids
// sorted so row locks are always taken in the same order.
func uniqueSortedRoomIDs(ids []string) ([]string, error) {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, failure.BadRequestFromString("the same room cannot be selected twice") //nolint:wrapcheck
		}
	}

	return sorted, nil
}
