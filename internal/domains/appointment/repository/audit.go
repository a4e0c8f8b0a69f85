package repository

//go:generate go run go.uber.org/mock/mockgen -source=./audit.go -destination=../mocks/audit_mock.go -package=mocks

import (
	"context"

	"atrium/infras/otel"
	"atrium/infras/postgres"
	"atrium/internal/domains/appointment/model"
	gDto "atrium/shared/dto"
	gRepo "atrium/shared/repository"

	"github.com/jmoiron/sqlx"
)

// Audit persists appointment audit log entries. The log is append-only;
// entries are only ever inserted and read.
type Audit interface {
	Insert(ctx context.Context, entry model.AuditLog) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, entry model.AuditLog) error
	GetAll(ctx context.Context, appointmentID string) ([]model.AuditLog, error)
}

type auditImpl struct {
	gRepo.Repository[model.AuditLog]
	db   *postgres.Connection
	otel otel.Otel
}

func NewAudit(db *postgres.Connection, otel otel.Otel) Audit {
	return &auditImpl{
		Repository: gRepo.NewRepository[model.AuditLog](model.AuditEntityName, model.AuditTableName, model.AuditFieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (repo *auditImpl) GetAll(ctx context.Context, appointmentID string) ([]model.AuditLog, error) {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.AuditFieldAppointmentID,
				Operator: gDto.FilterOperatorEq,
				Value:    appointmentID,
				Table:    model.AuditTableName,
			},
		},
	}

	params := gDto.QueryParams{
		SortBy:  model.AuditFieldCreatedAt,
		SortDir: gDto.SortDirAsc,
	}

	return repo.Repository.GetAll(ctx, params, filter) //nolint:wrapcheck
}
