package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	AuditTableName  = "appointment_audit_logs"
	AuditEntityName = "appointment_audit_log"

	AuditFieldID            = "id"
	AuditFieldAppointmentID = "appointment_id"
	AuditFieldActor         = "actor"
	AuditFieldAction        = "action"
	AuditFieldCreatedAt     = "created_at"
)

// AuditLog is an append-only record of one appointment mutation. Entries are
// never updated or deleted.
type AuditLog struct {
	ID            string    `db:"id"`
	AppointmentID string    `db:"appointment_id"`
	Actor         string    `db:"actor"`
	Action        string    `db:"action"`
	OldData       JSONMap   `db:"old_data"`
	NewData       JSONMap   `db:"new_data"`
	CreatedAt     time.Time `db:"created_at"`
}

// JSONMap stores the before/after field snapshots as JSONB.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}

	value, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal audit snapshot: %w", err)
	}

	return value, nil
}

func (m *JSONMap) Scan(src any) error {
	switch data := src.(type) {
	case nil:
		*m = JSONMap{}

		return nil
	case []byte:
		return json.Unmarshal(data, m) //nolint:wrapcheck
	case string:
		return json.Unmarshal([]byte(data), m) //nolint:wrapcheck
	default:
		return errors.New("unsupported source type for audit snapshot")
	}
}
