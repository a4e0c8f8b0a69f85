package model

import "atrium/shared/model"

const (
	TableName  = "locations"
	EntityName = "location"

	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
)

// Location groups rooms under one site. Every room must reference an
// existing location.
type Location struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	model.Metadata
}
