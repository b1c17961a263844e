package models

import (
	"time"

	"github.com/google/uuid"
)

// JHADocument is a job hazard analysis: a task broken into tabular rows of
// step / hazards / controls.
type JHADocument struct {
	ID              uuid.UUID `db:"id"               json:"id"`
	Title           string    `db:"title"            json:"title"`
	TaskDescription string    `db:"task_description" json:"task_description"`
	CreatedAt       time.Time `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"       json:"updated_at"`
}

// JHARow is one row of a JHA table. Hazards and controls are stored as
// text arrays; the row itself is the unit of extraction.
type JHARow struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	DocumentID uuid.UUID `db:"document_id" json:"document_id"`
	Position   int       `db:"position"    json:"position"`
	TaskStep   string    `db:"task_step"   json:"task_step"`
	Hazards    []string  `db:"hazards"     json:"hazards"`
	Controls   []string  `db:"controls"    json:"controls"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}
