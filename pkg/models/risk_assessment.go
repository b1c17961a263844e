package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AssessmentStatusDraft     = "draft"
	AssessmentStatusInReview  = "in_review"
	AssessmentStatusPublished = "published"
)

// RiskAssessment is the top-level structured safety document: a free-text
// activity description broken down into ordered steps, each carrying its
// own hazards, controls and follow-up actions.
type RiskAssessment struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Title     string    `db:"title"      json:"title"`
	Activity  string    `db:"activity"   json:"activity"`
	Status    string    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Step is one ordered work step within a risk assessment.
type Step struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	AssessmentID uuid.UUID `db:"assessment_id" json:"assessment_id"`
	Position     int       `db:"position"      json:"position"`
	Description  string    `db:"description"   json:"description"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"    json:"updated_at"`
}

// Hazard is a risk identified on a specific step. Severity and likelihood
// are 1-5 per the standard risk matrix.
type Hazard struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	StepID      uuid.UUID `db:"step_id"     json:"step_id"`
	Description string    `db:"description" json:"description"`
	Severity    int       `db:"severity"    json:"severity"`
	Likelihood  int       `db:"likelihood"  json:"likelihood"`
	Fingerprint string    `db:"fingerprint" json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// Hierarchy-of-controls categories.
const (
	ControlTypeElimination    = "elimination"
	ControlTypeSubstitution   = "substitution"
	ControlTypeEngineering    = "engineering"
	ControlTypeAdministrative = "administrative"
	ControlTypePPE            = "ppe"
)

// Control is a mitigation attached to a hazard.
type Control struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	HazardID    uuid.UUID `db:"hazard_id"   json:"hazard_id"`
	Description string    `db:"description" json:"description"`
	Type        string    `db:"type"        json:"type"`
	Fingerprint string    `db:"fingerprint" json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}

// ActionItem is a follow-up task attached to a hazard.
type ActionItem struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	HazardID    uuid.UUID `db:"hazard_id"   json:"hazard_id"`
	Description string    `db:"description" json:"description"`
	Priority    string    `db:"priority"    json:"priority"`
	Fingerprint string    `db:"fingerprint" json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}
