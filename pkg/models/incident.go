package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	IncidentStatusOpen          = "open"
	IncidentStatusInvestigating = "investigating"
	IncidentStatusClosed        = "closed"
)

// Incident is an incident investigation case. Narrative is the composed
// account of what happened; RawReport is the original free-text report.
type Incident struct {
	ID         uuid.UUID  `db:"id"          json:"id"`
	Title      string     `db:"title"       json:"title"`
	RawReport  string     `db:"raw_report"  json:"raw_report"`
	Narrative  string     `db:"narrative"   json:"narrative"`
	Status     string     `db:"status"      json:"status"`
	OccurredAt *time.Time `db:"occurred_at" json:"occurred_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"  json:"updated_at"`
}

// WitnessStatement is the verbatim account given by one witness.
type WitnessStatement struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	IncidentID  uuid.UUID `db:"incident_id"  json:"incident_id"`
	WitnessName string    `db:"witness_name" json:"witness_name"`
	Statement   string    `db:"statement"    json:"statement"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// ExtractedFact is a single structured fact pulled out of a witness
// statement or the raw report.
type ExtractedFact struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	IncidentID  uuid.UUID  `db:"incident_id"  json:"incident_id"`
	StatementID *uuid.UUID `db:"statement_id" json:"statement_id,omitempty"`
	Fact        string     `db:"fact"         json:"fact"`
	Fingerprint string     `db:"fingerprint"  json:"-"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
}

// TimelineEntry is one event on the merged incident timeline.
type TimelineEntry struct {
	ID          uuid.UUID  `db:"id"          json:"id"`
	IncidentID  uuid.UUID  `db:"incident_id" json:"incident_id"`
	OccurredAt  *time.Time `db:"occurred_at" json:"occurred_at,omitempty"`
	Description string     `db:"description" json:"description"`
	Source      string     `db:"source"      json:"source"`
	Fingerprint string     `db:"fingerprint" json:"-"`
	CreatedAt   time.Time  `db:"created_at"  json:"created_at"`
}

// Finding records an inconsistency or gap detected across witness accounts.
type Finding struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	IncidentID  uuid.UUID `db:"incident_id" json:"incident_id"`
	Kind        string    `db:"kind"        json:"kind"`
	Detail      string    `db:"detail"      json:"detail"`
	Severity    string    `db:"severity"    json:"severity"`
	Fingerprint string    `db:"fingerprint" json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}

const (
	CauseKindContributing = "contributing"
	CauseKindRoot         = "root"
)

// Cause is a contributing or root cause recorded during coaching.
type Cause struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	IncidentID  uuid.UUID `db:"incident_id" json:"incident_id"`
	Kind        string    `db:"kind"        json:"kind"`
	Description string    `db:"description" json:"description"`
	Rationale   string    `db:"rationale"   json:"rationale"`
	Fingerprint string    `db:"fingerprint" json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}

// CorrectiveAction is a remediation proposed against the recorded causes.
type CorrectiveAction struct {
	ID          uuid.UUID `db:"id"          json:"id"`
	IncidentID  uuid.UUID `db:"incident_id" json:"incident_id"`
	Description string    `db:"description" json:"description"`
	Priority    string    `db:"priority"    json:"priority"`
	Fingerprint string    `db:"fingerprint" json:"-"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
}
