// Package jobs is the in-memory asynchronous job manager. Extraction
// work is enqueued here, drained one job at a time by a single worker
// goroutine, and polled by id until the terminal snapshot expires.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what a job does. Each type maps to exactly one
// extraction operation.
type Type string

const (
	TypeStepExtraction           Type = "step_extraction"
	TypeHazardExtraction         Type = "hazard_extraction"
	TypeControlSuggestion        Type = "control_suggestion"
	TypeActionSuggestion         Type = "action_suggestion"
	TypeJHARowExtraction         Type = "jha_row_extraction"
	TypeWitnessExtraction        Type = "incident_witness_extraction"
	TypeNarrativeExtraction      Type = "incident_narrative_extraction"
	TypeTimelineMerge            Type = "incident_timeline_merge"
	TypeConsistencyCheck         Type = "incident_consistency_check"
	TypeCauseCoaching            Type = "incident_cause_coaching"
	TypeRootCauseCoaching        Type = "incident_root_cause_coaching"
	TypeCorrectiveActionCoaching Type = "incident_action_coaching"
)

// Status is a job's lifecycle state. Legal transitions are
// queued -> running -> completed|failed; terminal states never change.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Request is the sealed set of job payloads. Every request carries the
// tenant connection string so the worker can reach the right database
// without consulting request-scoped state.
type Request interface {
	Type() Type
	connString() string
}

// StepExtractionRequest breaks a risk assessment's activity into steps.
type StepExtractionRequest struct {
	ConnString   string
	AssessmentID uuid.UUID
}

// HazardExtractionRequest identifies hazards for an assessment's steps.
type HazardExtractionRequest struct {
	ConnString   string
	AssessmentID uuid.UUID
}

// ControlSuggestionRequest proposes controls for an assessment's hazards.
type ControlSuggestionRequest struct {
	ConnString   string
	AssessmentID uuid.UUID
}

// ActionSuggestionRequest proposes action items for an assessment's hazards.
type ActionSuggestionRequest struct {
	ConnString   string
	AssessmentID uuid.UUID
}

// JHARowExtractionRequest builds JHA table rows from a task description.
type JHARowExtractionRequest struct {
	ConnString string
	DocumentID uuid.UUID
}

// WitnessExtractionRequest pulls facts out of one witness statement.
type WitnessExtractionRequest struct {
	ConnString  string
	IncidentID  uuid.UUID
	StatementID uuid.UUID
}

// NarrativeExtractionRequest composes an incident narrative.
type NarrativeExtractionRequest struct {
	ConnString string
	IncidentID uuid.UUID
}

// TimelineMergeRequest merges extracted facts into a timeline.
type TimelineMergeRequest struct {
	ConnString string
	IncidentID uuid.UUID
}

// ConsistencyCheckRequest flags contradictions across statements.
type ConsistencyCheckRequest struct {
	ConnString string
	IncidentID uuid.UUID
}

// CauseCoachingRequest proposes contributing causes.
type CauseCoachingRequest struct {
	ConnString string
	IncidentID uuid.UUID
}

// RootCauseCoachingRequest distills contributing causes to a root cause.
type RootCauseCoachingRequest struct {
	ConnString string
	IncidentID uuid.UUID
}

// CorrectiveActionCoachingRequest proposes corrective actions from causes.
type CorrectiveActionCoachingRequest struct {
	ConnString string
	IncidentID uuid.UUID
}

func (StepExtractionRequest) Type() Type           { return TypeStepExtraction }
func (HazardExtractionRequest) Type() Type         { return TypeHazardExtraction }
func (ControlSuggestionRequest) Type() Type        { return TypeControlSuggestion }
func (ActionSuggestionRequest) Type() Type         { return TypeActionSuggestion }
func (JHARowExtractionRequest) Type() Type         { return TypeJHARowExtraction }
func (WitnessExtractionRequest) Type() Type        { return TypeWitnessExtraction }
func (NarrativeExtractionRequest) Type() Type      { return TypeNarrativeExtraction }
func (TimelineMergeRequest) Type() Type            { return TypeTimelineMerge }
func (ConsistencyCheckRequest) Type() Type         { return TypeConsistencyCheck }
func (CauseCoachingRequest) Type() Type            { return TypeCauseCoaching }
func (RootCauseCoachingRequest) Type() Type        { return TypeRootCauseCoaching }
func (CorrectiveActionCoachingRequest) Type() Type { return TypeCorrectiveActionCoaching }

func (q StepExtractionRequest) connString() string           { return q.ConnString }
func (q HazardExtractionRequest) connString() string         { return q.ConnString }
func (q ControlSuggestionRequest) connString() string        { return q.ConnString }
func (q ActionSuggestionRequest) connString() string         { return q.ConnString }
func (q JHARowExtractionRequest) connString() string         { return q.ConnString }
func (q WitnessExtractionRequest) connString() string        { return q.ConnString }
func (q NarrativeExtractionRequest) connString() string      { return q.ConnString }
func (q TimelineMergeRequest) connString() string            { return q.ConnString }
func (q ConsistencyCheckRequest) connString() string         { return q.ConnString }
func (q CauseCoachingRequest) connString() string            { return q.ConnString }
func (q RootCauseCoachingRequest) connString() string        { return q.ConnString }
func (q CorrectiveActionCoachingRequest) connString() string { return q.ConnString }

// CountResult summarizes a job that merged drafts into rows.
type CountResult struct {
	Extracted int `json:"extracted"`
	Created   int `json:"created"`
}

// NarrativeResult summarizes a narrative composition job.
type NarrativeResult struct {
	NarrativeLength int `json:"narrative_length"`
}

// Job is a snapshot of one enqueued unit of work. Snapshots returned by
// the manager are copies; callers cannot mutate manager state through
// them.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       Type       `json:"type"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Result     any        `json:"result,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
