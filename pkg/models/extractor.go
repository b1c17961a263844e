package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Extractor is the core interface to the text-to-structured-data
// collaborator. Never call a vendor API directly — always inject this
// interface so handlers stay testable.
type Extractor interface {
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// ExtractSteps breaks an activity description into ordered work steps.
	ExtractSteps(ctx context.Context, activity string) ([]StepDraft, error)
	// ExtractHazards identifies hazards for each of the given steps.
	ExtractHazards(ctx context.Context, steps []Step) ([]HazardDraft, error)
	// SuggestControls proposes mitigations for the given hazards.
	SuggestControls(ctx context.Context, hazards []HazardContext) ([]ControlDraft, error)
	// SuggestActions proposes follow-up actions for the given hazards.
	SuggestActions(ctx context.Context, hazards []HazardContext) ([]ActionDraft, error)
	// ExtractJHARows turns a task description into JHA table rows.
	ExtractJHARows(ctx context.Context, task string) ([]JHARowDraft, error)

	// ExtractWitnessFacts pulls discrete facts out of one witness statement.
	ExtractWitnessFacts(ctx context.Context, statement WitnessStatement) ([]FactDraft, error)
	// ComposeNarrative writes a coherent incident narrative from the raw
	// report, statements and extracted facts.
	ComposeNarrative(ctx context.Context, req NarrativeRequest) (string, error)
	// MergeTimeline orders extracted facts into deduplicated timeline events.
	MergeTimeline(ctx context.Context, facts []ExtractedFact) ([]TimelineDraft, error)
	// CheckConsistency flags contradictions and gaps across statements.
	CheckConsistency(ctx context.Context, statements []WitnessStatement) ([]FindingDraft, error)
	// CoachCauses proposes contributing causes from narrative and timeline.
	CoachCauses(ctx context.Context, req CoachingRequest) ([]CauseDraft, error)
	// CoachRootCause distills recorded causes into a single root cause.
	CoachRootCause(ctx context.Context, causes []Cause) (CauseDraft, error)
	// CoachActions proposes corrective actions for the recorded causes.
	CoachActions(ctx context.Context, causes []Cause) ([]ActionDraft, error)
}

// StepDraft is an extracted work step before persistence.
type StepDraft struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
}

// HazardDraft is an extracted hazard, addressed to a step by position.
type HazardDraft struct {
	StepPosition int    `json:"step_position"`
	Description  string `json:"description"`
	Severity     int    `json:"severity"`
	Likelihood   int    `json:"likelihood"`
}

// HazardContext pairs a stored hazard with the step it belongs to, giving
// the extractor enough context to suggest mitigations.
type HazardContext struct {
	Hazard          Hazard
	StepDescription string
}

// ControlDraft is a suggested mitigation for a stored hazard.
type ControlDraft struct {
	HazardID    uuid.UUID `json:"hazard_id"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
}

// ActionDraft is a suggested follow-up or corrective action.
type ActionDraft struct {
	HazardID    uuid.UUID `json:"hazard_id,omitempty"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
}

// JHARowDraft is one extracted JHA table row.
type JHARowDraft struct {
	Position int      `json:"position"`
	TaskStep string   `json:"task_step"`
	Hazards  []string `json:"hazards"`
	Controls []string `json:"controls"`
}

// FactDraft is one fact extracted from a witness statement.
type FactDraft struct {
	Fact string `json:"fact"`
}

// TimelineDraft is one merged timeline event.
type TimelineDraft struct {
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
}

// FindingDraft is one consistency finding.
type FindingDraft struct {
	Detail   string `json:"detail"`
	Severity string `json:"severity"`
}

// CauseDraft is one suggested cause.
type CauseDraft struct {
	Description string `json:"description"`
	Rationale   string `json:"rationale"`
}

// NarrativeRequest is the input to narrative composition.
type NarrativeRequest struct {
	Incident   Incident
	Statements []WitnessStatement
	Facts      []ExtractedFact
}

// CoachingRequest is the input to cause coaching.
type CoachingRequest struct {
	Narrative string
	Timeline  []TimelineEntry
}

// Fingerprint returns a stable content key for extracted text, used as the
// natural key for upserts so re-running a job cannot duplicate rows.
func Fingerprint(s string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
