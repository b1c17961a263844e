// Package store is the tenant data plane: every store here operates on one
// tenant's isolated database, reached through a pool owned by the tenant
// registry. All extraction-applied mutations are upserts on stable natural
// keys so re-running a job never duplicates rows.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/riskdocs/riskdocs/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// RiskAssessmentStore manages risk assessments and their step/hazard/
// control/action tree.
type RiskAssessmentStore interface {
	CreateAssessment(ctx context.Context, a *models.RiskAssessment) error
	GetAssessment(ctx context.Context, id uuid.UUID) (*models.RiskAssessment, error)

	ListSteps(ctx context.Context, assessmentID uuid.UUID) ([]*models.Step, error)
	UpsertSteps(ctx context.Context, assessmentID uuid.UUID, drafts []models.StepDraft) (int, error)

	ListHazards(ctx context.Context, assessmentID uuid.UUID) ([]*models.Hazard, error)
	ListHazardContexts(ctx context.Context, assessmentID uuid.UUID) ([]models.HazardContext, error)
	UpsertHazards(ctx context.Context, assessmentID uuid.UUID, drafts []models.HazardDraft) (int, error)

	ListControls(ctx context.Context, assessmentID uuid.UUID) ([]*models.Control, error)
	UpsertControls(ctx context.Context, drafts []models.ControlDraft) (int, error)

	ListActions(ctx context.Context, assessmentID uuid.UUID) ([]*models.ActionItem, error)
	UpsertActions(ctx context.Context, drafts []models.ActionDraft) (int, error)
}

// JHAStore manages job hazard analysis documents and rows.
type JHAStore interface {
	CreateDocument(ctx context.Context, doc *models.JHADocument) error
	GetDocument(ctx context.Context, id uuid.UUID) (*models.JHADocument, error)

	ListRows(ctx context.Context, documentID uuid.UUID) ([]*models.JHARow, error)
	UpsertRows(ctx context.Context, documentID uuid.UUID, drafts []models.JHARowDraft) (int, error)
}

// IncidentStore manages incident investigations and their artifacts.
type IncidentStore interface {
	CreateIncident(ctx context.Context, inc *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetNarrative(ctx context.Context, id uuid.UUID, narrative string) error

	AddWitnessStatement(ctx context.Context, st *models.WitnessStatement) error
	GetWitnessStatement(ctx context.Context, id uuid.UUID) (*models.WitnessStatement, error)
	ListWitnessStatements(ctx context.Context, incidentID uuid.UUID) ([]*models.WitnessStatement, error)

	UpsertFacts(ctx context.Context, incidentID uuid.UUID, statementID *uuid.UUID, drafts []models.FactDraft) (int, error)
	ListFacts(ctx context.Context, incidentID uuid.UUID) ([]*models.ExtractedFact, error)

	UpsertTimeline(ctx context.Context, incidentID uuid.UUID, drafts []models.TimelineDraft) (int, error)
	ListTimeline(ctx context.Context, incidentID uuid.UUID) ([]*models.TimelineEntry, error)

	UpsertFindings(ctx context.Context, incidentID uuid.UUID, drafts []models.FindingDraft) (int, error)
	ListFindings(ctx context.Context, incidentID uuid.UUID) ([]*models.Finding, error)

	UpsertCauses(ctx context.Context, incidentID uuid.UUID, kind string, drafts []models.CauseDraft) (int, error)
	ListCauses(ctx context.Context, incidentID uuid.UUID, kind string) ([]*models.Cause, error)

	UpsertCorrectiveActions(ctx context.Context, incidentID uuid.UUID, drafts []models.ActionDraft) (int, error)
	ListCorrectiveActions(ctx context.Context, incidentID uuid.UUID) ([]*models.CorrectiveAction, error)
}
