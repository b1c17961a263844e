package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riskdocs/riskdocs/pkg/models"
)

// PgRiskAssessmentStore implements RiskAssessmentStore using pgx/v5.
type PgRiskAssessmentStore struct {
	pool *pgxpool.Pool
}

// NewRiskAssessmentStore creates a store bound to one tenant's pool.
func NewRiskAssessmentStore(pool *pgxpool.Pool) *PgRiskAssessmentStore {
	return &PgRiskAssessmentStore{pool: pool}
}

func (s *PgRiskAssessmentStore) CreateAssessment(ctx context.Context, a *models.RiskAssessment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO risk_assessments (id, title, activity, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Title, a.Activity, a.Status, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create risk assessment: %w", err)
	}
	return nil
}

func (s *PgRiskAssessmentStore) GetAssessment(ctx context.Context, id uuid.UUID) (*models.RiskAssessment, error) {
	var a models.RiskAssessment
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, activity, status, created_at, updated_at
		 FROM risk_assessments WHERE id = $1`, id,
	).Scan(&a.ID, &a.Title, &a.Activity, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get risk assessment: %w", err)
	}
	return &a, nil
}

func (s *PgRiskAssessmentStore) ListSteps(ctx context.Context, assessmentID uuid.UUID) ([]*models.Step, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, assessment_id, position, description, created_at, updated_at
		 FROM steps WHERE assessment_id = $1 ORDER BY position`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.Step
	for rows.Next() {
		var st models.Step
		if err := rows.Scan(&st.ID, &st.AssessmentID, &st.Position, &st.Description,
			&st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, &st)
	}
	return steps, rows.Err()
}

// UpsertSteps merges extracted steps by (assessment_id, position): existing
// positions get their description refreshed, new positions are inserted.
// Returns the number of newly created steps.
func (s *PgRiskAssessmentStore) UpsertSteps(ctx context.Context, assessmentID uuid.UUID, drafts []models.StepDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO steps (id, assessment_id, position, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, NOW(), NOW())
			 ON CONFLICT (assessment_id, position) DO UPDATE SET
			   description = EXCLUDED.description,
			   updated_at = NOW()
			 RETURNING (xmax = 0)`,
			uuid.New(), assessmentID, d.Position, d.Description,
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert step %d: %w", d.Position, err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgRiskAssessmentStore) ListHazards(ctx context.Context, assessmentID uuid.UUID) ([]*models.Hazard, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT h.id, h.step_id, h.description, h.severity, h.likelihood, h.fingerprint, h.created_at, h.updated_at
		 FROM hazards h
		 JOIN steps s ON s.id = h.step_id
		 WHERE s.assessment_id = $1
		 ORDER BY s.position, h.created_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list hazards: %w", err)
	}
	defer rows.Close()

	var hazards []*models.Hazard
	for rows.Next() {
		var h models.Hazard
		if err := rows.Scan(&h.ID, &h.StepID, &h.Description, &h.Severity, &h.Likelihood,
			&h.Fingerprint, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan hazard: %w", err)
		}
		hazards = append(hazards, &h)
	}
	return hazards, rows.Err()
}

// ListHazardContexts returns each hazard paired with its step description,
// the shape the extractor needs for control/action suggestions.
func (s *PgRiskAssessmentStore) ListHazardContexts(ctx context.Context, assessmentID uuid.UUID) ([]models.HazardContext, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT h.id, h.step_id, h.description, h.severity, h.likelihood, h.fingerprint, h.created_at, h.updated_at,
		        s.description
		 FROM hazards h
		 JOIN steps s ON s.id = h.step_id
		 WHERE s.assessment_id = $1
		 ORDER BY s.position, h.created_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list hazard contexts: %w", err)
	}
	defer rows.Close()

	var contexts []models.HazardContext
	for rows.Next() {
		var hc models.HazardContext
		if err := rows.Scan(&hc.Hazard.ID, &hc.Hazard.StepID, &hc.Hazard.Description,
			&hc.Hazard.Severity, &hc.Hazard.Likelihood, &hc.Hazard.Fingerprint,
			&hc.Hazard.CreatedAt, &hc.Hazard.UpdatedAt, &hc.StepDescription); err != nil {
			return nil, fmt.Errorf("scan hazard context: %w", err)
		}
		contexts = append(contexts, hc)
	}
	return contexts, rows.Err()
}

// UpsertHazards merges extracted hazards by (step_id, fingerprint),
// resolving the step from the draft's position. Drafts addressing a
// position with no step are skipped rather than failing the batch.
func (s *PgRiskAssessmentStore) UpsertHazards(ctx context.Context, assessmentID uuid.UUID, drafts []models.HazardDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var stepID uuid.UUID
		err := s.pool.QueryRow(ctx,
			`SELECT id FROM steps WHERE assessment_id = $1 AND position = $2`,
			assessmentID, d.StepPosition,
		).Scan(&stepID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("resolve step %d: %w", d.StepPosition, err)
		}

		var inserted bool
		err = s.pool.QueryRow(ctx,
			`INSERT INTO hazards (id, step_id, description, severity, likelihood, fingerprint, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			 ON CONFLICT (step_id, fingerprint) DO UPDATE SET
			   severity = EXCLUDED.severity,
			   likelihood = EXCLUDED.likelihood,
			   updated_at = NOW()
			 RETURNING (xmax = 0)`,
			uuid.New(), stepID, d.Description, d.Severity, d.Likelihood,
			models.Fingerprint(d.Description),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert hazard: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgRiskAssessmentStore) ListControls(ctx context.Context, assessmentID uuid.UUID) ([]*models.Control, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.hazard_id, c.description, c.type, c.fingerprint, c.created_at
		 FROM controls c
		 JOIN hazards h ON h.id = c.hazard_id
		 JOIN steps s ON s.id = h.step_id
		 WHERE s.assessment_id = $1
		 ORDER BY c.created_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	defer rows.Close()

	var controls []*models.Control
	for rows.Next() {
		var c models.Control
		if err := rows.Scan(&c.ID, &c.HazardID, &c.Description, &c.Type,
			&c.Fingerprint, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		controls = append(controls, &c)
	}
	return controls, rows.Err()
}

// UpsertControls merges suggested controls by (hazard_id, fingerprint).
func (s *PgRiskAssessmentStore) UpsertControls(ctx context.Context, drafts []models.ControlDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO controls (id, hazard_id, description, type, fingerprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (hazard_id, fingerprint) DO UPDATE SET
			   type = EXCLUDED.type
			 RETURNING (xmax = 0)`,
			uuid.New(), d.HazardID, d.Description, d.Type, models.Fingerprint(d.Description),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert control: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgRiskAssessmentStore) ListActions(ctx context.Context, assessmentID uuid.UUID) ([]*models.ActionItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.id, a.hazard_id, a.description, a.priority, a.fingerprint, a.created_at
		 FROM action_items a
		 JOIN hazards h ON h.id = a.hazard_id
		 JOIN steps s ON s.id = h.step_id
		 WHERE s.assessment_id = $1
		 ORDER BY a.created_at`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.ActionItem
	for rows.Next() {
		var a models.ActionItem
		if err := rows.Scan(&a.ID, &a.HazardID, &a.Description, &a.Priority,
			&a.Fingerprint, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

// UpsertActions merges suggested action items by (hazard_id, fingerprint).
func (s *PgRiskAssessmentStore) UpsertActions(ctx context.Context, drafts []models.ActionDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO action_items (id, hazard_id, description, priority, fingerprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (hazard_id, fingerprint) DO UPDATE SET
			   priority = EXCLUDED.priority
			 RETURNING (xmax = 0)`,
			uuid.New(), d.HazardID, d.Description, d.Priority, models.Fingerprint(d.Description),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert action: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

var _ RiskAssessmentStore = (*PgRiskAssessmentStore)(nil)
