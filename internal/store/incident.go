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

// PgIncidentStore implements IncidentStore using pgx/v5.
type PgIncidentStore struct {
	pool *pgxpool.Pool
}

// NewIncidentStore creates a store bound to one tenant's pool.
func NewIncidentStore(pool *pgxpool.Pool) *PgIncidentStore {
	return &PgIncidentStore{pool: pool}
}

func (s *PgIncidentStore) CreateIncident(ctx context.Context, inc *models.Incident) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO incidents (id, title, raw_report, narrative, status, occurred_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inc.ID, inc.Title, inc.RawReport, inc.Narrative, inc.Status, inc.OccurredAt,
		inc.CreatedAt, inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

func (s *PgIncidentStore) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	var inc models.Incident
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, raw_report, narrative, status, occurred_at, created_at, updated_at
		 FROM incidents WHERE id = $1`, id,
	).Scan(&inc.ID, &inc.Title, &inc.RawReport, &inc.Narrative, &inc.Status,
		&inc.OccurredAt, &inc.CreatedAt, &inc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &inc, nil
}

func (s *PgIncidentStore) SetNarrative(ctx context.Context, id uuid.UUID, narrative string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE incidents SET narrative = $2, updated_at = NOW() WHERE id = $1`,
		id, narrative)
	if err != nil {
		return fmt.Errorf("set narrative: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Witness statements ---

func (s *PgIncidentStore) AddWitnessStatement(ctx context.Context, st *models.WitnessStatement) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO witness_statements (id, incident_id, witness_name, statement, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		st.ID, st.IncidentID, st.WitnessName, st.Statement, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("add witness statement: %w", err)
	}
	return nil
}

func (s *PgIncidentStore) GetWitnessStatement(ctx context.Context, id uuid.UUID) (*models.WitnessStatement, error) {
	var st models.WitnessStatement
	err := s.pool.QueryRow(ctx,
		`SELECT id, incident_id, witness_name, statement, created_at
		 FROM witness_statements WHERE id = $1`, id,
	).Scan(&st.ID, &st.IncidentID, &st.WitnessName, &st.Statement, &st.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get witness statement: %w", err)
	}
	return &st, nil
}

func (s *PgIncidentStore) ListWitnessStatements(ctx context.Context, incidentID uuid.UUID) ([]*models.WitnessStatement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, incident_id, witness_name, statement, created_at
		 FROM witness_statements WHERE incident_id = $1 ORDER BY created_at`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list witness statements: %w", err)
	}
	defer rows.Close()

	var statements []*models.WitnessStatement
	for rows.Next() {
		var st models.WitnessStatement
		if err := rows.Scan(&st.ID, &st.IncidentID, &st.WitnessName, &st.Statement,
			&st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan witness statement: %w", err)
		}
		statements = append(statements, &st)
	}
	return statements, rows.Err()
}

// --- Extracted facts ---

// UpsertFacts merges extracted facts by (incident_id, fingerprint).
func (s *PgIncidentStore) UpsertFacts(ctx context.Context, incidentID uuid.UUID, statementID *uuid.UUID, drafts []models.FactDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO incident_facts (id, incident_id, statement_id, fact, fingerprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (incident_id, fingerprint) DO UPDATE SET
			   statement_id = COALESCE(incident_facts.statement_id, EXCLUDED.statement_id)
			 RETURNING (xmax = 0)`,
			uuid.New(), incidentID, statementID, d.Fact, models.Fingerprint(d.Fact),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert fact: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgIncidentStore) ListFacts(ctx context.Context, incidentID uuid.UUID) ([]*models.ExtractedFact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, incident_id, statement_id, fact, fingerprint, created_at
		 FROM incident_facts WHERE incident_id = $1 ORDER BY created_at`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	defer rows.Close()

	var facts []*models.ExtractedFact
	for rows.Next() {
		var f models.ExtractedFact
		if err := rows.Scan(&f.ID, &f.IncidentID, &f.StatementID, &f.Fact,
			&f.Fingerprint, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, &f)
	}
	return facts, rows.Err()
}

// --- Timeline ---

// UpsertTimeline merges timeline events by (incident_id, fingerprint),
// letting a later merge refine the timestamp of a known event.
func (s *PgIncidentStore) UpsertTimeline(ctx context.Context, incidentID uuid.UUID, drafts []models.TimelineDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO timeline_entries (id, incident_id, occurred_at, description, source, fingerprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 ON CONFLICT (incident_id, fingerprint) DO UPDATE SET
			   occurred_at = COALESCE(EXCLUDED.occurred_at, timeline_entries.occurred_at),
			   source = EXCLUDED.source
			 RETURNING (xmax = 0)`,
			uuid.New(), incidentID, d.OccurredAt, d.Description, d.Source,
			models.Fingerprint(d.Description),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert timeline entry: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgIncidentStore) ListTimeline(ctx context.Context, incidentID uuid.UUID) ([]*models.TimelineEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, incident_id, occurred_at, description, source, fingerprint, created_at
		 FROM timeline_entries WHERE incident_id = $1
		 ORDER BY occurred_at NULLS LAST, created_at`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var entries []*models.TimelineEntry
	for rows.Next() {
		var e models.TimelineEntry
		if err := rows.Scan(&e.ID, &e.IncidentID, &e.OccurredAt, &e.Description,
			&e.Source, &e.Fingerprint, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// --- Findings ---

// UpsertFindings merges consistency findings by (incident_id, fingerprint).
func (s *PgIncidentStore) UpsertFindings(ctx context.Context, incidentID uuid.UUID, drafts []models.FindingDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO findings (id, incident_id, kind, detail, severity, fingerprint, created_at)
			 VALUES ($1, $2, 'consistency', $3, $4, $5, NOW())
			 ON CONFLICT (incident_id, fingerprint) DO UPDATE SET
			   severity = EXCLUDED.severity
			 RETURNING (xmax = 0)`,
			uuid.New(), incidentID, d.Detail, d.Severity, models.Fingerprint(d.Detail),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert finding: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgIncidentStore) ListFindings(ctx context.Context, incidentID uuid.UUID) ([]*models.Finding, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, incident_id, kind, detail, severity, fingerprint, created_at
		 FROM findings WHERE incident_id = $1 ORDER BY created_at`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var findings []*models.Finding
	for rows.Next() {
		var f models.Finding
		if err := rows.Scan(&f.ID, &f.IncidentID, &f.Kind, &f.Detail, &f.Severity,
			&f.Fingerprint, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		findings = append(findings, &f)
	}
	return findings, rows.Err()
}

// --- Causes ---

// UpsertCauses merges causes of the given kind by (incident_id, kind,
// fingerprint).
func (s *PgIncidentStore) UpsertCauses(ctx context.Context, incidentID uuid.UUID, kind string, drafts []models.CauseDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO causes (id, incident_id, kind, description, rationale, fingerprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())
			 ON CONFLICT (incident_id, kind, fingerprint) DO UPDATE SET
			   rationale = EXCLUDED.rationale
			 RETURNING (xmax = 0)`,
			uuid.New(), incidentID, kind, d.Description, d.Rationale,
			models.Fingerprint(d.Description),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert cause: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

// ListCauses returns causes for an incident, optionally filtered by kind.
func (s *PgIncidentStore) ListCauses(ctx context.Context, incidentID uuid.UUID, kind string) ([]*models.Cause, error) {
	query := `SELECT id, incident_id, kind, description, rationale, fingerprint, created_at
	          FROM causes WHERE incident_id = $1`
	args := []any{incidentID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list causes: %w", err)
	}
	defer rows.Close()

	var causes []*models.Cause
	for rows.Next() {
		var c models.Cause
		if err := rows.Scan(&c.ID, &c.IncidentID, &c.Kind, &c.Description, &c.Rationale,
			&c.Fingerprint, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cause: %w", err)
		}
		causes = append(causes, &c)
	}
	return causes, rows.Err()
}

// --- Corrective actions ---

// UpsertCorrectiveActions merges actions by (incident_id, fingerprint).
func (s *PgIncidentStore) UpsertCorrectiveActions(ctx context.Context, incidentID uuid.UUID, drafts []models.ActionDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO corrective_actions (id, incident_id, description, priority, fingerprint, created_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (incident_id, fingerprint) DO UPDATE SET
			   priority = EXCLUDED.priority
			 RETURNING (xmax = 0)`,
			uuid.New(), incidentID, d.Description, d.Priority, models.Fingerprint(d.Description),
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert corrective action: %w", err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

func (s *PgIncidentStore) ListCorrectiveActions(ctx context.Context, incidentID uuid.UUID) ([]*models.CorrectiveAction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, incident_id, description, priority, fingerprint, created_at
		 FROM corrective_actions WHERE incident_id = $1 ORDER BY created_at`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list corrective actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.CorrectiveAction
	for rows.Next() {
		var a models.CorrectiveAction
		if err := rows.Scan(&a.ID, &a.IncidentID, &a.Description, &a.Priority,
			&a.Fingerprint, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan corrective action: %w", err)
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

var _ IncidentStore = (*PgIncidentStore)(nil)
