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

// PgJHAStore implements JHAStore using pgx/v5.
type PgJHAStore struct {
	pool *pgxpool.Pool
}

// NewJHAStore creates a store bound to one tenant's pool.
func NewJHAStore(pool *pgxpool.Pool) *PgJHAStore {
	return &PgJHAStore{pool: pool}
}

func (s *PgJHAStore) CreateDocument(ctx context.Context, doc *models.JHADocument) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jha_documents (id, title, task_description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		doc.ID, doc.Title, doc.TaskDescription, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create jha document: %w", err)
	}
	return nil
}

func (s *PgJHAStore) GetDocument(ctx context.Context, id uuid.UUID) (*models.JHADocument, error) {
	var doc models.JHADocument
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, task_description, created_at, updated_at
		 FROM jha_documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.Title, &doc.TaskDescription, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get jha document: %w", err)
	}
	return &doc, nil
}

func (s *PgJHAStore) ListRows(ctx context.Context, documentID uuid.UUID) ([]*models.JHARow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, position, task_step, hazards, controls, created_at, updated_at
		 FROM jha_rows WHERE document_id = $1 ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list jha rows: %w", err)
	}
	defer rows.Close()

	var result []*models.JHARow
	for rows.Next() {
		var r models.JHARow
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Position, &r.TaskStep,
			&r.Hazards, &r.Controls, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan jha row: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// UpsertRows merges extracted rows by (document_id, position). Returns the
// number of newly created rows.
func (s *PgJHAStore) UpsertRows(ctx context.Context, documentID uuid.UUID, drafts []models.JHARowDraft) (int, error) {
	created := 0
	for _, d := range drafts {
		var inserted bool
		err := s.pool.QueryRow(ctx,
			`INSERT INTO jha_rows (id, document_id, position, task_step, hazards, controls, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			 ON CONFLICT (document_id, position) DO UPDATE SET
			   task_step = EXCLUDED.task_step,
			   hazards = EXCLUDED.hazards,
			   controls = EXCLUDED.controls,
			   updated_at = NOW()
			 RETURNING (xmax = 0)`,
			uuid.New(), documentID, d.Position, d.TaskStep, d.Hazards, d.Controls,
		).Scan(&inserted)
		if err != nil {
			return created, fmt.Errorf("upsert jha row %d: %w", d.Position, err)
		}
		if inserted {
			created++
		}
	}
	return created, nil
}

var _ JHAStore = (*PgJHAStore)(nil)
