package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riskdocs/riskdocs/internal/store"
	"github.com/riskdocs/riskdocs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the tenant schema migrations.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations", "tenant")
}

// setupTestDB spins up a Postgres container with the tenant schema applied
// and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tenant_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func createAssessment(t *testing.T, s store.RiskAssessmentStore) *models.RiskAssessment {
	t.Helper()
	now := time.Now().UTC()
	a := &models.RiskAssessment{
		ID:        uuid.New(),
		Title:     "Warehouse lighting",
		Activity:  "Replace light fittings at height",
		Status:    models.AssessmentStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAssessment(context.Background(), a))
	return a
}

func TestRiskAssessmentRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewRiskAssessmentStore(pool)

	a := createAssessment(t, s)

	got, err := s.GetAssessment(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, models.AssessmentStatusDraft, got.Status)

	_, err = s.GetAssessment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertStepsIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewRiskAssessmentStore(pool)
	ctx := context.Background()

	a := createAssessment(t, s)
	drafts := []models.StepDraft{
		{Position: 1, Description: "Isolate power"},
		{Position: 2, Description: "Erect access platform"},
	}

	created, err := s.UpsertSteps(ctx, a.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// Re-running the same extraction creates nothing new
	created, err = s.UpsertSteps(ctx, a.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// A changed description at an existing position updates in place
	drafts[1].Description = "Erect and inspect access platform"
	created, err = s.UpsertSteps(ctx, a.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	steps, err := s.ListSteps(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Erect and inspect access platform", steps[1].Description)
}

func TestUpsertHazardsResolvesStepPositions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewRiskAssessmentStore(pool)
	ctx := context.Background()

	a := createAssessment(t, s)
	_, err := s.UpsertSteps(ctx, a.ID, []models.StepDraft{
		{Position: 1, Description: "Isolate power"},
	})
	require.NoError(t, err)

	drafts := []models.HazardDraft{
		{StepPosition: 1, Description: "Contact with live conductors", Severity: 5, Likelihood: 2},
		{StepPosition: 99, Description: "Addressed to a step that does not exist", Severity: 1, Likelihood: 1},
	}

	created, err := s.UpsertHazards(ctx, a.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 1, created, "draft with unknown position is skipped")

	// Same hazard again, with revised scoring: updated, not duplicated
	drafts[0].Severity = 4
	created, err = s.UpsertHazards(ctx, a.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	hazards, err := s.ListHazards(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, hazards, 1)
	assert.Equal(t, 4, hazards[0].Severity)

	contexts, err := s.ListHazardContexts(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, contexts, 1)
	assert.Equal(t, "Isolate power", contexts[0].StepDescription)
}

func TestUpsertControlsAndActions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewRiskAssessmentStore(pool)
	ctx := context.Background()

	a := createAssessment(t, s)
	_, err := s.UpsertSteps(ctx, a.ID, []models.StepDraft{{Position: 1, Description: "Work at height"}})
	require.NoError(t, err)
	_, err = s.UpsertHazards(ctx, a.ID, []models.HazardDraft{
		{StepPosition: 1, Description: "Fall from height", Severity: 5, Likelihood: 3},
	})
	require.NoError(t, err)

	hazards, err := s.ListHazards(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, hazards, 1)
	hazardID := hazards[0].ID

	controls := []models.ControlDraft{
		{HazardID: hazardID, Description: "Use a podium platform instead of a ladder", Type: models.ControlTypeSubstitution},
	}
	created, err := s.UpsertControls(ctx, controls)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = s.UpsertControls(ctx, controls)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	actions := []models.ActionDraft{
		{HazardID: hazardID, Description: "Schedule working-at-height refresher training", Priority: "high"},
	}
	created, err = s.UpsertActions(ctx, actions)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = s.UpsertActions(ctx, actions)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	gotControls, err := s.ListControls(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, gotControls, 1)
	assert.Equal(t, models.ControlTypeSubstitution, gotControls[0].Type)

	gotActions, err := s.ListActions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, gotActions, 1)
	assert.Equal(t, "high", gotActions[0].Priority)
}

func TestJHARowsUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewJHAStore(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &models.JHADocument{
		ID:              uuid.New(),
		Title:           "Forklift battery swap",
		TaskDescription: "Swap the battery on a reach truck",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, s.CreateDocument(ctx, doc))

	got, err := s.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)

	drafts := []models.JHARowDraft{
		{Position: 1, TaskStep: "Park and chock the truck", Hazards: []string{"Unexpected movement"}, Controls: []string{"Wheel chocks"}},
		{Position: 2, TaskStep: "Disconnect the battery", Hazards: []string{"Arc flash", "Acid splash"}, Controls: []string{"Insulated tools", "Face shield"}},
	}

	created, err := s.UpsertRows(ctx, doc.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = s.UpsertRows(ctx, doc.ID, drafts)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	rows, err := s.ListRows(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Arc flash", "Acid splash"}, rows[1].Hazards)
}

func TestIncidentArtifacts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewIncidentStore(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	inc := &models.Incident{
		ID:        uuid.New(),
		Title:     "Forklift near miss",
		RawReport: "A reversing forklift nearly struck a picker in aisle 4.",
		Status:    models.IncidentStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateIncident(ctx, inc))

	st := &models.WitnessStatement{
		ID:          uuid.New(),
		IncidentID:  inc.ID,
		WitnessName: "J. Ortiz",
		Statement:   "I never heard the horn.",
		CreatedAt:   now,
	}
	require.NoError(t, s.AddWitnessStatement(ctx, st))

	gotSt, err := s.GetWitnessStatement(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, inc.ID, gotSt.IncidentID)

	// Facts upsert by fingerprint
	facts := []models.FactDraft{{Fact: "No horn sounded"}, {Fact: "Picker was in aisle 4"}}
	created, err := s.UpsertFacts(ctx, inc.ID, &st.ID, facts)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = s.UpsertFacts(ctx, inc.ID, &st.ID, facts)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	gotFacts, err := s.ListFacts(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, gotFacts, 2)
	require.NotNil(t, gotFacts[0].StatementID)
	assert.Equal(t, st.ID, *gotFacts[0].StatementID)

	// Narrative
	require.NoError(t, s.SetNarrative(ctx, inc.ID, "At 14:05 the forklift reversed without warning."))
	gotInc, err := s.GetIncident(ctx, inc.ID)
	require.NoError(t, err)
	assert.Equal(t, "At 14:05 the forklift reversed without warning.", gotInc.Narrative)

	// Timeline upsert
	ts := now.Truncate(time.Second)
	timeline := []models.TimelineDraft{
		{OccurredAt: &ts, Description: "Forklift begins reversing", Source: "J. Ortiz"},
	}
	created, err = s.UpsertTimeline(ctx, inc.ID, timeline)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	created, err = s.UpsertTimeline(ctx, inc.ID, timeline)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// Findings upsert
	findings := []models.FindingDraft{{Detail: "Witnesses disagree on the time", Severity: "medium"}}
	created, err = s.UpsertFindings(ctx, inc.ID, findings)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	created, err = s.UpsertFindings(ctx, inc.ID, findings)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestCausesKeyedByKind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewIncidentStore(pool)
	ctx := context.Background()

	now := time.Now().UTC()
	inc := &models.Incident{
		ID:        uuid.New(),
		Title:     "Forklift near miss",
		RawReport: "report",
		Status:    models.IncidentStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateIncident(ctx, inc))

	drafts := []models.CauseDraft{{Description: "Horn disabled", Rationale: "Maintenance log"}}

	created, err := s.UpsertCauses(ctx, inc.ID, models.CauseKindContributing, drafts)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// Same text under the root kind is a distinct row
	created, err = s.UpsertCauses(ctx, inc.ID, models.CauseKindRoot, drafts)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	contributing, err := s.ListCauses(ctx, inc.ID, models.CauseKindContributing)
	require.NoError(t, err)
	require.Len(t, contributing, 1)
	assert.Equal(t, models.CauseKindContributing, contributing[0].Kind)

	root, err := s.ListCauses(ctx, inc.ID, models.CauseKindRoot)
	require.NoError(t, err)
	require.Len(t, root, 1)

	// Corrective actions upsert by fingerprint
	actions := []models.ActionDraft{{Description: "Restore and test the reversing horn", Priority: "high"}}
	created, err = s.UpsertCorrectiveActions(ctx, inc.ID, actions)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	created, err = s.UpsertCorrectiveActions(ctx, inc.ID, actions)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	got, err := s.ListCorrectiveActions(ctx, inc.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "high", got[0].Priority)
}
