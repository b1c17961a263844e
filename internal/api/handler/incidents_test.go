package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/riskdocs/riskdocs/internal/api/handler"
	"github.com/riskdocs/riskdocs/internal/jobs"
	"github.com/riskdocs/riskdocs/internal/store"
	"github.com/riskdocs/riskdocs/internal/tenant"
	"github.com/riskdocs/riskdocs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIncidentStore struct {
	store.IncidentStore

	getIncident         func(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	getWitnessStatement func(ctx context.Context, id uuid.UUID) (*models.WitnessStatement, error)
	addWitnessStatement func(ctx context.Context, st *models.WitnessStatement) error
	createIncident      func(ctx context.Context, inc *models.Incident) error
}

func (f *fakeIncidentStore) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	return f.getIncident(ctx, id)
}

func (f *fakeIncidentStore) GetWitnessStatement(ctx context.Context, id uuid.UUID) (*models.WitnessStatement, error) {
	return f.getWitnessStatement(ctx, id)
}

func (f *fakeIncidentStore) AddWitnessStatement(ctx context.Context, st *models.WitnessStatement) error {
	return f.addWitnessStatement(ctx, st)
}

func (f *fakeIncidentStore) CreateIncident(ctx context.Context, inc *models.Incident) error {
	return f.createIncident(ctx, inc)
}

func incidentExists(incidentID uuid.UUID) *fakeIncidentStore {
	return &fakeIncidentStore{
		getIncident: func(_ context.Context, id uuid.UUID) (*models.Incident, error) {
			if id != incidentID {
				return nil, store.ErrNotFound
			}
			return &models.Incident{ID: id}, nil
		},
	}
}

func TestIncidents_CreateRejectsBadTimestamp(t *testing.T) {
	inc := &fakeIncidentStore{
		createIncident: func(_ context.Context, _ *models.Incident) error { return nil },
	}
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: inc}}, &fakeEnqueuer{})

	rec := serve(http.MethodPost, "/api/v1/incidents", "/api/v1/incidents",
		`{"title":"Forklift near miss","raw_report":"report","occurred_at":"yesterday"}`, h.Create)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errCode(t, rec))
}

func TestIncidents_AddStatement(t *testing.T) {
	incidentID := uuid.New()
	st := incidentExists(incidentID)
	var added *models.WitnessStatement
	st.addWitnessStatement = func(_ context.Context, s *models.WitnessStatement) error {
		added = s
		return nil
	}
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: st}}, &fakeEnqueuer{})

	rec := serve(http.MethodPost, "/api/v1/incidents/{incidentID}/statements",
		"/api/v1/incidents/"+incidentID.String()+"/statements",
		`{"witness_name":"J. Ortiz","statement":"I never heard the horn."}`, h.AddStatement)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, added)
	assert.Equal(t, incidentID, added.IncidentID)
	assert.Equal(t, "J. Ortiz", added.WitnessName)
}

func TestIncidents_ExtractWitness(t *testing.T) {
	incidentID := uuid.New()
	statementID := uuid.New()
	st := incidentExists(incidentID)
	st.getWitnessStatement = func(_ context.Context, id uuid.UUID) (*models.WitnessStatement, error) {
		require.Equal(t, statementID, id)
		return &models.WitnessStatement{ID: id, IncidentID: incidentID}, nil
	}
	eq := &fakeEnqueuer{}
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: st}}, eq)

	rec := serve(http.MethodPost, "/api/v1/incidents/{incidentID}/extract-witness",
		"/api/v1/incidents/"+incidentID.String()+"/extract-witness",
		fmt.Sprintf(`{"statement_id":%q}`, statementID), h.ExtractWitness)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	req, ok := eq.last.(jobs.WitnessExtractionRequest)
	require.True(t, ok)
	assert.Equal(t, incidentID, req.IncidentID)
	assert.Equal(t, statementID, req.StatementID)
}

func TestIncidents_ExtractWitnessWrongIncident(t *testing.T) {
	incidentID := uuid.New()
	statementID := uuid.New()
	st := incidentExists(incidentID)
	st.getWitnessStatement = func(_ context.Context, id uuid.UUID) (*models.WitnessStatement, error) {
		// Statement exists but belongs to a different incident
		return &models.WitnessStatement{ID: id, IncidentID: uuid.New()}, nil
	}
	eq := &fakeEnqueuer{}
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: st}}, eq)

	rec := serve(http.MethodPost, "/api/v1/incidents/{incidentID}/extract-witness",
		"/api/v1/incidents/"+incidentID.String()+"/extract-witness",
		fmt.Sprintf(`{"statement_id":%q}`, statementID), h.ExtractWitness)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, eq.last)
}

func TestIncidents_ExtractWitnessMissingStatementID(t *testing.T) {
	incidentID := uuid.New()
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: incidentExists(incidentID)}}, &fakeEnqueuer{})

	rec := serve(http.MethodPost, "/api/v1/incidents/{incidentID}/extract-witness",
		"/api/v1/incidents/"+incidentID.String()+"/extract-witness", `{}`, h.ExtractWitness)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIncidents_JobRoutesVerifyIncident(t *testing.T) {
	eq := &fakeEnqueuer{}
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: incidentExists(uuid.New())}}, eq)

	routes := map[string]http.HandlerFunc{
		"extract-narrative": h.ExtractNarrative,
		"merge-timeline":    h.MergeTimeline,
		"check-consistency": h.CheckConsistency,
		"coach-causes":      h.CoachCauses,
		"coach-root-cause":  h.CoachRootCause,
		"coach-actions":     h.CoachActions,
	}

	for name, fn := range routes {
		t.Run(name, func(t *testing.T) {
			// Unknown incident id: 404, nothing enqueued
			rec := serve(http.MethodPost, "/api/v1/incidents/{incidentID}/"+name,
				"/api/v1/incidents/"+uuid.NewString()+"/"+name, "", fn)
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
	assert.Nil(t, eq.last)
}

func TestIncidents_CoachCausesEnqueues(t *testing.T) {
	incidentID := uuid.New()
	eq := &fakeEnqueuer{}
	h := handler.NewIncidents(fakeFactory{svc: tenant.Services{Incidents: incidentExists(incidentID)}}, eq)

	rec := serve(http.MethodPost, "/api/v1/incidents/{incidentID}/coach-causes",
		"/api/v1/incidents/"+incidentID.String()+"/coach-causes", "", h.CoachCauses)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	req, ok := eq.last.(jobs.CauseCoachingRequest)
	require.True(t, ok)
	assert.Equal(t, incidentID, req.IncidentID)
	assert.Equal(t, testConn, req.ConnString)
}
