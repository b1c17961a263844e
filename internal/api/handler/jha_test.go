package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riskdocs/riskdocs/internal/api/handler"
	"github.com/riskdocs/riskdocs/internal/jobs"
	"github.com/riskdocs/riskdocs/internal/store"
	"github.com/riskdocs/riskdocs/internal/tenant"
	"github.com/riskdocs/riskdocs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJHAStore struct {
	store.JHAStore

	createDocument func(ctx context.Context, doc *models.JHADocument) error
	getDocument    func(ctx context.Context, id uuid.UUID) (*models.JHADocument, error)
	listRows       func(ctx context.Context, documentID uuid.UUID) ([]*models.JHARow, error)
}

func (f *fakeJHAStore) CreateDocument(ctx context.Context, doc *models.JHADocument) error {
	return f.createDocument(ctx, doc)
}

func (f *fakeJHAStore) GetDocument(ctx context.Context, id uuid.UUID) (*models.JHADocument, error) {
	return f.getDocument(ctx, id)
}

func (f *fakeJHAStore) ListRows(ctx context.Context, documentID uuid.UUID) ([]*models.JHARow, error) {
	return f.listRows(ctx, documentID)
}

func TestJHA_Create(t *testing.T) {
	var created *models.JHADocument
	js := &fakeJHAStore{
		createDocument: func(_ context.Context, doc *models.JHADocument) error {
			created = doc
			return nil
		},
	}
	h := handler.NewJHA(fakeFactory{svc: tenant.Services{JHAs: js}}, &fakeEnqueuer{})

	rec := serve(http.MethodPost, "/api/v1/jha", "/api/v1/jha",
		`{"title":"Forklift unloading","task_description":"Unload pallets at dock 3"}`, h.Create)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "Forklift unloading", created.Title)
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestJHA_CreateValidation(t *testing.T) {
	h := handler.NewJHA(fakeFactory{}, &fakeEnqueuer{})

	for name, body := range map[string]string{
		"missing title":            `{"task_description":"work"}`,
		"missing task_description": `{"title":"work"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := serve(http.MethodPost, "/api/v1/jha", "/api/v1/jha", body, h.Create)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_REQUEST", errCode(t, rec))
		})
	}
}

func TestJHA_GetIncludesRows(t *testing.T) {
	docID := uuid.New()
	now := time.Now().UTC()
	js := &fakeJHAStore{
		getDocument: func(_ context.Context, id uuid.UUID) (*models.JHADocument, error) {
			require.Equal(t, docID, id)
			return &models.JHADocument{ID: id, Title: "Forklift unloading", CreatedAt: now, UpdatedAt: now}, nil
		},
		listRows: func(_ context.Context, documentID uuid.UUID) ([]*models.JHARow, error) {
			return []*models.JHARow{
				{ID: uuid.New(), DocumentID: documentID, Position: 1, TaskStep: "Chock the trailer wheels"},
				{ID: uuid.New(), DocumentID: documentID, Position: 2, TaskStep: "Inspect the dock plate"},
			}, nil
		},
	}
	h := handler.NewJHA(fakeFactory{svc: tenant.Services{JHAs: js}}, &fakeEnqueuer{})

	rec := serve(http.MethodGet, "/api/v1/jha/{documentID}", "/api/v1/jha/"+docID.String(), "", h.Get)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, docID.String(), data["id"])
	rows, ok := data["rows"].([]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestJHA_GetUnknownDocument(t *testing.T) {
	js := &fakeJHAStore{
		getDocument: func(_ context.Context, _ uuid.UUID) (*models.JHADocument, error) {
			return nil, store.ErrNotFound
		},
	}
	h := handler.NewJHA(fakeFactory{svc: tenant.Services{JHAs: js}}, &fakeEnqueuer{})

	rec := serve(http.MethodGet, "/api/v1/jha/{documentID}", "/api/v1/jha/"+uuid.NewString(), "", h.Get)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errCode(t, rec))
}

func TestJHA_ExtractRowsEnqueues(t *testing.T) {
	docID := uuid.New()
	js := &fakeJHAStore{
		getDocument: func(_ context.Context, id uuid.UUID) (*models.JHADocument, error) {
			return &models.JHADocument{ID: id}, nil
		},
	}
	eq := &fakeEnqueuer{}
	h := handler.NewJHA(fakeFactory{svc: tenant.Services{JHAs: js}}, eq)

	rec := serve(http.MethodPost, "/api/v1/jha/{documentID}/extract-rows",
		"/api/v1/jha/"+docID.String()+"/extract-rows", "", h.ExtractRows)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, string(jobs.TypeJHARowExtraction), data["type"])

	req, ok := eq.last.(jobs.JHARowExtractionRequest)
	require.True(t, ok)
	assert.Equal(t, testConn, req.ConnString)
	assert.Equal(t, docID, req.DocumentID)
}

func TestJHA_ExtractRowsUnknownDocument(t *testing.T) {
	js := &fakeJHAStore{
		getDocument: func(_ context.Context, _ uuid.UUID) (*models.JHADocument, error) {
			return nil, store.ErrNotFound
		},
	}
	eq := &fakeEnqueuer{}
	h := handler.NewJHA(fakeFactory{svc: tenant.Services{JHAs: js}}, eq)

	rec := serve(http.MethodPost, "/api/v1/jha/{documentID}/extract-rows",
		"/api/v1/jha/"+uuid.NewString()+"/extract-rows", "", h.ExtractRows)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Nil(t, eq.last)
}
