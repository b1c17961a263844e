package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/riskdocs/riskdocs/internal/api/middleware"
	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/riskdocs/riskdocs/internal/jobs"
	"github.com/riskdocs/riskdocs/internal/tenant"
	"github.com/riskdocs/riskdocs/pkg/models"
)

// JHA serves the job hazard analysis endpoints.
type JHA struct {
	factory tenant.ServiceFactory
	manager Enqueuer
}

func NewJHA(factory tenant.ServiceFactory, manager Enqueuer) *JHA {
	return &JHA{factory: factory, manager: manager}
}

// Create handles POST /api/v1/jha.
func (h *JHA) Create(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}

	var req struct {
		Title           string `json:"title"`
		TaskDescription string `json:"task_description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Title == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "title is required", nil)
		return
	}
	if req.TaskDescription == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "task_description is required", nil)
		return
	}

	now := time.Now().UTC()
	doc := &models.JHADocument{
		ID:              uuid.New(),
		Title:           req.Title,
		TaskDescription: req.TaskDescription,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := svc.JHAs.CreateDocument(r.Context(), doc); err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to create JHA document", nil)
		return
	}
	response.Created(w, doc)
}

// Get handles GET /api/v1/jha/{documentID}, returning the document with
// its rows.
func (h *JHA) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := svc.JHAs.GetDocument(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "JHA document")
		return
	}
	rows, err := svc.JHAs.ListRows(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "JHA document")
		return
	}

	response.JSON(w, struct {
		*models.JHADocument
		Rows []*models.JHARow `json:"rows"`
	}{doc, rows})
}

// ExtractRows handles POST /api/v1/jha/{documentID}/extract-rows.
func (h *JHA) ExtractRows(w http.ResponseWriter, r *http.Request) {
	conn, ok := mw.GetConnString(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return
	}
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "documentID")
	if !ok {
		return
	}
	if _, err := svc.JHAs.GetDocument(r.Context(), id); err != nil {
		writeStoreError(w, err, "JHA document")
		return
	}
	enqueue(w, r, h.manager, jobs.JHARowExtractionRequest{ConnString: conn, DocumentID: id})
}
