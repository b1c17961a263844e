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

// RiskAssessments serves the risk assessment document endpoints and the
// extraction enqueue endpoints hanging off them.
type RiskAssessments struct {
	factory tenant.ServiceFactory
	manager Enqueuer
}

func NewRiskAssessments(factory tenant.ServiceFactory, manager Enqueuer) *RiskAssessments {
	return &RiskAssessments{factory: factory, manager: manager}
}

// Create handles POST /api/v1/risk-assessments.
func (h *RiskAssessments) Create(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}

	var req struct {
		Title    string `json:"title"`
		Activity string `json:"activity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Title == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "title is required", nil)
		return
	}
	if req.Activity == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "activity is required", nil)
		return
	}

	now := time.Now().UTC()
	a := &models.RiskAssessment{
		ID:        uuid.New(),
		Title:     req.Title,
		Activity:  req.Activity,
		Status:    models.AssessmentStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := svc.RiskAssessments.CreateAssessment(r.Context(), a); err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to create risk assessment", nil)
		return
	}
	response.Created(w, a)
}

// Get handles GET /api/v1/risk-assessments/{assessmentID}. The response
// bundles the assessment with its full step/hazard/control/action tree.
func (h *RiskAssessments) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "assessmentID")
	if !ok {
		return
	}

	a, err := svc.RiskAssessments.GetAssessment(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Risk assessment")
		return
	}

	steps, err := svc.RiskAssessments.ListSteps(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Risk assessment")
		return
	}
	hazards, err := svc.RiskAssessments.ListHazards(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Risk assessment")
		return
	}
	controls, err := svc.RiskAssessments.ListControls(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Risk assessment")
		return
	}
	actions, err := svc.RiskAssessments.ListActions(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Risk assessment")
		return
	}

	response.JSON(w, struct {
		*models.RiskAssessment
		Steps    []*models.Step       `json:"steps"`
		Hazards  []*models.Hazard     `json:"hazards"`
		Controls []*models.Control    `json:"controls"`
		Actions  []*models.ActionItem `json:"actions"`
	}{a, steps, hazards, controls, actions})
}

// ExtractSteps handles POST /api/v1/risk-assessments/{assessmentID}/extract-steps.
func (h *RiskAssessments) ExtractSteps(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.StepExtractionRequest{ConnString: conn, AssessmentID: id})
}

// ExtractHazards handles POST /api/v1/risk-assessments/{assessmentID}/extract-hazards.
func (h *RiskAssessments) ExtractHazards(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.HazardExtractionRequest{ConnString: conn, AssessmentID: id})
}

// SuggestControls handles POST /api/v1/risk-assessments/{assessmentID}/suggest-controls.
func (h *RiskAssessments) SuggestControls(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.ControlSuggestionRequest{ConnString: conn, AssessmentID: id})
}

// SuggestActions handles POST /api/v1/risk-assessments/{assessmentID}/suggest-actions.
func (h *RiskAssessments) SuggestActions(w http.ResponseWriter, r *http.Request) {
	conn, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.ActionSuggestionRequest{ConnString: conn, AssessmentID: id})
}

// target resolves the conn string and assessment id and verifies the
// assessment exists before any job is enqueued against it.
func (h *RiskAssessments) target(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	conn, ok := mw.GetConnString(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return "", uuid.Nil, false
	}
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return "", uuid.Nil, false
	}
	id, ok := urlUUID(w, r, "assessmentID")
	if !ok {
		return "", uuid.Nil, false
	}
	if _, err := svc.RiskAssessments.GetAssessment(r.Context(), id); err != nil {
		writeStoreError(w, err, "Risk assessment")
		return "", uuid.Nil, false
	}
	return conn, id, true
}
