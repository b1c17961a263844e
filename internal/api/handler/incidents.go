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

// Incidents serves the incident investigation endpoints: the case and
// witness statement documents, and the seven coaching/extraction jobs
// that work an investigation from raw report to corrective actions.
type Incidents struct {
	factory tenant.ServiceFactory
	manager Enqueuer
}

func NewIncidents(factory tenant.ServiceFactory, manager Enqueuer) *Incidents {
	return &Incidents{factory: factory, manager: manager}
}

// Create handles POST /api/v1/incidents.
func (h *Incidents) Create(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}

	var req struct {
		Title      string `json:"title"`
		RawReport  string `json:"raw_report"`
		OccurredAt string `json:"occurred_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Title == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "title is required", nil)
		return
	}
	if req.RawReport == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "raw_report is required", nil)
		return
	}

	var occurredAt *time.Time
	if req.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				"INVALID_REQUEST", "occurred_at must be a valid RFC3339 timestamp", nil)
			return
		}
		occurredAt = &t
	}

	now := time.Now().UTC()
	inc := &models.Incident{
		ID:         uuid.New(),
		Title:      req.Title,
		RawReport:  req.RawReport,
		Status:     models.IncidentStatusOpen,
		OccurredAt: occurredAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := svc.Incidents.CreateIncident(r.Context(), inc); err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to create incident", nil)
		return
	}
	response.Created(w, inc)
}

// Get handles GET /api/v1/incidents/{incidentID}, returning the case
// with every investigation artifact attached.
func (h *Incidents) Get(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "incidentID")
	if !ok {
		return
	}

	inc, err := svc.Incidents.GetIncident(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}

	statements, err := svc.Incidents.ListWitnessStatements(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}
	facts, err := svc.Incidents.ListFacts(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}
	timeline, err := svc.Incidents.ListTimeline(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}
	findings, err := svc.Incidents.ListFindings(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}
	contributing, err := svc.Incidents.ListCauses(r.Context(), id, models.CauseKindContributing)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}
	root, err := svc.Incidents.ListCauses(r.Context(), id, models.CauseKindRoot)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}
	actions, err := svc.Incidents.ListCorrectiveActions(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Incident")
		return
	}

	response.JSON(w, struct {
		*models.Incident
		Statements        []*models.WitnessStatement `json:"statements"`
		Facts             []*models.ExtractedFact    `json:"facts"`
		Timeline          []*models.TimelineEntry    `json:"timeline"`
		Findings          []*models.Finding          `json:"findings"`
		Causes            []*models.Cause            `json:"causes"`
		RootCauses        []*models.Cause            `json:"root_causes"`
		CorrectiveActions []*models.CorrectiveAction `json:"corrective_actions"`
	}{inc, statements, facts, timeline, findings, contributing, root, actions})
}

// AddStatement handles POST /api/v1/incidents/{incidentID}/statements.
func (h *Incidents) AddStatement(w http.ResponseWriter, r *http.Request) {
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return
	}
	id, ok := urlUUID(w, r, "incidentID")
	if !ok {
		return
	}
	if _, err := svc.Incidents.GetIncident(r.Context(), id); err != nil {
		writeStoreError(w, err, "Incident")
		return
	}

	var req struct {
		WitnessName string `json:"witness_name"`
		Statement   string `json:"statement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.WitnessName == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "witness_name is required", nil)
		return
	}
	if req.Statement == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "statement is required", nil)
		return
	}

	st := &models.WitnessStatement{
		ID:          uuid.New(),
		IncidentID:  id,
		WitnessName: req.WitnessName,
		Statement:   req.Statement,
		CreatedAt:   time.Now().UTC(),
	}
	if err := svc.Incidents.AddWitnessStatement(r.Context(), st); err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to store witness statement", nil)
		return
	}
	response.Created(w, st)
}

// ExtractWitness handles POST /api/v1/incidents/{incidentID}/extract-witness.
// The body names which statement to extract facts from.
func (h *Incidents) ExtractWitness(w http.ResponseWriter, r *http.Request) {
	conn, svc, id, ok := h.target(w, r)
	if !ok {
		return
	}

	var req struct {
		StatementID string `json:"statement_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	statementID, err := uuid.Parse(req.StatementID)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			"INVALID_REQUEST", "statement_id must be a valid UUID", nil)
		return
	}

	st, err := svc.Incidents.GetWitnessStatement(r.Context(), statementID)
	if err != nil {
		writeStoreError(w, err, "Witness statement")
		return
	}
	if st.IncidentID != id {
		response.Error(w, http.StatusNotFound,
			"NOT_FOUND", "Witness statement not found", nil)
		return
	}

	enqueue(w, r, h.manager, jobs.WitnessExtractionRequest{
		ConnString:  conn,
		IncidentID:  id,
		StatementID: statementID,
	})
}

// ExtractNarrative handles POST /api/v1/incidents/{incidentID}/extract-narrative.
func (h *Incidents) ExtractNarrative(w http.ResponseWriter, r *http.Request) {
	conn, _, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.NarrativeExtractionRequest{ConnString: conn, IncidentID: id})
}

// MergeTimeline handles POST /api/v1/incidents/{incidentID}/merge-timeline.
func (h *Incidents) MergeTimeline(w http.ResponseWriter, r *http.Request) {
	conn, _, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.TimelineMergeRequest{ConnString: conn, IncidentID: id})
}

// CheckConsistency handles POST /api/v1/incidents/{incidentID}/check-consistency.
func (h *Incidents) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	conn, _, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.ConsistencyCheckRequest{ConnString: conn, IncidentID: id})
}

// CoachCauses handles POST /api/v1/incidents/{incidentID}/coach-causes.
func (h *Incidents) CoachCauses(w http.ResponseWriter, r *http.Request) {
	conn, _, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.CauseCoachingRequest{ConnString: conn, IncidentID: id})
}

// CoachRootCause handles POST /api/v1/incidents/{incidentID}/coach-root-cause.
func (h *Incidents) CoachRootCause(w http.ResponseWriter, r *http.Request) {
	conn, _, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.RootCauseCoachingRequest{ConnString: conn, IncidentID: id})
}

// CoachActions handles POST /api/v1/incidents/{incidentID}/coach-actions.
func (h *Incidents) CoachActions(w http.ResponseWriter, r *http.Request) {
	conn, _, id, ok := h.target(w, r)
	if !ok {
		return
	}
	enqueue(w, r, h.manager, jobs.CorrectiveActionCoachingRequest{ConnString: conn, IncidentID: id})
}

// target resolves conn string, services and incident id, verifying the
// incident exists before a job is enqueued against it.
func (h *Incidents) target(w http.ResponseWriter, r *http.Request) (string, tenant.Services, uuid.UUID, bool) {
	conn, ok := mw.GetConnString(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return "", tenant.Services{}, uuid.Nil, false
	}
	svc, ok := tenantServices(w, r, h.factory)
	if !ok {
		return "", tenant.Services{}, uuid.Nil, false
	}
	id, ok := urlUUID(w, r, "incidentID")
	if !ok {
		return "", tenant.Services{}, uuid.Nil, false
	}
	if _, err := svc.Incidents.GetIncident(r.Context(), id); err != nil {
		writeStoreError(w, err, "Incident")
		return "", tenant.Services{}, uuid.Nil, false
	}
	return conn, svc, id, true
}
