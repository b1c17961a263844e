// Package handler contains the HTTP handlers. Handlers depend on small
// interfaces so tests can inject fakes without a database or a running
// job manager.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/riskdocs/riskdocs/internal/api/middleware"
	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/riskdocs/riskdocs/internal/jobs"
	"github.com/riskdocs/riskdocs/internal/store"
	"github.com/riskdocs/riskdocs/internal/tenant"
)

// Enqueuer is the job-manager surface handlers use to submit work.
type Enqueuer interface {
	Enqueue(ctx context.Context, req jobs.Request) (jobs.Job, error)
}

// JobGetter is the job-manager surface the poll handler uses.
type JobGetter interface {
	GetJob(id uuid.UUID) (jobs.Job, error)
}

// tenantServices resolves the request's tenant to its domain stores.
// Writes the error response itself when resolution fails.
func tenantServices(w http.ResponseWriter, r *http.Request, factory tenant.ServiceFactory) (tenant.Services, bool) {
	conn, ok := mw.GetConnString(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return tenant.Services{}, false
	}
	svc, err := factory.Services(conn)
	if err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to reach tenant database", nil)
		return tenant.Services{}, false
	}
	return svc, true
}

// urlUUID parses a uuid path parameter, writing the error response on
// failure.
func urlUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			"INVALID_REQUEST", param+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// enqueue submits the request and writes the 202 envelope. Callers
// verify the target document exists first so a typo'd id fails now
// instead of inside the job.
func enqueue(w http.ResponseWriter, r *http.Request, eq Enqueuer, req jobs.Request) {
	job, err := eq.Enqueue(r.Context(), req)
	if err != nil {
		if errors.Is(err, jobs.ErrManagerClosed) {
			response.Error(w, http.StatusServiceUnavailable,
				"SHUTTING_DOWN", "Server is shutting down", nil)
			return
		}
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to enqueue job", nil)
		return
	}
	response.Accepted(w, jobView(job))
}

// writeStoreError maps store errors to HTTP errors for document reads.
func writeStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
		return
	}
	response.Error(w, http.StatusInternalServerError,
		"INTERNAL_ERROR", "An unexpected error occurred", nil)
}

// jobResponse is the wire shape of a job snapshot.
type jobResponse struct {
	ID         uuid.UUID   `json:"id"`
	Type       jobs.Type   `json:"type"`
	Status     jobs.Status `json:"status"`
	Error      string      `json:"error,omitempty"`
	Result     any         `json:"result,omitempty"`
	EnqueuedAt string      `json:"enqueued_at"`
	StartedAt  string      `json:"started_at,omitempty"`
	FinishedAt string      `json:"finished_at,omitempty"`
}

func jobView(j jobs.Job) jobResponse {
	resp := jobResponse{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		Error:      j.Error,
		Result:     j.Result,
		EnqueuedAt: j.EnqueuedAt.Format(timeFormat),
	}
	if j.StartedAt != nil {
		resp.StartedAt = j.StartedAt.Format(timeFormat)
	}
	if j.FinishedAt != nil {
		resp.FinishedAt = j.FinishedAt.Format(timeFormat)
	}
	return resp
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"
