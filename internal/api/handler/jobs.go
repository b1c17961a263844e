package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/riskdocs/riskdocs/internal/cache"
	"github.com/riskdocs/riskdocs/internal/jobs"
)

// jobStatusResponse is the advisory shape served from the Redis mirror
// when this process has no record of the job (another replica ran it).
// Only the status survives mirroring; the full snapshot lives with the
// manager that executed the job.
type jobStatusResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// NewPollJobHandler returns the handler for GET /api/v1/jobs/{jobID}.
// Unknown ids fall back to the Redis status mirror before answering 404,
// so a deployment with several replicas still resolves jobs run
// elsewhere. A job whose retention window has expired answers 404, same
// as a job that never existed: the mirror entry shares the retention TTL.
func NewPollJobHandler(manager JobGetter, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "jobID")
		if !ok {
			return
		}

		job, err := manager.GetJob(id)
		if err == nil {
			response.JSON(w, jobView(job))
			return
		}
		if !errors.Is(err, jobs.ErrJobNotFound) {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		if ca != nil {
			status, found, cerr := ca.GetJobStatus(r.Context(), id)
			if cerr == nil && found {
				response.JSON(w, jobStatusResponse{ID: id, Status: status})
				return
			}
		}
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
	}
}
