package handler

import (
	"net/http"

	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/riskdocs/riskdocs/internal/cache"
	"github.com/riskdocs/riskdocs/internal/directory"
)

// NewHealthHandler returns the handler for GET /api/v1/health. Reports
// the directory database and Redis as components; degraded still answers
// 200 so load balancers keep routing while a dependency flaps.
func NewHealthHandler(dir directory.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]string{
			"directory": "ok",
			"redis":     "ok",
		}
		status := "ok"

		if err := dir.Ping(r.Context()); err != nil {
			components["directory"] = "unreachable"
			status = "degraded"
		}
		if err := ca.Ping(r.Context()); err != nil {
			components["redis"] = "unreachable"
			status = "degraded"
		}

		response.JSON(w, struct {
			Status     string            `json:"status"`
			Components map[string]string `json:"components"`
		}{status, components})
	}
}
