package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/riskdocs/riskdocs/internal/api/handler"
	mw "github.com/riskdocs/riskdocs/internal/api/middleware"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	Health          http.HandlerFunc
	PollJob         http.HandlerFunc
	RiskAssessments *handler.RiskAssessments
	JHA             *handler.JHA
	Incidents       *handler.Incidents
	Keys            *handler.Keys
	Tenants         *handler.Tenants
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", deps.Health)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/jobs/{jobID}", deps.PollJob)

		r.Post("/api/v1/risk-assessments", deps.RiskAssessments.Create)
		r.Get("/api/v1/risk-assessments/{assessmentID}", deps.RiskAssessments.Get)
		r.Post("/api/v1/risk-assessments/{assessmentID}/extract-steps", deps.RiskAssessments.ExtractSteps)
		r.Post("/api/v1/risk-assessments/{assessmentID}/extract-hazards", deps.RiskAssessments.ExtractHazards)
		r.Post("/api/v1/risk-assessments/{assessmentID}/suggest-controls", deps.RiskAssessments.SuggestControls)
		r.Post("/api/v1/risk-assessments/{assessmentID}/suggest-actions", deps.RiskAssessments.SuggestActions)

		r.Post("/api/v1/jha", deps.JHA.Create)
		r.Get("/api/v1/jha/{documentID}", deps.JHA.Get)
		r.Post("/api/v1/jha/{documentID}/extract-rows", deps.JHA.ExtractRows)

		r.Post("/api/v1/incidents", deps.Incidents.Create)
		r.Get("/api/v1/incidents/{incidentID}", deps.Incidents.Get)
		r.Post("/api/v1/incidents/{incidentID}/statements", deps.Incidents.AddStatement)
		r.Post("/api/v1/incidents/{incidentID}/extract-witness", deps.Incidents.ExtractWitness)
		r.Post("/api/v1/incidents/{incidentID}/extract-narrative", deps.Incidents.ExtractNarrative)
		r.Post("/api/v1/incidents/{incidentID}/merge-timeline", deps.Incidents.MergeTimeline)
		r.Post("/api/v1/incidents/{incidentID}/check-consistency", deps.Incidents.CheckConsistency)
		r.Post("/api/v1/incidents/{incidentID}/coach-causes", deps.Incidents.CoachCauses)
		r.Post("/api/v1/incidents/{incidentID}/coach-root-cause", deps.Incidents.CoachRootCause)
		r.Post("/api/v1/incidents/{incidentID}/coach-actions", deps.Incidents.CoachActions)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/keys", deps.Keys.Create)
			r.Get("/api/v1/admin/keys", deps.Keys.List)
			r.Delete("/api/v1/admin/keys/{keyID}", deps.Keys.Revoke)

			r.Post("/api/v1/admin/tenants", deps.Tenants.Create)
			r.Get("/api/v1/admin/tenants", deps.Tenants.List)
		})
	})

	return r
}
