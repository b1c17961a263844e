package tenant

import (
	"github.com/riskdocs/riskdocs/internal/store"
)

// Services bundles the domain stores bound to one tenant's database. The
// bundle is cheap and rebuilt per call; the expensive object is the
// cached handle underneath.
type Services struct {
	RiskAssessments store.RiskAssessmentStore
	JHAs            store.JHAStore
	Incidents       store.IncidentStore
}

// ServiceFactory resolves a tenant connection reference to working domain
// services, hiding handle caching from callers.
type ServiceFactory interface {
	Services(connString string) (Services, error)
}

// Factory is the registry-backed ServiceFactory.
type Factory struct {
	registry *Registry
}

// NewFactory creates a factory over the given registry.
func NewFactory(r *Registry) *Factory {
	return &Factory{registry: r}
}

// Services returns domain stores for the tenant identified by connString.
// Safe and cheap to call once per request.
func (f *Factory) Services(connString string) (Services, error) {
	h, err := f.registry.Handle(connString)
	if err != nil {
		return Services{}, err
	}
	return Services{
		RiskAssessments: store.NewRiskAssessmentStore(h.Pool()),
		JHAs:            store.NewJHAStore(h.Pool()),
		Incidents:       store.NewIncidentStore(h.Pool()),
	}, nil
}

var _ ServiceFactory = (*Factory)(nil)
