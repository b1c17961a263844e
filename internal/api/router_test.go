package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riskdocs/riskdocs/internal/api"
	"github.com/riskdocs/riskdocs/internal/api/handler"
	mw "github.com/riskdocs/riskdocs/internal/api/middleware"
	"github.com/riskdocs/riskdocs/internal/directory"
	"github.com/riskdocs/riskdocs/internal/jobs"
	"github.com/riskdocs/riskdocs/internal/tenant"
	"github.com/riskdocs/riskdocs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubStore struct {
	keys []*models.APIKey
	tn   *models.Tenant
}

func (s *stubStore) Ping(ctx context.Context) error { return nil }

func (s *stubStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error { return nil }

func (s *stubStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.tn == nil {
		return nil, directory.ErrNotFound
	}
	return s.tn, nil
}

func (s *stubStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) { return nil, nil }

func (s *stubStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	return s.keys, nil
}

func (s *stubStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error { return nil }

func (s *stubStore) ListAPIKeys(ctx context.Context, tenantID uuid.UUID) ([]*models.APIKey, error) {
	return nil, nil
}

func (s *stubStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	return nil
}

type stubCache struct{}

func (stubCache) Ping(ctx context.Context) error { return nil }

func (stubCache) SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error {
	return nil
}

func (stubCache) GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error) {
	return "", false, nil
}

func (stubCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	return 1, nil
}

type stubEnqueuer struct{}

func (stubEnqueuer) Enqueue(ctx context.Context, req jobs.Request) (jobs.Job, error) {
	return jobs.Job{ID: uuid.New(), Type: req.Type(), Status: jobs.StatusQueued, EnqueuedAt: time.Now()}, nil
}

type stubGetter struct{}

func (stubGetter) GetJob(id uuid.UUID) (jobs.Job, error) {
	return jobs.Job{}, jobs.ErrJobNotFound
}

type stubFactory struct{}

func (stubFactory) Services(connString string) (tenant.Services, error) {
	return tenant.Services{}, nil
}

const routerTestKey = "rk_routerkeyrouterkeyrouterkeyrou"

func newTestRouter(t *testing.T, scopes []string) http.Handler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(routerTestKey), bcrypt.MinCost)
	require.NoError(t, err)

	tenantID := uuid.New()
	dir := &stubStore{
		keys: []*models.APIKey{{
			ID:       uuid.New(),
			TenantID: tenantID,
			KeyHash:  string(hash),
			Scopes:   scopes,
		}},
		tn: &models.Tenant{ID: tenantID, Name: "Acme Safety", DatabaseURL: "postgres://localhost/acme"},
	}

	auth := mw.NewAuth(dir)
	rl := mw.NewRateLimit(stubCache{}, 60)
	factory := stubFactory{}
	eq := stubEnqueuer{}

	return api.NewRouter(api.Dependencies{
		Auth:            auth,
		RateLimit:       rl,
		Health:          handler.NewHealthHandler(dir, stubCache{}),
		PollJob:         handler.NewPollJobHandler(stubGetter{}, stubCache{}),
		RiskAssessments: handler.NewRiskAssessments(factory, eq),
		JHA:             handler.NewJHA(factory, eq),
		Incidents:       handler.NewIncidents(factory, eq),
		Keys:            handler.NewKeys(dir),
		Tenants:         handler.NewTenants(dir),
	})
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router := newTestRouter(t, []string{"default"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, []string{"default"})

	for _, target := range []string{
		"/api/v1/jobs/" + uuid.NewString(),
		"/api/v1/risk-assessments/" + uuid.NewString(),
		"/api/v1/incidents/" + uuid.NewString(),
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestRouter_AuthenticatedPollReaches404(t *testing.T) {
	router := newTestRouter(t, []string{"default"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+routerTestKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Auth passed; the stub getter knows no jobs
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRouter_AdminRoutesNeedAdminScope(t *testing.T) {
	router := newTestRouter(t, []string{"default"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+routerTestKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminScopePasses(t *testing.T) {
	router := newTestRouter(t, []string{"default", "admin"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+routerTestKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
