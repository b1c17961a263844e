package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/riskdocs/riskdocs/internal/directory"
	"github.com/riskdocs/riskdocs/pkg/models"
)

// Tenants serves the admin tenant catalog endpoints. Connection strings
// are accepted on create but never echoed back.
type Tenants struct {
	directory directory.Store
}

func NewTenants(d directory.Store) *Tenants {
	return &Tenants{directory: d}
}

// Create handles POST /api/v1/admin/tenants.
func (h *Tenants) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		DatabaseURL string `json:"database_url"`
		StorageRoot string `json:"storage_root"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Name == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
		return
	}
	if !strings.HasPrefix(req.DatabaseURL, "postgres://") && !strings.HasPrefix(req.DatabaseURL, "postgresql://") {
		response.Error(w, http.StatusBadRequest,
			"INVALID_REQUEST", "database_url must be a postgres:// URL", nil)
		return
	}

	now := time.Now().UTC()
	tn := &models.Tenant{
		ID:          uuid.New(),
		Name:        req.Name,
		DatabaseURL: req.DatabaseURL,
		StorageRoot: req.StorageRoot,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.directory.CreateTenant(r.Context(), tn); err != nil {
		if errors.Is(err, directory.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_TENANT", "Tenant already exists", nil)
			return
		}
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to create tenant", nil)
		return
	}
	response.Created(w, tn)
}

// List handles GET /api/v1/admin/tenants.
func (h *Tenants) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.directory.ListTenants(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to list tenants", nil)
		return
	}
	response.Collection(w, tenants, response.CollectionMeta{Count: len(tenants)})
}
