package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/riskdocs/riskdocs/internal/api/middleware"
	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/riskdocs/riskdocs/internal/directory"
	"github.com/riskdocs/riskdocs/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefixLen = 8

// Keys serves the admin API-key endpoints. The raw key is returned once
// at creation; only the bcrypt hash is stored.
type Keys struct {
	directory directory.Store
}

func NewKeys(d directory.Store) *Keys {
	return &Keys{directory: d}
}

// Create handles POST /api/v1/admin/keys.
func (h *Keys) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := mw.GetTenantID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return
	}

	var req struct {
		Name   string   `json:"name"`
		Scopes []string `json:"scopes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if req.Name == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
		return
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{"default"}
	}

	rawKey, err := generateKey()
	if err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to generate key", nil)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to hash key", nil)
		return
	}

	now := time.Now().UTC()
	key := &models.APIKey{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      req.Name,
		KeyHash:   string(hash),
		KeyPrefix: rawKey[:keyPrefixLen],
		Scopes:    req.Scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.directory.CreateAPIKey(r.Context(), key); err != nil {
		if errors.Is(err, directory.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "Key collision, retry", nil)
			return
		}
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to store key", nil)
		return
	}

	response.Created(w, struct {
		*models.APIKey
		Key string `json:"key"`
	}{key, rawKey})
}

// List handles GET /api/v1/admin/keys.
func (h *Keys) List(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := mw.GetTenantID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return
	}

	keys, err := h.directory.ListAPIKeys(r.Context(), tenantID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to list keys", nil)
		return
	}
	response.Collection(w, keys, response.CollectionMeta{Count: len(keys)})
}

// Revoke handles DELETE /api/v1/admin/keys/{keyID}. Revocation is
// scoped to the caller's tenant.
func (h *Keys) Revoke(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := mw.GetTenantID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing tenant", nil)
		return
	}
	keyID, ok := urlUUID(w, r, "keyID")
	if !ok {
		return
	}

	if err := h.directory.RevokeAPIKey(r.Context(), keyID, tenantID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Key not found", nil)
			return
		}
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "Failed to revoke key", nil)
		return
	}
	response.JSON(w, struct {
		Revoked bool `json:"revoked"`
	}{true})
}

// generateKey returns a new raw API key: rk_ plus 32 random hex chars.
func generateKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "rk_" + hex.EncodeToString(buf), nil
}
