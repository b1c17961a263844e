package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskdocs/riskdocs/internal/api/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	response.JSON(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["data"]["status"])
}

func TestAcceptedStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Accepted(rec, map[string]string{"status": "queued"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCollectionMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Collection(rec, []int{1, 2, 3}, response.CollectionMeta{Count: 3})

	var body struct {
		Data []int `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []int{1, 2, 3}, body.Data)
	assert.Equal(t, 3, body.Meta.Count)
}

func TestErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Error(rec, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details any    `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "Job not found", body.Error.Message)
	assert.NotContains(t, rec.Body.String(), `"details"`)
}
