package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

func TestBatchAllSucceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Batch(c, &models.BatchResult{Succeeded: []string{"a", "b"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "PARTIAL_FAILURE")
}

func TestBatchPartialFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Batch(c, &models.BatchResult{
		Succeeded: []string{"a"},
		Failed:    []models.BatchFailure{{ID: "b", Code: "INVALID_TRANSITION", Message: "not pending"}},
	})

	require.Equal(t, http.StatusMultiStatus, w.Code)
	var body struct {
		Data  models.BatchResult `json:"data"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "PARTIAL_FAILURE", body.Error.Code)
	assert.Equal(t, "1 of 2 items failed", body.Error.Message)
	assert.Equal(t, []string{"a"}, body.Data.Succeeded)
}

func TestFileSetsAttachmentHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	File(c, "students.csv", "text/csv", []byte("prn\n"), map[string]string{"X-Export-Row-Count": "0"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="students.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "0", w.Header().Get("X-Export-Row-Count"))
	assert.Equal(t, "prn\n", w.Body.String())
}
