package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// noStore keeps student data out of shared caches.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

func write(c *gin.Context, status int, env Envelope) {
	noStore(c)
	c.JSON(status, env)
}

// JSON sends data with optional pagination and meta.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	env := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 {
		env.Meta = meta[0]
	}
	write(c, status, env)
}

// Created responds with 201.
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Envelope{Data: data})
}

// Accepted responds with 202 for work handed to a background worker.
func Accepted(c *gin.Context, data interface{}) {
	write(c, http.StatusAccepted, Envelope{Data: data})
}

// Error maps err onto its status; anything untyped becomes a 500 INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	write(c, appErr.Status, Envelope{Error: appErr})
}

// Batch reports a bulk operation: 200 when every item succeeded, otherwise 207
// carrying the per-item result alongside a PARTIAL_FAILURE error.
func Batch(c *gin.Context, result *models.BatchResult) {
	env := Envelope{Data: result}
	if !result.HasFailures() {
		write(c, http.StatusOK, env)
		return
	}
	total := len(result.Failed) + len(result.Succeeded)
	env.Error = appErrors.Clone(appErrors.ErrPartialFailure, fmt.Sprintf("%d of %d items failed", len(result.Failed), total))
	write(c, env.Error.Status, env)
}

// File sends generated content as a download with extra headers.
func File(c *gin.Context, filename, contentType string, content []byte, headers map[string]string) {
	noStore(c)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	for k, v := range headers {
		c.Header(k, v)
	}
	c.Data(http.StatusOK, contentType, content)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
