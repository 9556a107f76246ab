package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

type jobService interface {
	Submit(ctx context.Context, req models.CreateJobRequest, actor *models.JWTClaims) (*models.JobPosting, error)
	Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.JobPosting, error)
	List(ctx context.Context, filter models.JobFilter, actor *models.JWTClaims) ([]models.JobPosting, *models.Pagination, error)
	ListVisible(ctx context.Context, actor *models.JWTClaims) ([]models.JobPosting, error)
	Apply(ctx context.Context, jobID string, actor *models.JWTClaims) (*models.JobApplication, error)
}

// JobHandler exposes job posting endpoints.
type JobHandler struct {
	jobs jobService
}

// NewJobHandler constructs the handler.
func NewJobHandler(jobs jobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Submit godoc
// @Summary Submit a job posting for review
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body models.CreateJobRequest true "Posting"
// @Success 201 {object} response.Envelope
// @Router /jobs [post]
func (h *JobHandler) Submit(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateJobRequest
	if !bindJSON(c, &req, "invalid job payload") {
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// List godoc
// @Summary List job postings
// @Description Officers only see their own postings
// @Tags Jobs
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param search query string false "Title or company substring"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	page, limit, err := pageParams(c, defaultStudentPageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.JobFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: limit,
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.JobStatus(strings.ToUpper(raw))
		switch status {
		case models.JobPending, models.JobApproved, models.JobRejected:
			filter.Status = &status
		default:
			response.Error(c, appErrors.Validation("invalid status %q", raw))
			return
		}
	}
	jobs, pagination, err := h.jobs.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, pagination)
}

// Review godoc
// @Summary Approve or reject a pending job posting
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body models.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs/{id}/review [post]
func (h *JobHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	job, err := h.jobs.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Visible godoc
// @Summary Open postings targeted at the current student
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /jobs/visible [get]
func (h *JobHandler) Visible(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	jobs, err := h.jobs.ListVisible(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Apply godoc
// @Summary Apply to a job posting
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /jobs/{id}/apply [post]
func (h *JobHandler) Apply(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	app, err := h.jobs.Apply(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}
