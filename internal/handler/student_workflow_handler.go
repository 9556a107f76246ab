package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

type studentWorkflow interface {
	Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error)
	Reject(ctx context.Context, id, reason string, actor *models.JWTClaims) (*models.Student, error)
	Blacklist(ctx context.Context, id, reason string, actor *models.JWTClaims) (*models.Student, error)
	Whitelist(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error)
	BulkApprove(ctx context.Context, ids []string, actor *models.JWTClaims) (*models.BatchResult, error)
	BulkReject(ctx context.Context, ids []string, reason string, actor *models.JWTClaims) (*models.BatchResult, error)
}

// StudentWorkflowHandler exposes registration status transitions.
type StudentWorkflowHandler struct {
	workflow studentWorkflow
}

// NewStudentWorkflowHandler constructs the handler.
func NewStudentWorkflowHandler(workflow studentWorkflow) *StudentWorkflowHandler {
	return &StudentWorkflowHandler{workflow: workflow}
}

// Approve godoc
// @Summary Approve a pending student
// @Tags Student Workflow
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/approve [post]
func (h *StudentWorkflowHandler) Approve(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	h.respond(c)(h.workflow.Approve(c.Request.Context(), c.Param("id"), claims))
}

// Reject godoc
// @Summary Reject a pending student
// @Tags Student Workflow
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.StatusReasonRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/reject [post]
func (h *StudentWorkflowHandler) Reject(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.StatusReasonRequest
	if !bindJSON(c, &req, "invalid reject payload") {
		return
	}
	h.respond(c)(h.workflow.Reject(c.Request.Context(), c.Param("id"), req.Reason, claims))
}

// Blacklist godoc
// @Summary Blacklist an approved student
// @Tags Student Workflow
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.StatusReasonRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/blacklist [post]
func (h *StudentWorkflowHandler) Blacklist(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.StatusReasonRequest
	if !bindJSON(c, &req, "invalid blacklist payload") {
		return
	}
	h.respond(c)(h.workflow.Blacklist(c.Request.Context(), c.Param("id"), req.Reason, claims))
}

// Whitelist godoc
// @Summary Lift a student's blacklist
// @Tags Student Workflow
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/whitelist [post]
func (h *StudentWorkflowHandler) Whitelist(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	h.respond(c)(h.workflow.Whitelist(c.Request.Context(), c.Param("id"), claims))
}

// BulkApprove godoc
// @Summary Approve several students
// @Description Items are applied independently; 207 reports the items that failed
// @Tags Student Workflow
// @Accept json
// @Produce json
// @Param payload body models.BulkStatusRequest true "Student IDs"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /students/bulk/approve [post]
func (h *StudentWorkflowHandler) BulkApprove(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.BulkStatusRequest
	if !bindJSON(c, &req, "invalid bulk payload") {
		return
	}
	result, err := h.workflow.BulkApprove(c.Request.Context(), req.StudentIDs, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, result)
}

// BulkReject godoc
// @Summary Reject several students with one reason
// @Tags Student Workflow
// @Accept json
// @Produce json
// @Param payload body models.BulkStatusRequest true "Student IDs and reason"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Router /students/bulk/reject [post]
func (h *StudentWorkflowHandler) BulkReject(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.BulkStatusRequest
	if !bindJSON(c, &req, "invalid bulk payload") {
		return
	}
	result, err := h.workflow.BulkReject(c.Request.Context(), req.StudentIDs, req.Reason, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, result)
}

func (h *StudentWorkflowHandler) respond(c *gin.Context) func(*models.Student, error) {
	return func(student *models.Student, err error) {
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, student, nil)
	}
}
