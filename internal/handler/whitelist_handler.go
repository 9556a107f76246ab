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

type whitelistService interface {
	Request(ctx context.Context, req models.CreateWhitelistRequest, actor *models.JWTClaims) (*models.WhitelistRequest, error)
	Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.WhitelistRequest, error)
	List(ctx context.Context, filter models.WhitelistRequestFilter, actor *models.JWTClaims) ([]models.WhitelistRequest, *models.Pagination, error)
}

// WhitelistHandler exposes blacklist appeal endpoints.
type WhitelistHandler struct {
	service whitelistService
}

// NewWhitelistHandler constructs the handler.
func NewWhitelistHandler(service whitelistService) *WhitelistHandler {
	return &WhitelistHandler{service: service}
}

// Create godoc
// @Summary File a whitelist request for a blacklisted student
// @Tags Whitelist Requests
// @Accept json
// @Produce json
// @Param payload body models.CreateWhitelistRequest true "Request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /whitelist-requests [post]
func (h *WhitelistHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateWhitelistRequest
	if !bindJSON(c, &req, "invalid whitelist request payload") {
		return
	}
	created, err := h.service.Request(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List godoc
// @Summary List whitelist requests
// @Tags Whitelist Requests
// @Produce json
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /whitelist-requests [get]
func (h *WhitelistHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	page, limit, err := pageParams(c, defaultStudentPageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.WhitelistRequestFilter{Page: page, PageSize: limit}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.WhitelistRequestStatus(strings.ToUpper(raw))
		switch status {
		case models.WhitelistPending, models.WhitelistApproved, models.WhitelistRejected:
			filter.Status = &status
		default:
			response.Error(c, appErrors.Validation("invalid status %q", raw))
			return
		}
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Review godoc
// @Summary Approve or reject a whitelist request
// @Tags Whitelist Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body models.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /whitelist-requests/{id}/review [post]
func (h *WhitelistHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	reviewed, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviewed, nil)
}
