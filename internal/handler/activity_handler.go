package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, filter models.ActivityFilter, actor *models.JWTClaims) ([]models.ActivityLog, *models.Pagination, error)
	Summary(ctx context.Context, from, to *time.Time, actor *models.JWTClaims) ([]models.ActivitySummary, error)
}

// ActivityHandler exposes the activity trail to super admins.
type ActivityHandler struct {
	activity activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(activity activityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// List godoc
// @Summary List activity entries
// @Tags Activity
// @Produce json
// @Param actor_id query string false "Actor"
// @Param action query string false "Action"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	page, limit, err := pageParams(c, defaultStudentPageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ActivityFilter{
		ActorID:  strings.TrimSpace(c.Query("actor_id")),
		Action:   strings.TrimSpace(c.Query("action")),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: limit,
	}
	entries, pagination, err := h.activity.List(c.Request.Context(), filter, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Summary godoc
// @Summary Activity counts per action
// @Tags Activity
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /activity/summary [get]
func (h *ActivityHandler) Summary(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.activity.Summary(c.Request.Context(), from, to, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
