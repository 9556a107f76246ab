package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/middleware"
	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

type collegeService interface {
	ListColleges(ctx context.Context, regionID string) ([]models.College, bool, error)
	CreateCollege(ctx context.Context, req models.CreateCollegeRequest, actor *models.JWTClaims) (*models.College, error)
	ListRegions(ctx context.Context) ([]models.Region, bool, error)
	CreateRegion(ctx context.Context, req models.CreateRegionRequest, actor *models.JWTClaims) (*models.Region, error)
}

// CollegeHandler exposes college and region reference data.
type CollegeHandler struct {
	colleges collegeService
}

// NewCollegeHandler constructs the handler.
func NewCollegeHandler(colleges collegeService) *CollegeHandler {
	return &CollegeHandler{colleges: colleges}
}

// ListColleges godoc
// @Summary List colleges
// @Tags Reference Data
// @Produce json
// @Param region_id query string false "Region"
// @Success 200 {object} response.Envelope
// @Router /colleges [get]
func (h *CollegeHandler) ListColleges(c *gin.Context) {
	colleges, hit, err := h.colleges.ListColleges(c.Request.Context(), strings.TrimSpace(c.Query("region_id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, colleges, nil, middleware.ResponseMeta(c))
}

// CreateCollege godoc
// @Summary Create a college
// @Tags Reference Data
// @Accept json
// @Produce json
// @Param payload body models.CreateCollegeRequest true "College"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /colleges [post]
func (h *CollegeHandler) CreateCollege(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateCollegeRequest
	if !bindJSON(c, &req, "invalid college payload") {
		return
	}
	college, err := h.colleges.CreateCollege(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, college)
}

// ListRegions godoc
// @Summary List regions
// @Tags Reference Data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /regions [get]
func (h *CollegeHandler) ListRegions(c *gin.Context) {
	regions, hit, err := h.colleges.ListRegions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, regions, nil, middleware.ResponseMeta(c))
}

// CreateRegion godoc
// @Summary Create a region
// @Tags Reference Data
// @Accept json
// @Produce json
// @Param payload body models.CreateRegionRequest true "Region"
// @Success 201 {object} response.Envelope
// @Router /regions [post]
func (h *CollegeHandler) CreateRegion(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.CreateRegionRequest
	if !bindJSON(c, &req, "invalid region payload") {
		return
	}
	region, err := h.colleges.CreateRegion(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, region)
}
