package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

const defaultStudentPageSize = 20

type studentService interface {
	List(ctx context.Context, criteria studentfilter.Criteria, page, limit int, actor *models.JWTClaims) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error)
	Me(ctx context.Context, actor *models.JWTClaims) (*models.Student, error)
	UpdateProfile(ctx context.Context, req models.UpdateStudentProfileRequest, actor *models.JWTClaims) (*models.Student, error)
}

// StudentHandler exposes student listing and profile endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Description Every filter is optional; absent or empty values do not constrain the result
// @Tags Students
// @Produce json
// @Param status query string false "pending, approved, rejected or blacklisted"
// @Param search query string false "Name, email or PRN substring"
// @Param cgpa_min query number false "Minimum programme CGPA"
// @Param cgpa_max query number false "Maximum programme CGPA"
// @Param backlog_count query int false "Maximum backlog count"
// @Param branch query string false "Branch"
// @Param dob_from query string false "Earliest date of birth (YYYY-MM-DD)"
// @Param dob_to query string false "Latest date of birth (YYYY-MM-DD)"
// @Param height_min query number false "Minimum height"
// @Param height_max query number false "Maximum height"
// @Param weight_min query number false "Minimum weight"
// @Param weight_max query number false "Maximum weight"
// @Param has_driving_license query string false "yes or no"
// @Param has_pan query string false "yes or no"
// @Param has_aadhar query string false "yes or no"
// @Param has_passport query string false "yes or no"
// @Param districts query string false "Comma separated districts"
// @Param college_id query string false "College (super admin only)"
// @Param region_id query string false "Region"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	criteria, err := studentfilter.ParseQuery(c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	page, limit, err := pageParams(c, defaultStudentPageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, pagination, err := h.students.List(c.Request.Context(), criteria, page, limit, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	student, err := h.students.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Me godoc
// @Summary Current student's profile
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	student, err := h.students.Me(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// UpdateMe godoc
// @Summary Update current student's profile
// @Description PRN cannot be changed; programme CGPA and backlog count are recomputed
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.UpdateStudentProfileRequest true "Profile changes"
// @Success 200 {object} response.Envelope
// @Router /students/me [put]
func (h *StudentHandler) UpdateMe(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateStudentProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	student, err := h.students.UpdateProfile(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
