package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type studentRegistrar interface {
	Register(ctx context.Context, req models.RegisterStudentRequest) (*models.Student, error)
}

// AuthHandler wires HTTP endpoints to the auth and registration services.
type AuthHandler struct {
	auth     authService
	students studentRegistrar
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth authService, students studentRegistrar) *AuthHandler {
	return &AuthHandler{auth: auth, students: students}
}

// Register godoc
// @Summary Register a student account
// @Description Creates a user and a pending student profile
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterStudentRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterStudentRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	student, err := h.students.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
