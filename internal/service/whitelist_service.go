package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type whitelistStore interface {
	Create(ctx context.Context, req *models.WhitelistRequest) error
	GetByID(ctx context.Context, id string) (*models.WhitelistRequest, error)
	HasPending(ctx context.Context, studentID string) (bool, error)
	List(ctx context.Context, filter models.WhitelistRequestFilter) ([]models.WhitelistRequest, int, error)
	Approve(ctx context.Context, id, studentID, reviewer string, note *string) error
	Reject(ctx context.Context, id, reviewer string, note *string) error
}

// WhitelistService lets officers appeal a blacklist and super admins decide on it.
type WhitelistService struct {
	repo      whitelistStore
	students  studentFinder
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWhitelistService constructs the service.
func NewWhitelistService(repo whitelistStore, students studentFinder, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *WhitelistService {
	if validate == nil {
		validate = appErrors.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &WhitelistService{repo: repo, students: students, activity: activity, validator: validate, logger: logger}
}

// Request files a pending appeal for a blacklisted student of the officer's college.
func (s *WhitelistService) Request(ctx context.Context, req models.CreateWhitelistRequest, actor *models.JWTClaims) (*models.WhitelistRequest, error) {
	if err := requireRole(actor, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid whitelist request payload")
	}
	student, err := loadManagedStudent(ctx, s.students, req.StudentID, actor)
	if err != nil {
		return nil, err
	}
	if !student.IsBlacklisted {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only blacklisted students can be whitelisted")
	}
	pending, err := s.repo.HasPending(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a whitelist request is already pending for this student")
	}

	request := &models.WhitelistRequest{
		StudentID:   student.ID,
		StudentName: student.Name,
		StudentPRN:  student.PRN,
		CollegeID:   student.CollegeID,
		Reason:      strings.TrimSpace(req.Reason),
		RequestedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a whitelist request is already pending for this student")
		}
		return nil, appErrors.Internal(err, "failed to create whitelist request")
	}
	s.activity.Record(ctx, actor, models.ActivityWhitelistRequested, "whitelist_request", request.ID, student.ID)
	return request, nil
}

// Review approves or rejects a pending request. Approval clears the student's blacklist.
func (s *WhitelistService) Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.WhitelistRequest, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid review payload")
	}
	request, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.WhitelistPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "whitelist request already reviewed")
	}

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	switch req.Decision {
	case models.DecisionApprove:
		err = s.repo.Approve(ctx, id, request.StudentID, actor.UserID, note)
	default:
		err = s.repo.Reject(ctx, id, actor.UserID, note)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "whitelist request or student changed state during review")
		}
		return nil, appErrors.Internal(err, "failed to review whitelist request")
	}

	s.logger.Info("whitelist request reviewed", zap.String("request_id", id), zap.String("decision", string(req.Decision)))
	s.activity.Record(ctx, actor, models.ActivityWhitelistReviewed, "whitelist_request", id, string(req.Decision))
	if req.Decision == models.DecisionApprove {
		s.activity.Record(ctx, actor, models.ActivityStudentWhitelisted, "student", request.StudentID, id)
	}
	return s.get(ctx, id)
}

// List returns requests visible to the actor: officers see what they filed, super admins see all.
func (s *WhitelistService) List(ctx context.Context, filter models.WhitelistRequestFilter, actor *models.JWTClaims) ([]models.WhitelistRequest, *models.Pagination, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, nil, err
	}
	if actor.IsOfficer() {
		filter.RequestedBy = actor.UserID
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list whitelist requests")
	}
	return items, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *WhitelistService) get(ctx context.Context, id string) (*models.WhitelistRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "whitelist request not found")
		}
		return nil, appErrors.Internal(err, "failed to load whitelist request")
	}
	return request, nil
}
