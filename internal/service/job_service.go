package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type jobStore interface {
	Create(ctx context.Context, job *models.JobPosting) error
	GetByID(ctx context.Context, id string) (*models.JobPosting, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error)
	ListVisible(ctx context.Context, collegeID, regionID string, now time.Time) ([]models.JobPosting, error)
	Approve(ctx context.Context, id, reviewer string) error
	Reject(ctx context.Context, id, reviewer, reason string) error
	CreateApplication(ctx context.Context, app *models.JobApplication) error
}

type studentProfileFinder interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// JobService manages officer submitted postings, admin review and student applications.
type JobService struct {
	repo      jobStore
	students  studentProfileFinder
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewJobService constructs the job service.
func NewJobService(repo jobStore, students studentProfileFinder, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *JobService {
	if validate == nil {
		validate = appErrors.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &JobService{repo: repo, students: students, activity: activity, validator: validate, logger: logger, now: time.Now}
}

// Submit stores a pending posting raised by an officer.
func (s *JobService) Submit(ctx context.Context, req models.CreateJobRequest, actor *models.JWTClaims) (*models.JobPosting, error) {
	if err := requireRole(actor, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid job payload")
	}
	day, err := time.Parse(studentfilter.DateLayout, req.Deadline)
	if err != nil {
		return nil, appErrors.Validation("deadline must be YYYY-MM-DD")
	}
	// Applications stay open through the whole deadline day.
	deadline := day.Add(24*time.Hour - time.Second)
	if deadline.Before(s.now()) {
		return nil, appErrors.Validation("deadline must not be in the past")
	}

	job := &models.JobPosting{
		Title:        strings.TrimSpace(req.Title),
		Company:      strings.TrimSpace(req.Company),
		Description:  req.Description,
		Location:     strings.TrimSpace(req.Location),
		PackageLPA:   req.PackageLPA,
		Deadline:     deadline,
		AudienceType: req.AudienceType,
		CollegeIDs:   []string{},
		RegionIDs:    []string{},
		PostedBy:     actor.UserID,
	}
	switch req.AudienceType {
	case models.AudienceColleges:
		job.CollegeIDs = uniqueIDs(req.CollegeIDs)
	case models.AudienceRegions:
		job.RegionIDs = uniqueIDs(req.RegionIDs)
	}
	if err := s.repo.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrUnknownReference) {
			return nil, appErrors.Validation("unknown college or region in audience")
		}
		return nil, appErrors.Internal(err, "failed to submit job")
	}
	s.activity.Record(ctx, actor, models.ActivityJobSubmitted, "job", job.ID, job.Company)
	return job, nil
}

// Review approves or rejects a pending posting. Rejections require a note as the reason.
func (s *JobService) Review(ctx context.Context, id string, req models.ReviewRequest, actor *models.JWTClaims) (*models.JobPosting, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid review payload")
	}
	reason := strings.TrimSpace(req.Note)
	if req.Decision == models.DecisionReject && reason == "" {
		return nil, appErrors.Validation("note is required when rejecting a job")
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	var err error
	if req.Decision == models.DecisionApprove {
		err = s.repo.Approve(ctx, id, actor.UserID)
	} else {
		err = s.repo.Reject(ctx, id, actor.UserID, reason)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only pending jobs can be reviewed")
		}
		return nil, appErrors.Internal(err, "failed to review job")
	}
	s.activity.Record(ctx, actor, models.ActivityJobReviewed, "job", id, string(req.Decision))
	return s.get(ctx, id)
}

// List returns postings: super admins see all, officers see their own.
func (s *JobService) List(ctx context.Context, filter models.JobFilter, actor *models.JWTClaims) ([]models.JobPosting, *models.Pagination, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, nil, err
	}
	if actor.IsOfficer() {
		filter.PostedBy = actor.UserID
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list jobs")
	}
	return jobs, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListVisible returns open approved postings targeting the student's college or region.
func (s *JobService) ListVisible(ctx context.Context, actor *models.JWTClaims) ([]models.JobPosting, error) {
	student, err := s.eligibleStudent(ctx, actor)
	if err != nil {
		return nil, err
	}
	jobs, err := s.repo.ListVisible(ctx, student.CollegeID, student.RegionID, s.now())
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list jobs")
	}
	return jobs, nil
}

// Apply records an application of the authenticated student.
func (s *JobService) Apply(ctx context.Context, jobID string, actor *models.JWTClaims) (*models.JobApplication, error) {
	student, err := s.eligibleStudent(ctx, actor)
	if err != nil {
		return nil, err
	}
	job, err := s.get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobApproved || !job.TargetsStudent(student.CollegeID, student.RegionID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	if !job.Open(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "applications for this job are closed")
	}

	app := &models.JobApplication{JobID: job.ID, StudentID: student.ID}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already applied to this job")
		}
		return nil, appErrors.Internal(err, "failed to apply to job")
	}
	s.activity.Record(ctx, actor, models.ActivityJobApplied, "job", job.ID, student.ID)
	return app, nil
}

// eligibleStudent loads the actor's profile and requires an approved, non blacklisted registration.
func (s *JobService) eligibleStudent(ctx context.Context, actor *models.JWTClaims) (*models.Student, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	student, err := s.students.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	if student.RegistrationStatus != models.RegistrationApproved {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "registration is not approved")
	}
	if student.IsBlacklisted {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is blacklisted")
	}
	return student, nil
}

func (s *JobService) get(ctx context.Context, id string) (*models.JobPosting, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Internal(err, "failed to load job")
	}
	return job, nil
}
