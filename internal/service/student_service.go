package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, plan studentfilter.Plan, page, limit int) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	Register(ctx context.Context, user *models.User, student *models.Student) error
	UpdateProfile(ctx context.Context, student *models.Student) error
}

// StudentServiceConfig tunes listing limits.
type StudentServiceConfig struct {
	MaxPageSize int
}

// StudentService handles student listing, registration and self service.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
	activity  ActivityRecorder
	cfg       StudentServiceConfig
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if validate == nil {
		validate = appErrors.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 500
	}
	return &StudentService{repo: repo, validator: validate, logger: logger, activity: activity, cfg: cfg, now: time.Now}
}

// List returns one page of students matching the criteria together with pagination metadata.
func (s *StudentService) List(ctx context.Context, criteria studentfilter.Criteria, page, limit int, actor *models.JWTClaims) ([]models.Student, *models.Pagination, error) {
	scoped, err := scopeCriteria(criteria, actor)
	if err != nil {
		return nil, nil, err
	}
	if page < 1 {
		return nil, nil, appErrors.Validation("page must be at least 1")
	}
	if limit <= 0 || limit > s.cfg.MaxPageSize {
		return nil, nil, appErrors.Validation("limit must be between 1 and %d", s.cfg.MaxPageSize)
	}
	if err := scoped.Validate(); err != nil {
		return nil, nil, err
	}

	plan := studentfilter.Compile(scoped, s.now())
	students, total, err := s.repo.List(ctx, plan, page, limit)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list students")
	}
	return students, models.NewPagination(page, limit, total), nil
}

// Get returns a student visible to the actor.
func (s *StudentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	return loadManagedStudent(ctx, s.repo, id, actor)
}

// Register creates the login account and a pending student profile.
func (s *StudentService) Register(ctx context.Context, req models.RegisterStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid registration payload")
	}
	dob, err := time.Parse(studentfilter.DateLayout, req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Validation("date_of_birth must be YYYY-MM-DD")
	}
	if dob.After(s.now()) {
		return nil, appErrors.Validation("date_of_birth must be in the past")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	collegeID := req.CollegeID
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.Name),
		Role:         models.RoleStudent,
		CollegeID:    &collegeID,
		Active:       true,
	}
	student := &models.Student{
		PRN:          strings.ToUpper(strings.TrimSpace(req.PRN)),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		MobileNumber: req.MobileNumber,
		DateOfBirth:  dob,
		Gender:       req.Gender,
		Height:       req.Height,
		Weight:       req.Weight,
		Branch:       strings.TrimSpace(req.Branch),
		CollegeID:    req.CollegeID,
		RegionID:     req.RegionID,
		District:     strings.TrimSpace(req.District),
	}

	if err := s.repo.Register(ctx, user, student); err != nil {
		var dup *repository.DuplicateError
		switch {
		case errors.As(err, &dup):
			field := "email"
			if strings.Contains(dup.Constraint, "prn") {
				field = "PRN"
			}
			return nil, appErrors.Clone(appErrors.ErrConflict, field+" already registered")
		case errors.Is(err, repository.ErrUnknownReference):
			return nil, appErrors.Validation("unknown college or region")
		}
		return nil, appErrors.Internal(err, "failed to register student")
	}

	s.logger.Info("student registered", zap.String("student_id", student.ID), zap.String("college_id", student.CollegeID))
	s.activity.Record(ctx, &models.JWTClaims{UserID: user.ID, Role: models.RoleStudent}, models.ActivityStudentRegistered, "student", student.ID, student.PRN)
	return student, nil
}

// Me returns the profile of the authenticated student.
func (s *StudentService) Me(ctx context.Context, actor *models.JWTClaims) (*models.Student, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	student, err := s.repo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	return student, nil
}

// UpdateProfile applies self service edits and recomputes programme CGPA and backlog count.
func (s *StudentService) UpdateProfile(ctx context.Context, req models.UpdateStudentProfileRequest, actor *models.JWTClaims) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid profile payload")
	}
	student, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}

	applyProfile(student, req)
	student.RecomputeAcademics()

	if err := s.repo.UpdateProfile(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to update student profile")
	}
	return student, nil
}

func applyProfile(student *models.Student, req models.UpdateStudentProfileRequest) {
	if req.Name != nil {
		student.Name = strings.TrimSpace(*req.Name)
	}
	if req.MobileNumber != nil {
		student.MobileNumber = *req.MobileNumber
	}
	if req.Gender != nil {
		student.Gender = *req.Gender
	}
	if req.Height != nil {
		student.Height = *req.Height
	}
	if req.Weight != nil {
		student.Weight = *req.Weight
	}
	if req.District != nil {
		student.District = strings.TrimSpace(*req.District)
	}
	if req.HasDrivingLicense != nil {
		student.HasDrivingLicense = *req.HasDrivingLicense
	}
	if req.HasPAN != nil {
		student.HasPAN = *req.HasPAN
	}
	if req.HasAadhar != nil {
		student.HasAadhar = *req.HasAadhar
	}
	if req.HasPassport != nil {
		student.HasPassport = *req.HasPassport
	}

	cgpas := student.SemesterCGPAs()
	backlogs := student.SemesterBacklogs()
	for _, sem := range req.Semesters {
		idx := sem.Semester - 1
		if sem.CGPA != nil {
			value := *sem.CGPA
			*cgpas[idx] = &value
		} else {
			*cgpas[idx] = nil
		}
		*backlogs[idx] = sem.Backlogs
	}
}
