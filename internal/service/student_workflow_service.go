package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type studentTransitionStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id, reason string) error
	Blacklist(ctx context.Context, id, reason string) error
	Whitelist(ctx context.Context, id, reviewer string) error
}

// StudentWorkflowService moves students through registration and blacklist states.
//
//	pending -> approved | rejected
//	approved -> blacklisted -> approved (whitelist)
//
// Each transition is a conditional single row update, so a concurrent change
// surfaces as ErrInvalidTransition rather than a lost update.
type StudentWorkflowService struct {
	repo     studentTransitionStore
	activity ActivityRecorder
	logger   *zap.Logger
}

// NewStudentWorkflowService constructs the workflow service.
func NewStudentWorkflowService(repo studentTransitionStore, activity ActivityRecorder, logger *zap.Logger) *StudentWorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if activity == nil {
		activity = noopRecorder{}
	}
	return &StudentWorkflowService{repo: repo, activity: activity, logger: logger}
}

// Approve accepts a pending registration.
func (s *StudentWorkflowService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error) {
	student, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.transition(s.repo.Approve(ctx, id), "only pending registrations can be approved", "approve"); err != nil {
		return nil, err
	}
	student.RegistrationStatus = models.RegistrationApproved
	student.RejectionReason = nil
	s.activity.Record(ctx, actor, models.ActivityStudentApproved, "student", id, "")
	return student, nil
}

// Reject declines a pending registration with a reason.
func (s *StudentWorkflowService) Reject(ctx context.Context, id, reason string, actor *models.JWTClaims) (*models.Student, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Validation("reason is required")
	}
	student, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.transition(s.repo.Reject(ctx, id, reason), "only pending registrations can be rejected", "reject"); err != nil {
		return nil, err
	}
	student.RegistrationStatus = models.RegistrationRejected
	student.RejectionReason = &reason
	s.activity.Record(ctx, actor, models.ActivityStudentRejected, "student", id, reason)
	return student, nil
}

// Blacklist flags an approved student.
func (s *StudentWorkflowService) Blacklist(ctx context.Context, id, reason string, actor *models.JWTClaims) (*models.Student, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.Validation("reason is required")
	}
	student, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.transition(s.repo.Blacklist(ctx, id, reason), "only approved students who are not blacklisted can be blacklisted", "blacklist"); err != nil {
		return nil, err
	}
	student.IsBlacklisted = true
	student.BlacklistReason = &reason
	s.activity.Record(ctx, actor, models.ActivityStudentBlacklisted, "student", id, reason)
	return student, nil
}

// Whitelist lifts a blacklist directly and approves any pending appeal for the student.
// Officers go through whitelist requests instead.
func (s *StudentWorkflowService) Whitelist(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	student, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.transition(s.repo.Whitelist(ctx, id, actor.UserID), "only blacklisted students can be whitelisted", "whitelist"); err != nil {
		return nil, err
	}
	student.IsBlacklisted = false
	student.BlacklistReason = nil
	s.activity.Record(ctx, actor, models.ActivityStudentWhitelisted, "student", id, "")
	return student, nil
}

// BulkApprove approves each student independently. Successful items stay applied
// even when others fail.
func (s *StudentWorkflowService) BulkApprove(ctx context.Context, ids []string, actor *models.JWTClaims) (*models.BatchResult, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	return s.bulk(ctx, "approve", ids, func(id string) error {
		_, err := s.Approve(ctx, id, actor)
		return err
	})
}

// BulkReject rejects each student independently with a shared reason.
func (s *StudentWorkflowService) BulkReject(ctx context.Context, ids []string, reason string, actor *models.JWTClaims) (*models.BatchResult, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, appErrors.Validation("reason is required")
	}
	return s.bulk(ctx, "reject", ids, func(id string) error {
		_, err := s.Reject(ctx, id, reason, actor)
		return err
	})
}

func (s *StudentWorkflowService) bulk(ctx context.Context, op string, ids []string, apply func(id string) error) (*models.BatchResult, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, appErrors.Validation("student_ids must not be empty")
	}

	result := &models.BatchResult{Succeeded: make([]string, 0, len(ids)), Failed: []models.BatchFailure{}}
	var errs error
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			// Items not reached are reported as failed.
			for _, rest := range ids[i:] {
				result.Failed = append(result.Failed, models.BatchFailure{ID: rest, Code: appErrors.ErrInternal.Code, Message: "bulk " + op + " interrupted"})
			}
			errs = multierr.Append(errs, fmt.Errorf("interrupted before %s: %w", id, err))
			break
		}
		if err := apply(id); err != nil {
			appErr := appErrors.FromError(err)
			result.Failed = append(result.Failed, models.BatchFailure{ID: id, Code: appErr.Code, Message: appErr.Message})
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	if errs != nil {
		s.logger.Warn("bulk transition partially failed",
			zap.String("operation", op),
			zap.Int("succeeded", len(result.Succeeded)),
			zap.Int("failed", len(result.Failed)),
			zap.Error(errs))
	}
	return result, nil
}

func (s *StudentWorkflowService) load(ctx context.Context, id string, actor *models.JWTClaims) (*models.Student, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	return loadManagedStudent(ctx, s.repo, id, actor)
}

func (s *StudentWorkflowService) transition(err error, invalid, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidTransition, invalid)
	}
	return appErrors.Internal(err, "failed to "+op+" student")
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
