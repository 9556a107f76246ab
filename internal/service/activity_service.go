package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type activityStore interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
	Summary(ctx context.Context, from, to *time.Time) ([]models.ActivitySummary, error)
}

// ActivityRecorder appends entries to the activity trail.
type ActivityRecorder interface {
	Record(ctx context.Context, actor *models.JWTClaims, action, entityType, entityID, details string)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, *models.JWTClaims, string, string, string, string) {}

// ActivityService records and reports portal activity.
type ActivityService struct {
	repo   activityStore
	logger *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(repo activityStore, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, logger: logger}
}

// Record stores an entry. Failures are logged and never surface to the caller.
func (s *ActivityService) Record(ctx context.Context, actor *models.JWTClaims, action, entityType, entityID, details string) {
	if actor == nil {
		return
	}
	entry := &models.ActivityLog{
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

// List returns a page of activity entries.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter, actor *models.JWTClaims) ([]models.ActivityLog, *models.Pagination, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, nil, err
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, nil, appErrors.Validation("from must not be after to")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list activity")
	}
	return entries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Summary counts entries per action within the optional range.
func (s *ActivityService) Summary(ctx context.Context, from, to *time.Time, actor *models.JWTClaims) ([]models.ActivitySummary, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, appErrors.Validation("from must not be after to")
	}
	rows, err := s.repo.Summary(ctx, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to summarise activity")
	}
	return rows, nil
}
