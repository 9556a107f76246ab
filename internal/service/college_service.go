package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

const (
	collegeCachePrefix = "colleges:"
	regionCacheKey     = "regions:all"
)

type collegeStore interface {
	ListColleges(ctx context.Context, regionID string) ([]models.College, error)
	CreateCollege(ctx context.Context, college *models.College) error
	ListRegions(ctx context.Context) ([]models.Region, error)
	RegionExists(ctx context.Context, id string) (bool, error)
	CreateRegion(ctx context.Context, region *models.Region) error
}

// CollegeService serves colleges and regions, caching the lists.
type CollegeService struct {
	repo      collegeStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCollegeService constructs the service. A nil cache reads straight from the store.
func NewCollegeService(repo collegeStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CollegeService {
	if validate == nil {
		validate = appErrors.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollegeService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// ListColleges returns colleges, optionally restricted to a region. The bool reports a cache hit.
func (s *CollegeService) ListColleges(ctx context.Context, regionID string) ([]models.College, bool, error) {
	regionID = strings.TrimSpace(regionID)
	key := collegeCachePrefix + regionID
	if regionID == "" {
		key = collegeCachePrefix + "all"
	}
	colleges := []models.College{}
	hit, err := s.cache.Remember(ctx, key, &colleges, func(ctx context.Context) error {
		items, err := s.repo.ListColleges(ctx, regionID)
		if err != nil {
			return err
		}
		if items != nil {
			colleges = items
		}
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list colleges")
	}
	return colleges, hit, nil
}

// CreateCollege adds a college to an existing region.
func (s *CollegeService) CreateCollege(ctx context.Context, req models.CreateCollegeRequest, actor *models.JWTClaims) (*models.College, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid college payload")
	}
	exists, err := s.repo.RegionExists(ctx, req.RegionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check region")
	}
	if !exists {
		return nil, appErrors.Validation("region %s does not exist", req.RegionID)
	}

	college := &models.College{
		Name:     strings.TrimSpace(req.Name),
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
		RegionID: req.RegionID,
	}
	if err := s.repo.CreateCollege(ctx, college); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "college code already exists")
		}
		return nil, appErrors.Internal(err, "failed to create college")
	}
	s.invalidate(ctx, collegeCachePrefix+"*")
	return college, nil
}

// ListRegions returns all regions. The bool reports a cache hit.
func (s *CollegeService) ListRegions(ctx context.Context) ([]models.Region, bool, error) {
	regions := []models.Region{}
	hit, err := s.cache.Remember(ctx, regionCacheKey, &regions, func(ctx context.Context) error {
		items, err := s.repo.ListRegions(ctx)
		if err != nil {
			return err
		}
		if items != nil {
			regions = items
		}
		return nil
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list regions")
	}
	return regions, hit, nil
}

// CreateRegion adds a region.
func (s *CollegeService) CreateRegion(ctx context.Context, req models.CreateRegionRequest, actor *models.JWTClaims) (*models.Region, error) {
	if err := requireRole(actor, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid region payload")
	}
	region := &models.Region{Name: strings.TrimSpace(req.Name)}
	if err := s.repo.CreateRegion(ctx, region); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "region already exists")
		}
		return nil, appErrors.Internal(err, "failed to create region")
	}
	s.invalidate(ctx, regionCacheKey)
	return region, nil
}

func (s *CollegeService) invalidate(ctx context.Context, pattern string) {
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate reference cache", zap.String("pattern", pattern), zap.Error(err))
	}
}
