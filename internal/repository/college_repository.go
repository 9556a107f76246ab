package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

// CollegeRepository manages colleges and regions.
type CollegeRepository struct {
	db *sqlx.DB
}

// NewCollegeRepository constructs the repository.
func NewCollegeRepository(db *sqlx.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

// ListColleges returns all colleges with their region name, optionally restricted to one region.
func (r *CollegeRepository) ListColleges(ctx context.Context, regionID string) ([]models.College, error) {
	query := `SELECT c.id, c.name, c.code, c.region_id, COALESCE(r.name, '') AS region_name, c.created_at
FROM colleges c LEFT JOIN regions r ON r.id = c.region_id`
	var args []interface{}
	if regionID != "" {
		args = append(args, regionID)
		query += " WHERE c.region_id = $1"
	}
	query += " ORDER BY c.name ASC"

	var colleges []models.College
	if err := r.db.SelectContext(ctx, &colleges, query, args...); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return colleges, nil
}

// CreateCollege inserts a college. Duplicate codes return ErrDuplicate.
func (r *CollegeRepository) CreateCollege(ctx context.Context, college *models.College) error {
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	if college.CreatedAt.IsZero() {
		college.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO colleges (id, name, code, region_id, created_at) VALUES (:id, :name, :code, :region_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("create college: %w", err)
	}
	return nil
}

// ListRegions returns all regions by name.
func (r *CollegeRepository) ListRegions(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	if err := r.db.SelectContext(ctx, &regions, "SELECT id, name, created_at FROM regions ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// RegionExists reports whether a region id is known.
func (r *CollegeRepository) RegionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM regions WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check region: %w", err)
	}
	return exists, nil
}

// CreateRegion inserts a region. Duplicate names return ErrDuplicate.
func (r *CollegeRepository) CreateRegion(ctx context.Context, region *models.Region) error {
	if region.ID == "" {
		region.ID = uuid.NewString()
	}
	if region.CreatedAt.IsZero() {
		region.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO regions (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, region); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("create region: %w", err)
	}
	return nil
}
