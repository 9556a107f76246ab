package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
)

const jobColumns = `id, title, company, description, location, package_lpa, deadline, audience_type, college_ids, region_ids,
       status, rejection_reason, posted_by, reviewed_by, created_at, reviewed_at`

// JobRepository persists job postings and applications.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a pending posting.
func (r *JobRepository) Create(ctx context.Context, job *models.JobPosting) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = models.JobPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO job_postings (id, title, company, description, location, package_lpa, deadline, audience_type,
       college_ids, region_ids, status, posted_by, created_at)
       VALUES (:id, :title, :company, :description, :location, :package_lpa, :deadline, :audience_type,
       :college_ids, :region_ids, :status, :posted_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job posting: %w", err)
	}
	return nil
}

// GetByID fetches a posting.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.JobPosting, error) {
	query := "SELECT " + jobColumns + " FROM job_postings WHERE id = $1"
	var job models.JobPosting
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns postings matching the filter, newest first, with the total count.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error) {
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 3)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PostedBy != "" {
		args = append(args, filter.PostedBy)
		conditions = append(conditions, fmt.Sprintf("posted_by = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, studentfilter.ContainsPattern(s))
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR company ILIKE $%d)", len(args), len(args)))
	}
	base := "FROM job_postings WHERE " + strings.Join(conditions, " AND ")

	page, size := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d", jobColumns, base, size, (page-1)*size)

	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list job postings: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count job postings: %w", err)
	}
	return jobs, total, nil
}

// ListVisible returns approved postings still open at now whose audience includes the college or region.
func (r *JobRepository) ListVisible(ctx context.Context, collegeID, regionID string, now time.Time) ([]models.JobPosting, error) {
	query := "SELECT " + jobColumns + ` FROM job_postings
       WHERE status = 'APPROVED' AND deadline >= $1
       AND (audience_type = 'ALL'
            OR (audience_type = 'COLLEGES' AND $2 = ANY(college_ids))
            OR (audience_type = 'REGIONS' AND $3 = ANY(region_ids)))
       ORDER BY deadline ASC, id ASC`
	var jobs []models.JobPosting
	if err := r.db.SelectContext(ctx, &jobs, query, now, collegeID, regionID); err != nil {
		return nil, fmt.Errorf("list visible job postings: %w", err)
	}
	return jobs, nil
}

// Approve marks a pending posting approved.
func (r *JobRepository) Approve(ctx context.Context, id, reviewer string) error {
	const query = `UPDATE job_postings SET status = 'APPROVED', reviewed_by = $2, reviewed_at = $3
       WHERE id = $1 AND status = 'PENDING'`
	return guardedExec(ctx, r.db, "approve job posting", query, id, reviewer, time.Now().UTC())
}

// Reject marks a pending posting rejected with a reason.
func (r *JobRepository) Reject(ctx context.Context, id, reviewer, reason string) error {
	const query = `UPDATE job_postings SET status = 'REJECTED', rejection_reason = $2, reviewed_by = $3, reviewed_at = $4
       WHERE id = $1 AND status = 'PENDING'`
	return guardedExec(ctx, r.db, "reject job posting", query, id, reason, reviewer, time.Now().UTC())
}

// CreateApplication records a student application. Applying twice returns ErrDuplicate.
func (r *JobRepository) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC()
	}
	const query = `INSERT INTO job_applications (id, job_id, student_id, applied_at) VALUES (:id, :job_id, :student_id, :applied_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("create job application: %w", err)
	}
	return nil
}
