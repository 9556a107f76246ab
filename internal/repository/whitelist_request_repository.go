package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/pkg/database"
)

const whitelistColumns = `w.id, w.student_id, s.name AS student_name, s.prn AS student_prn, w.college_id, w.reason, w.status,
       w.requested_by, w.reviewed_by, w.note, w.requested_at, w.reviewed_at`

const whitelistFrom = "FROM whitelist_requests w JOIN students s ON s.id = w.student_id"

// WhitelistRequestRepository persists blacklist appeals.
type WhitelistRequestRepository struct {
	db *sqlx.DB
}

// NewWhitelistRequestRepository constructs the repository.
func NewWhitelistRequestRepository(db *sqlx.DB) *WhitelistRequestRepository {
	return &WhitelistRequestRepository{db: db}
}

// Create inserts a pending request. A second pending request for the same student
// violates whitelist_requests_one_pending and surfaces as ErrDuplicate.
func (r *WhitelistRequestRepository) Create(ctx context.Context, req *models.WhitelistRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.WhitelistPending
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO whitelist_requests (id, student_id, college_id, reason, status, requested_by, requested_at)
	VALUES (:id, :student_id, :college_id, :reason, :status, :requested_by, :requested_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("create whitelist request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *WhitelistRequestRepository) GetByID(ctx context.Context, id string) (*models.WhitelistRequest, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE w.id = $1", whitelistColumns, whitelistFrom)
	var req models.WhitelistRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPending reports whether the student already has an open request.
func (r *WhitelistRequestRepository) HasPending(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM whitelist_requests WHERE student_id = $1 AND status = 'PENDING')`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		return false, fmt.Errorf("check pending whitelist request: %w", err)
	}
	return exists, nil
}

// List returns requests matching the filter, latest first, with the total count.
func (r *WhitelistRequestRepository) List(ctx context.Context, filter models.WhitelistRequestFilter) ([]models.WhitelistRequest, int, error) {
	conditions := []string{"1=1"}
	args := make([]interface{}, 0, 3)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("w.status = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("w.requested_by = $%d", len(args)))
	}
	if filter.CollegeID != "" {
		args = append(args, filter.CollegeID)
		conditions = append(conditions, fmt.Sprintf("w.college_id = $%d", len(args)))
	}
	base := fmt.Sprintf("%s WHERE %s", whitelistFrom, strings.Join(conditions, " AND "))

	page, size := normalisePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY w.requested_at DESC, w.id ASC LIMIT %d OFFSET %d", whitelistColumns, base, size, (page-1)*size)

	var requests []models.WhitelistRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list whitelist requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count whitelist requests: %w", err)
	}
	return requests, total, nil
}

// Approve closes a pending request and lifts the student's blacklist in one transaction.
// Returns sql.ErrNoRows when the request is no longer pending or the student is not blacklisted.
func (r *WhitelistRequestRepository) Approve(ctx context.Context, id, studentID, reviewer string, note *string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.review(ctx, tx, id, models.WhitelistApproved, reviewer, note); err != nil {
			return err
		}
		return whitelistStudent(ctx, tx, studentID)
	})
}

// Reject closes a pending request without touching the student.
func (r *WhitelistRequestRepository) Reject(ctx context.Context, id, reviewer string, note *string) error {
	return r.review(ctx, r.db, id, models.WhitelistRejected, reviewer, note)
}

func (r *WhitelistRequestRepository) review(ctx context.Context, exec sqlx.ExecerContext, id string, status models.WhitelistRequestStatus, reviewer string, note *string) error {
	const query = `UPDATE whitelist_requests SET status = $2, reviewed_by = $3, note = $4, reviewed_at = $5
	WHERE id = $1 AND status = 'PENDING'`
	return guardedExec(ctx, exec, "review whitelist request", query, id, status, reviewer, note, time.Now().UTC())
}

// normalisePage clamps pagination for auxiliary listings.
func normalisePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
