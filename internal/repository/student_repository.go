package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	"github.com/noah-isme/placement-portal-api/pkg/database"
)

const studentColumns = `s.id, s.user_id, s.prn, s.name, s.email, s.mobile_number, s.date_of_birth, s.gender, s.height, s.weight, s.branch,
        s.college_id, COALESCE(c.name, '') AS college_name, s.region_id, COALESCE(r.name, '') AS region_name, s.district,
        s.cgpa_sem1, s.cgpa_sem2, s.cgpa_sem3, s.cgpa_sem4, s.cgpa_sem5, s.cgpa_sem6, s.programme_cgpa,
        s.backlogs_sem1, s.backlogs_sem2, s.backlogs_sem3, s.backlogs_sem4, s.backlogs_sem5, s.backlogs_sem6, s.backlog_count,
        s.has_driving_license, s.has_pan, s.has_aadhar, s.has_passport,
        s.registration_status, s.is_blacklisted, s.rejection_reason, s.blacklist_reason, s.created_at, s.updated_at`

const studentFrom = "FROM students s LEFT JOIN colleges c ON c.id = s.college_id LEFT JOIN regions r ON r.id = s.region_id"

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns one page of students matching the plan together with the total match count.
func (r *StudentRepository) List(ctx context.Context, plan studentfilter.Plan, page, limit int) ([]models.Student, int, error) {
	total, err := r.Count(ctx, plan)
	if err != nil {
		return nil, 0, err
	}

	where, args := plan.Where()
	offset := (page - 1) * limit
	query := fmt.Sprintf("SELECT %s\n        %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		studentColumns, studentFrom, where, studentfilter.OrderBy, limit, offset)

	students := make([]models.Student, 0, limit)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// Count returns the number of students matching the plan.
func (r *StudentRepository) Count(ctx context.Context, plan studentfilter.Plan) (int, error) {
	where, args := plan.Where()
	query := fmt.Sprintf("SELECT COUNT(*) FROM students s WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// ListAll returns every matching student in listing order, reading at most limit+1 rows
// so callers can detect that the cap was exceeded.
func (r *StudentRepository) ListAll(ctx context.Context, plan studentfilter.Plan, limit int) ([]models.Student, error) {
	where, args := plan.Where()
	query := fmt.Sprintf("SELECT %s\n        %s WHERE %s ORDER BY %s LIMIT %d",
		studentColumns, studentFrom, where, studentfilter.OrderBy, limit+1)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("export students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "s.id = $1", id)
}

// FindByUserID fetches the student profile owned by a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	return r.findOne(ctx, "s.user_id = $1", userID)
}

func (r *StudentRepository) findOne(ctx context.Context, condition string, arg interface{}) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s\n        %s WHERE %s", studentColumns, studentFrom, condition)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Register creates the login account and the pending student profile in one transaction.
// Unique violations on email or PRN surface as ErrDuplicate.
func (r *StudentRepository) Register(ctx context.Context, user *models.User, student *models.Student) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	student.UserID = user.ID
	student.RegistrationStatus = models.RegistrationPending
	student.CreatedAt, student.UpdatedAt = now, now

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const userQuery = `INSERT INTO users (id, email, password_hash, full_name, role, college_id, active, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :full_name, :role, :college_id, :active, :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(ctx, tx, userQuery, user); err != nil {
			return err
		}
		const studentQuery = `INSERT INTO students (id, user_id, prn, name, email, mobile_number, date_of_birth, gender, height, weight, branch,
        college_id, region_id, district, programme_cgpa, backlog_count, registration_status, is_blacklisted, created_at, updated_at)
        VALUES (:id, :user_id, :prn, :name, :email, :mobile_number, :date_of_birth, :gender, :height, :weight, :branch,
        :college_id, :region_id, :district, :programme_cgpa, :backlog_count, :registration_status, :is_blacklisted, :created_at, :updated_at)`
		_, err := sqlx.NamedExecContext(ctx, tx, studentQuery, student)
		return err
	})
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("register student: %w", err)
	}
	return nil
}

// UpdateProfile persists self-service profile and academic fields. PRN and status are untouched.
func (r *StudentRepository) UpdateProfile(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, mobile_number = :mobile_number, gender = :gender, height = :height, weight = :weight,
        district = :district, has_driving_license = :has_driving_license, has_pan = :has_pan, has_aadhar = :has_aadhar, has_passport = :has_passport,
        cgpa_sem1 = :cgpa_sem1, cgpa_sem2 = :cgpa_sem2, cgpa_sem3 = :cgpa_sem3, cgpa_sem4 = :cgpa_sem4, cgpa_sem5 = :cgpa_sem5, cgpa_sem6 = :cgpa_sem6,
        backlogs_sem1 = :backlogs_sem1, backlogs_sem2 = :backlogs_sem2, backlogs_sem3 = :backlogs_sem3,
        backlogs_sem4 = :backlogs_sem4, backlogs_sem5 = :backlogs_sem5, backlogs_sem6 = :backlogs_sem6,
        programme_cgpa = :programme_cgpa, backlog_count = :backlog_count, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student profile: %w", err)
	}
	return nil
}

// Approve moves a pending registration to approved.
func (r *StudentRepository) Approve(ctx context.Context, id string) error {
	const query = `UPDATE students SET registration_status = 'approved', rejection_reason = NULL, updated_at = $2
        WHERE id = $1 AND registration_status = 'pending'`
	return guardedExec(ctx, r.db, "approve student", query, id, time.Now().UTC())
}

// Reject moves a pending registration to rejected and stores the reason.
func (r *StudentRepository) Reject(ctx context.Context, id, reason string) error {
	const query = `UPDATE students SET registration_status = 'rejected', rejection_reason = $2, updated_at = $3
        WHERE id = $1 AND registration_status = 'pending'`
	return guardedExec(ctx, r.db, "reject student", query, id, reason, time.Now().UTC())
}

// Blacklist flags an approved, not yet blacklisted student.
func (r *StudentRepository) Blacklist(ctx context.Context, id, reason string) error {
	const query = `UPDATE students SET is_blacklisted = TRUE, blacklist_reason = $2, updated_at = $3
        WHERE id = $1 AND registration_status = 'approved' AND is_blacklisted = FALSE`
	return guardedExec(ctx, r.db, "blacklist student", query, id, reason, time.Now().UTC())
}

// DirectWhitelistNote is stored on appeals closed by a super admin's direct whitelist.
const DirectWhitelistNote = "closed by direct whitelist"

// Whitelist clears the blacklist flag of a blacklisted student and, in the same
// transaction, approves any appeal still pending for them on behalf of reviewer.
func (r *StudentRepository) Whitelist(ctx context.Context, id, reviewer string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := whitelistStudent(ctx, tx, id); err != nil {
			return err
		}
		const closePending = `UPDATE whitelist_requests SET status = 'APPROVED', reviewed_by = $2, note = $3, reviewed_at = $4
        WHERE student_id = $1 AND status = 'PENDING'`
		if _, err := tx.ExecContext(ctx, closePending, id, reviewer, DirectWhitelistNote, time.Now().UTC()); err != nil {
			return fmt.Errorf("close pending whitelist requests: %w", err)
		}
		return nil
	})
}

func whitelistStudent(ctx context.Context, exec sqlx.ExecerContext, id string) error {
	const query = `UPDATE students SET is_blacklisted = FALSE, blacklist_reason = NULL, updated_at = $2
        WHERE id = $1 AND is_blacklisted = TRUE`
	return guardedExec(ctx, exec, "whitelist student", query, id, time.Now().UTC())
}

// guardedExec runs a conditional single row update and maps zero affected rows to sql.ErrNoRows.
func guardedExec(ctx context.Context, exec sqlx.ExecerContext, op, query string, args ...interface{}) error {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
