package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var studentColumnNames = []string{
	"id", "user_id", "prn", "name", "email", "mobile_number", "date_of_birth", "gender", "height", "weight", "branch",
	"college_id", "college_name", "region_id", "region_name", "district",
	"cgpa_sem1", "cgpa_sem2", "cgpa_sem3", "cgpa_sem4", "cgpa_sem5", "cgpa_sem6", "programme_cgpa",
	"backlogs_sem1", "backlogs_sem2", "backlogs_sem3", "backlogs_sem4", "backlogs_sem5", "backlogs_sem6", "backlog_count",
	"has_driving_license", "has_pan", "has_aadhar", "has_passport",
	"registration_status", "is_blacklisted", "rejection_reason", "blacklist_reason", "created_at", "updated_at",
}

func addStudentRow(rows *sqlmock.Rows, id, prn string, status models.RegistrationStatus, blacklisted bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "user-"+id, prn, "Student "+id, id+"@example.edu", "9876543210", time.Date(2002, 3, 4, 0, 0, 0, 0, time.UTC), "female", 160.0, 55.0, "Computer Engineering",
		"col-1", "Pune Institute", "reg-1", "West", "Pune",
		8.1, 8.3, nil, nil, nil, nil, 8.2,
		0, 0, 0, 0, 0, 0, 0,
		true, true, true, false,
		string(status), blacklisted, nil, nil, now, now)
}

func mustPlan(t *testing.T, values url.Values) studentfilter.Plan {
	t.Helper()
	c, err := studentfilter.ParseQuery(values)
	require.NoError(t, err)
	return studentfilter.Compile(c, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)
	plan := mustPlan(t, url.Values{"status": {"approved"}, "backlog_count": {"0"}})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.registration_status = $1 AND s.is_blacklisted = FALSE AND s.backlog_count <= $2")).
		WithArgs("approved", 0).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s LEFT JOIN colleges c ON c.id = s.college_id LEFT JOIN regions r ON r.id = s.region_id WHERE 1=1 AND s.registration_status = $1 AND s.is_blacklisted = FALSE AND s.backlog_count <= $2 ORDER BY s.created_at DESC, s.id ASC LIMIT 10 OFFSET 20")).
		WithArgs("approved", 0).
		WillReturnRows(addStudentRow(sqlmock.NewRows(studentColumnNames), "stu-21", "PRN021", models.RegistrationApproved, false))

	students, total, err := repo.List(context.Background(), plan, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, students, 1)
	assert.Equal(t, "PRN021", students[0].PRN)
	assert.Equal(t, "Pune Institute", students[0].CollegeName)
	require.NotNil(t, students[0].CGPASem2)
	assert.Nil(t, students[0].CGPASem3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAllSharesPredicate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)
	plan := mustPlan(t, url.Values{"status": {"blacklisted"}, "districts": {"Pune,Satara"}})

	where, args := plan.Where()
	driverArgs := make([]driver.Value, len(args))
	for i, a := range args {
		driverArgs[i] = a
	}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE " + where + " ORDER BY s.created_at DESC, s.id ASC LIMIT 101")).
		WithArgs(driverArgs...).
		WillReturnRows(addStudentRow(sqlmock.NewRows(studentColumnNames), "stu-1", "PRN001", models.RegistrationApproved, true))

	students, err := repo.ListAll(context.Background(), plan, 100)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.True(t, students[0].IsBlacklisted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryTransitionsAreGuarded(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND registration_status = 'pending'")).
		WithArgs("stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Approve(context.Background(), "stu-1"))

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND registration_status = 'approved' AND is_blacklisted = FALSE")).
		WithArgs("stu-2", "fake documents", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Blacklist(context.Background(), "stu-2", "fake documents")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND is_blacklisted = TRUE")).
		WithArgs("stu-3", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()
	err = repo.Whitelist(context.Background(), "stu-3", "admin-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryWhitelistClosesPendingAppeals(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND is_blacklisted = TRUE")).
		WithArgs("stu-4", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE whitelist_requests SET status = 'APPROVED'")).
		WithArgs("stu-4", "admin-1", DirectWhitelistNote, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Whitelist(context.Background(), "stu-4", "admin-1"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND is_blacklisted = TRUE")).
		WithArgs("stu-5", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	assert.ErrorIs(t, repo.Whitelist(context.Background(), "stu-5", "admin-1"), sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryRegisterDuplicate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").WillReturnError(&pq.Error{Code: "23505", Constraint: "students_prn_key"})
	mock.ExpectRollback()

	user := &models.User{Email: "a@example.edu", Role: models.RoleStudent, Active: true}
	student := &models.Student{PRN: "PRN001", Name: "Asha"}
	err := repo.Register(context.Background(), user, student)

	require.ErrorIs(t, err, ErrDuplicate)
	var dup *DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "students_prn_key", dup.Constraint)
	assert.Equal(t, models.RegistrationPending, student.RegistrationStatus)
	assert.Equal(t, user.ID, student.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
