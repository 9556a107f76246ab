package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

var whitelistColumnNames = []string{"id", "student_id", "student_name", "student_prn", "college_id", "reason", "status",
	"requested_by", "reviewed_by", "note", "requested_at", "reviewed_at"}

func TestWhitelistRequestRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewWhitelistRequestRepository(db)

	mock.ExpectExec("INSERT INTO whitelist_requests").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "whitelist_requests_one_pending"})

	err := repo.Create(context.Background(), &models.WhitelistRequest{StudentID: "stu-1", CollegeID: "col-1", Reason: "appeal", RequestedBy: "officer-1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistRequestRepositoryListScopesByCollege(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewWhitelistRequestRepository(db)

	status := models.WhitelistPending
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND w.status = $1 AND w.college_id = $2 ORDER BY w.requested_at DESC, w.id ASC LIMIT 20 OFFSET 0")).
		WithArgs(status, "col-1").
		WillReturnRows(sqlmock.NewRows(whitelistColumnNames).
			AddRow("wr-1", "stu-1", "Asha", "PRN001", "col-1", "appeal", "PENDING", "officer-1", nil, nil, time.Now(), nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM whitelist_requests w JOIN students s ON s.id = w.student_id WHERE 1=1 AND w.status = $1 AND w.college_id = $2")).
		WithArgs(status, "col-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := repo.List(context.Background(), models.WhitelistRequestFilter{Status: &status, CollegeID: "col-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "PRN001", items[0].StudentPRN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistRequestRepositoryApproveLiftsBlacklist(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewWhitelistRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE whitelist_requests SET status = $2, reviewed_by = $3, note = $4, reviewed_at = $5 WHERE id = $1 AND status = 'PENDING'")).
		WithArgs("wr-1", models.WhitelistApproved, "admin-1", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND is_blacklisted = TRUE")).
		WithArgs("stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Approve(context.Background(), "wr-1", "stu-1", "admin-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWhitelistRequestRepositoryApproveRollsBackWhenAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewWhitelistRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE whitelist_requests").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), "wr-1", "stu-1", "admin-1", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
