package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

func TestActivityRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_logs WHERE 1=1 AND action = $1 AND created_at >= $2 ORDER BY created_at DESC, id ASC LIMIT 10 OFFSET 10")).
		WithArgs(models.ActivityStudentApproved, from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "actor_role", "action", "entity_type", "entity_id", "details", "created_at"}).
			AddRow("act-1", "officer-1", "PLACEMENT_OFFICER", models.ActivityStudentApproved, "student", "stu-1", "", from))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity_logs WHERE 1=1 AND action = $1 AND created_at >= $2")).
		WithArgs(models.ActivityStudentApproved, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	entries, total, err := repo.List(context.Background(), models.ActivityFilter{Action: models.ActivityStudentApproved, From: &from, Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, entries, 1)
	assert.Equal(t, models.RolePlacementOfficer, entries[0].ActorRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositorySummary(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT action, COUNT(*) AS count FROM activity_logs WHERE 1=1 GROUP BY action")).
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).
			AddRow(models.ActivityStudentApproved, 7).
			AddRow(models.ActivityStudentsExported, 2))

	rows, err := repo.Summary(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 7, rows[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
