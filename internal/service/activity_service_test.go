package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type memActivity struct {
	entries    []models.ActivityLog
	createErr  error
	lastFilter models.ActivityFilter
}

func (m *memActivity) Create(ctx context.Context, entry *models.ActivityLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memActivity) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	m.lastFilter = filter
	return m.entries, len(m.entries), nil
}

func (m *memActivity) Summary(ctx context.Context, from, to *time.Time) ([]models.ActivitySummary, error) {
	counts := map[string]int{}
	for _, e := range m.entries {
		counts[e.Action]++
	}
	var out []models.ActivitySummary
	for action, count := range counts {
		out = append(out, models.ActivitySummary{Action: action, Count: count})
	}
	return out, nil
}

func TestActivityRecordAndList(t *testing.T) {
	repo := &memActivity{}
	svc := NewActivityService(repo, zap.NewNop())
	ctx := context.Background()

	svc.Record(ctx, officerActor, models.ActivityStudentApproved, "student", "s1", "")
	svc.Record(ctx, nil, models.ActivityStudentApproved, "student", "s2", "")
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "officer-1", repo.entries[0].ActorID)
	assert.Equal(t, models.RolePlacementOfficer, repo.entries[0].ActorRole)

	entries, page, err := svc.List(ctx, models.ActivityFilter{Page: 0, PageSize: 500}, adminActor)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, repo.lastFilter.PageSize)

	summary, err := svc.Summary(ctx, nil, nil, adminActor)
	require.NoError(t, err)
	assert.Equal(t, []models.ActivitySummary{{Action: models.ActivityStudentApproved, Count: 1}}, summary)
}

func TestActivityRecordFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewActivityService(&memActivity{createErr: errors.New("insert failed")}, zap.New(core))

	svc.Record(context.Background(), adminActor, models.ActivityJobReviewed, "job", "job-1", "APPROVE")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to record activity", logs.All()[0].Message)
}

func TestActivityAccessAndRange(t *testing.T) {
	svc := NewActivityService(&memActivity{}, zap.NewNop())
	ctx := context.Background()

	_, _, err := svc.List(ctx, models.ActivityFilter{}, officerActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	from := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, err = svc.Summary(ctx, &from, &to, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
