package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type memJobs struct {
	jobs         map[string]*models.JobPosting
	applications map[string]bool
	lastFilter   models.JobFilter
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: map[string]*models.JobPosting{}, applications: map[string]bool{}}
}

func (m *memJobs) Create(ctx context.Context, job *models.JobPosting) error {
	job.ID = fmt.Sprintf("job-%d", len(m.jobs)+1)
	job.Status = models.JobPending
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *memJobs) GetByID(ctx context.Context, id string) (*models.JobPosting, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *memJobs) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, int, error) {
	m.lastFilter = filter
	var out []models.JobPosting
	for _, job := range m.jobs {
		if filter.PostedBy != "" && job.PostedBy != filter.PostedBy {
			continue
		}
		out = append(out, *job)
	}
	return out, len(out), nil
}

func (m *memJobs) ListVisible(ctx context.Context, collegeID, regionID string, now time.Time) ([]models.JobPosting, error) {
	var out []models.JobPosting
	for _, job := range m.jobs {
		if job.Open(now) && job.TargetsStudent(collegeID, regionID) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *memJobs) review(id, reviewer string, status models.JobStatus, reason *string) error {
	job, ok := m.jobs[id]
	if !ok || job.Status != models.JobPending {
		return sql.ErrNoRows
	}
	job.Status = status
	job.ReviewedBy = &reviewer
	job.RejectionReason = reason
	return nil
}

func (m *memJobs) Approve(ctx context.Context, id, reviewer string) error {
	return m.review(id, reviewer, models.JobApproved, nil)
}

func (m *memJobs) Reject(ctx context.Context, id, reviewer, reason string) error {
	return m.review(id, reviewer, models.JobRejected, &reason)
}

func (m *memJobs) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	key := app.JobID + "/" + app.StudentID
	if m.applications[key] {
		return repository.ErrDuplicate
	}
	m.applications[key] = true
	app.ID = "app-" + key
	return nil
}

var jobNow = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

func newTestJobService(jobs *memJobs, students *memStudents, recorder ActivityRecorder) *JobService {
	svc := NewJobService(jobs, students, recorder, nil, zap.NewNop())
	svc.now = func() time.Time { return jobNow }
	return svc
}

func jobRequest(audience models.AudienceType) models.CreateJobRequest {
	return models.CreateJobRequest{
		Title:        "Graduate Engineer Trainee",
		Company:      " Acme Industries ",
		Description:  "Two year rotational programme",
		Location:     "Pune",
		PackageLPA:   6.5,
		Deadline:     "2024-06-20",
		AudienceType: audience,
		CollegeIDs:   []string{"col-a", "col-a"},
		RegionIDs:    []string{"reg-9"},
	}
}

func TestJobSubmitReviewApplyFlow(t *testing.T) {
	store := newMemJobs()
	students := seededStudents()
	recorder := &fakeRecorder{}
	svc := newTestJobService(store, students, recorder)
	ctx := context.Background()

	job, err := svc.Submit(ctx, jobRequest(models.AudienceColleges), officerActor)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, "Acme Industries", job.Company)
	assert.Equal(t, []string{"col-a"}, []string(job.CollegeIDs))
	assert.Empty(t, job.RegionIDs)
	assert.Equal(t, time.Date(2024, 6, 20, 23, 59, 59, 0, time.UTC), job.Deadline)

	_, err = svc.Apply(ctx, job.ID, studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Review(ctx, job.ID, models.ReviewRequest{Decision: models.DecisionApprove}, adminActor)
	require.NoError(t, err)

	visible, err := svc.ListVisible(ctx, studentActor)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	app, err := svc.Apply(ctx, job.ID, studentActor)
	require.NoError(t, err)
	assert.Equal(t, "s1", app.StudentID)

	_, err = svc.Apply(ctx, job.ID, studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	assert.Equal(t, []string{models.ActivityJobSubmitted, models.ActivityJobReviewed, models.ActivityJobApplied}, recorder.actions())
}

func TestJobSubmitValidation(t *testing.T) {
	svc := newTestJobService(newMemJobs(), seededStudents(), nil)
	ctx := context.Background()

	past := jobRequest(models.AudienceAll)
	past.Deadline = "2024-06-09"
	_, err := svc.Submit(ctx, past, officerActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	today := jobRequest(models.AudienceAll)
	today.Deadline = "2024-06-10"
	_, err = svc.Submit(ctx, today, officerActor)
	require.NoError(t, err)

	missingColleges := jobRequest(models.AudienceColleges)
	missingColleges.CollegeIDs = nil
	_, err = svc.Submit(ctx, missingColleges, officerActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(ctx, jobRequest(models.AudienceAll), adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestJobReviewRules(t *testing.T) {
	store := newMemJobs()
	svc := newTestJobService(store, seededStudents(), nil)
	ctx := context.Background()
	job, err := svc.Submit(ctx, jobRequest(models.AudienceAll), officerActor)
	require.NoError(t, err)

	_, err = svc.Review(ctx, job.ID, models.ReviewRequest{Decision: models.DecisionReject}, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	rejected, err := svc.Review(ctx, job.ID, models.ReviewRequest{Decision: models.DecisionReject, Note: "duplicate posting"}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.JobRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "duplicate posting", *rejected.RejectionReason)

	_, err = svc.Review(ctx, job.ID, models.ReviewRequest{Decision: models.DecisionApprove}, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Review(ctx, "missing", models.ReviewRequest{Decision: models.DecisionApprove}, adminActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestJobListScopesOfficer(t *testing.T) {
	store := newMemJobs()
	svc := newTestJobService(store, seededStudents(), nil)
	ctx := context.Background()
	_, err := svc.Submit(ctx, jobRequest(models.AudienceAll), officerActor)
	require.NoError(t, err)

	_, page, err := svc.List(ctx, models.JobFilter{PostedBy: "someone"}, officerActor)
	require.NoError(t, err)
	assert.Equal(t, "officer-1", store.lastFilter.PostedBy)
	assert.Equal(t, 1, page.TotalCount)

	_, _, err = svc.List(ctx, models.JobFilter{}, studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestJobEligibilityRequiresApprovedStudent(t *testing.T) {
	students := seededStudents()
	svc := newTestJobService(newMemJobs(), students, nil)
	ctx := context.Background()

	pending := &models.JWTClaims{UserID: "user-s2", Role: models.RoleStudent}
	_, err := svc.ListVisible(ctx, pending)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, students.Blacklist(ctx, "s1", "misconduct"))
	_, err = svc.ListVisible(ctx, studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestJobApplyClosedAfterDeadline(t *testing.T) {
	store := newMemJobs()
	svc := newTestJobService(store, seededStudents(), nil)
	ctx := context.Background()
	job, err := svc.Submit(ctx, jobRequest(models.AudienceAll), officerActor)
	require.NoError(t, err)
	_, err = svc.Review(ctx, job.ID, models.ReviewRequest{Decision: models.DecisionApprove}, adminActor)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 6, 21, 0, 0, 1, 0, time.UTC) }
	_, err = svc.Apply(ctx, job.ID, studentActor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}
