package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
	"github.com/noah-isme/placement-portal-api/pkg/jobs"
	"github.com/noah-isme/placement-portal-api/pkg/storage"
)

// ExportJobType tags queued student exports.
const ExportJobType = "student_export"

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(jobID, filename string, data []byte) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Sign(key string) (string, time.Time, error)
	Verify(token string, allowExpired bool) (storage.Grant, error)
}

type studentExporter interface {
	Check(ctx context.Context, req ExportRequest, actor *models.JWTClaims) (int, error)
	Export(ctx context.Context, req ExportRequest, actor *models.JWTClaims) (*ExportFile, error)
}

// ExportJobConfig governs queue recovery, download links and cleanup.
type ExportJobConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportJobRequest is the payload for a queued export. Query carries the raw filter parameters.
type ExportJobRequest struct {
	Query   url.Values
	Fields  []string
	Format  models.ExportFormat
	Options models.ExportOptions
}

// ExportDownload aggregates a resolved download.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobService runs large exports in the background and serves them through signed links.
type ExportJobService struct {
	repo     exportJobStore
	queue    jobDispatcher
	exporter studentExporter
	storage  fileStorage
	signer   urlSigner
	metrics  exportJobObserver
	logger   *zap.Logger
	cfg      ExportJobConfig
}

type exportJobObserver interface {
	ObserveExportJob(status string)
}

// ExportJobOption customises the export job service.
type ExportJobOption func(*ExportJobService)

// WithExportJobMetrics counts jobs reaching a terminal status.
func WithExportJobMetrics(metrics exportJobObserver) ExportJobOption {
	return func(s *ExportJobService) {
		s.metrics = metrics
	}
}

// NewExportJobService constructs the service.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, exporter studentExporter, files fileStorage, signer urlSigner, cfg ExportJobConfig, logger *zap.Logger, opts ...ExportJobOption) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	svc := &ExportJobService{
		repo:     repo,
		queue:    queue,
		exporter: exporter,
		storage:  files,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateJob validates the request against the same rules and cap as a synchronous export,
// persists it and enqueues processing.
func (s *ExportJobService) CreateJob(ctx context.Context, req ExportJobRequest, actor *models.JWTClaims) (*models.ExportJob, error) {
	criteria, err := studentfilter.ParseQuery(req.Query)
	if err != nil {
		return nil, err
	}
	exportReq := ExportRequest{Criteria: criteria, Fields: req.Fields, Format: req.Format, Options: req.Options}
	rows, err := s.exporter.Check(ctx, exportReq, actor)
	if err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			Query:     map[string][]string(criteria.Encode()),
			Fields:    req.Fields,
			Format:    models.ExportFormat(strings.ToLower(string(req.Format))),
			Options:   req.Options,
			ActorRole: actor.Role,
			CollegeID: actor.CollegeID,
		},
		Status:    models.ExportJobQueued,
		RowCount:  rows,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, appErrors.Internal(err, "failed to enqueue export job")
	}
	return job, nil
}

// GetJob returns job metadata. Officers only see jobs they created.
func (s *ExportJobService) GetJob(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExportJob, error) {
	if err := requireRole(actor, models.RoleSuperAdmin, models.RolePlacementOfficer); err != nil {
		return nil, err
	}
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsOfficer() && job.CreatedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the stored export.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	grant, err := s.signer.Verify(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, grant.JobID())
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, "/"+token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportJobFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not available")
	}
	file, err := s.storage.Open(grant.Key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ExportDownload{
		File:        file,
		Filename:    grant.Filename(),
		ContentType: job.Params.Format.ContentType(),
		ExpiresAt:   grant.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays jobs left queued by a previous process.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued export jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

// StartCleanup purges expired exports every CleanupInterval until ctx is cancelled.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes files of jobs finished before the retention window and marks them expired.
func (s *ExportJobService) CleanupExpired(ctx context.Context) {
	const batch = 100
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired := models.ExportJobExpired
	for {
		finished, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
		if err != nil {
			s.logger.Warn("export cleanup list failed", zap.Error(err))
			return
		}
		for _, job := range finished {
			if job.ResultURL != nil {
				if grant, err := s.signer.Verify(lastSegment(*job.ResultURL), true); err == nil {
					if err := s.storage.Delete(grant.Key); err != nil {
						s.logger.Warn("export cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
					}
				}
			}
			if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &expired}); err != nil {
				s.logger.Warn("failed to expire export job", zap.String("job_id", job.ID), zap.Error(err))
				return
			}
		}
		if len(finished) < batch {
			break
		}
	}
	if removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export filesystem cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("removed stale export files", zap.Int("count", len(removed)))
	}
}

// Handle processes a queued export job. Validation failures are returned as permanent so the queue does not retry them.
func (s *ExportJobService) Handle(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("export job vanished", zap.String("job_id", queued.ID))
			return nil
		}
		return err
	}
	processing := models.ExportJobProcessing
	progress := 10
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	file, err := s.exportFor(ctx, job)
	if err != nil {
		appErr := appErrors.FromError(err)
		if appErr.Status < 500 {
			return jobs.Permanent(appErr)
		}
		queuedStatus := models.ExportJobQueued
		reset := 0
		msg := err.Error()
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &queuedStatus, Progress: &reset, ErrorMessage: &msg}); updateErr != nil {
			s.logger.Warn("failed to requeue export job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	key, err := s.storage.Save(job.ID, file.Filename, file.Content)
	if err != nil {
		return fmt.Errorf("store export %s: %w", job.ID, err)
	}
	token, _, err := s.signer.Sign(key)
	if err != nil {
		return fmt.Errorf("sign export %s: %w", job.ID, err)
	}

	finished := models.ExportJobFinished
	progress = 100
	now := time.Now().UTC()
	resultURL := s.downloadURL(token)
	noError := ""
	rows := file.RowCount
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		RowCount:     &rows,
		ResultURL:    &resultURL,
		ErrorMessage: &noError,
		FinishedAt:   &now,
	}); err != nil {
		return err
	}
	s.observe(models.ExportJobFinished)
	s.logger.Info("export job finished", zap.String("job_id", job.ID), zap.Int("rows", rows))
	return nil
}

// OnFailure marks a job failed once the queue gives up retrying.
func (s *ExportJobService) OnFailure(ctx context.Context, queued jobs.Job, err error) {
	msg := err.Error()
	if appErr := appErrors.FromError(err); appErr.Status < 500 {
		msg = appErr.Message
	}
	s.markFailed(ctx, queued.ID, msg)
}

func (s *ExportJobService) exportFor(ctx context.Context, job *models.ExportJob) (*ExportFile, error) {
	criteria, err := studentfilter.ParseQuery(url.Values(job.Params.Query))
	if err != nil {
		return nil, err
	}
	actor := &models.JWTClaims{UserID: job.CreatedBy, Role: job.Params.ActorRole, CollegeID: job.Params.CollegeID}
	return s.exporter.Export(ctx, ExportRequest{
		Criteria: criteria,
		Fields:   job.Params.Fields,
		Format:   job.Params.Format,
		Options:  job.Params.Options,
	}, actor)
}

func (s *ExportJobService) markFailed(ctx context.Context, id, msg string) {
	failed := models.ExportJobFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
	s.observe(models.ExportJobFailed)
}

func (s *ExportJobService) observe(status models.ExportJobStatus) {
	if s.metrics != nil {
		s.metrics.ObserveExportJob(string(status))
	}
}

func (s *ExportJobService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Internal(err, "failed to load export job")
	}
	return job, nil
}

func (s *ExportJobService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return fmt.Sprintf("%s/exports/%s", prefix, token)
}

func lastSegment(u string) string {
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
