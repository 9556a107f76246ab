package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/api/swagger"
	"github.com/noah-isme/placement-portal-api/internal/handler"
	"github.com/noah-isme/placement-portal-api/internal/repository"
	"github.com/noah-isme/placement-portal-api/internal/router"
	"github.com/noah-isme/placement-portal-api/internal/service"
	"github.com/noah-isme/placement-portal-api/pkg/cache"
	"github.com/noah-isme/placement-portal-api/pkg/config"
	"github.com/noah-isme/placement-portal-api/pkg/database"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
	"github.com/noah-isme/placement-portal-api/pkg/jobs"
	"github.com/noah-isme/placement-portal-api/pkg/logger"
	"github.com/noah-isme/placement-portal-api/pkg/storage"
)

// @title Placement Portal API
// @version 1.0.0
// @description Student registration, eligibility filtering, exports and job postings for campus placement cells
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := appErrors.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	whitelistRepo := repository.NewWhitelistRequestRepository(db)
	jobRepo := repository.NewJobRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	collegeRepo := repository.NewCollegeRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, cfg.ServiceName, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)

	activitySvc := service.NewActivityService(activityRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, activitySvc, validate, logr, service.StudentServiceConfig{
		MaxPageSize: cfg.Students.MaxPageSize,
	})
	workflowSvc := service.NewStudentWorkflowService(studentRepo, activitySvc, logr)
	whitelistSvc := service.NewWhitelistService(whitelistRepo, studentRepo, activitySvc, validate, logr)
	jobSvc := service.NewJobService(jobRepo, studentRepo, activitySvc, validate, logr)
	collegeSvc := service.NewCollegeService(collegeRepo, cacheSvc, validate, logr)
	exportSvc := service.NewExportService(
		studentRepo,
		service.NewBranchShortNames(cfg.Export.BranchShortNames),
		service.ExportServiceConfig{MaxRows: cfg.Export.MaxRows, DefaultCompany: cfg.Export.DefaultCompany},
		logr,
		service.WithExportMetrics(metrics),
		service.WithExportActivity(activitySvc),
	)

	exportHandler := handler.NewExportHandler(exportSvc, nil)
	if cfg.Export.JobsEnabled {
		exportJobSvc, queue, err := startExportJobs(ctx, cfg, exportJobRepo, exportSvc, metrics, logr)
		if err != nil {
			logr.Fatal("failed to start export jobs", zap.Error(err))
		}
		defer queue.Stop()
		exportHandler = handler.NewExportHandler(exportSvc, exportJobSvc)
	}

	checks := map[string]handler.Pinger{"database": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	swagger.BasePath = cfg.APIPrefix

	engine := router.New(router.Options{
		APIPrefix:      cfg.APIPrefix,
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Tokens:         authSvc,
		Metrics:        metrics,
	}, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, studentSvc),
		Students:  handler.NewStudentHandler(studentSvc),
		Workflow:  handler.NewStudentWorkflowHandler(workflowSvc),
		Whitelist: handler.NewWhitelistHandler(whitelistSvc),
		Jobs:      handler.NewJobHandler(jobSvc),
		Exports:   exportHandler,
		Activity:  handler.NewActivityHandler(activitySvc),
		Colleges:  handler.NewCollegeHandler(collegeSvc),
		Metrics:   handler.NewMetricsHandler(metrics.Handler(), checks),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

// startExportJobs wires the background export queue, its storage and the cleanup loop.
func startExportJobs(ctx context.Context, cfg *config.Config, repo *repository.ExportJobRepository, exporter *service.ExportService, metrics *service.MetricsService, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SignedURLSecret, cfg.Export.SignedURLTTL)

	var svc *service.ExportJobService
	queue := jobs.NewQueue(service.ExportJobType, func(ctx context.Context, job jobs.Job) error {
		return svc.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Export.WorkerConcurrency,
		MaxRetries: cfg.Export.WorkerRetries,
		Timeout:    cfg.Export.WorkerTimeout,
		OnFailure: func(ctx context.Context, job jobs.Job, err error) {
			svc.OnFailure(ctx, job, err)
		},
		Logger: logr.Named("export-queue"),
	})

	svc = service.NewExportJobService(repo, queue, exporter, files, signer, service.ExportJobConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Export.SignedURLTTL,
		CleanupInterval: cfg.Export.CleanupInterval,
	}, logr, service.WithExportJobMetrics(metrics))

	queue.Start(ctx)
	svc.RecoverPendingJobs(ctx)
	svc.StartCleanup(ctx)
	return svc, queue, nil
}
