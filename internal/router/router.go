package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/handler"
	"github.com/noah-isme/placement-portal-api/internal/middleware"
	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/placement-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/placement-portal-api/pkg/middleware/requestid"
)

// Options configures the engine.
type Options struct {
	APIPrefix      string
	ServiceName    string
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
	Tokens         middleware.TokenValidator
	Metrics        middleware.RequestObserver
}

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth      *handler.AuthHandler
	Students  *handler.StudentHandler
	Workflow  *handler.StudentWorkflowHandler
	Whitelist *handler.WhitelistHandler
	Jobs      *handler.JobHandler
	Exports   *handler.ExportHandler
	Activity  *handler.ActivityHandler
	Colleges  *handler.CollegeHandler
	Metrics   *handler.MetricsHandler
}

var probePaths = []string{"/health", "/ready", "/metrics"}

// New builds the gin engine with the global middleware chain and every route.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	prefix := "/" + strings.Trim(opts.APIPrefix, "/")
	if prefix == "/" {
		prefix = "/api/v1"
	}
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "placement-portal-api"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName, otelgin.WithFilter(func(req *http.Request) bool {
		return !isProbe(req.URL.Path)
	})))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger, probePaths...))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	registerAuth(api, h)
	r.GET(prefix+"/exports/:token", h.Exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(opts.Tokens))
	registerStudents(secured, h)
	registerWhitelist(secured, h)
	registerJobs(secured, h)
	registerActivity(secured, h)
	registerReferenceData(secured, h)

	return r
}

func registerAuth(api *gin.RouterGroup, h Handlers) {
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
}

func registerStudents(api *gin.RouterGroup, h Handlers) {
	staff := middleware.RequireRoles(models.RoleSuperAdmin, models.RolePlacementOfficer)
	student := middleware.RequireRoles(models.RoleStudent)

	students := api.Group("/students")
	students.GET("", staff, h.Students.List)
	students.GET("/export", staff, h.Exports.Export)
	students.POST("/export/jobs", staff, h.Exports.CreateJob)
	students.GET("/export/jobs/:id", staff, h.Exports.GetJob)
	students.GET("/me", student, h.Students.Me)
	students.PUT("/me", student, h.Students.UpdateMe)
	students.POST("/bulk/approve", staff, h.Workflow.BulkApprove)
	students.POST("/bulk/reject", staff, h.Workflow.BulkReject)
	students.GET("/:id", staff, h.Students.Get)
	students.POST("/:id/approve", staff, h.Workflow.Approve)
	students.POST("/:id/reject", staff, h.Workflow.Reject)
	students.POST("/:id/blacklist", staff, h.Workflow.Blacklist)
	students.POST("/:id/whitelist", middleware.RequireRoles(models.RoleSuperAdmin), h.Workflow.Whitelist)
}

func registerWhitelist(api *gin.RouterGroup, h Handlers) {
	requests := api.Group("/whitelist-requests")
	requests.POST("", middleware.RequireRoles(models.RolePlacementOfficer), h.Whitelist.Create)
	requests.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RolePlacementOfficer), h.Whitelist.List)
	requests.POST("/:id/review", middleware.RequireRoles(models.RoleSuperAdmin), h.Whitelist.Review)
}

func registerJobs(api *gin.RouterGroup, h Handlers) {
	jobs := api.Group("/jobs")
	jobs.POST("", middleware.RequireRoles(models.RolePlacementOfficer), h.Jobs.Submit)
	jobs.GET("", middleware.RequireRoles(models.RoleSuperAdmin, models.RolePlacementOfficer), h.Jobs.List)
	jobs.GET("/visible", middleware.RequireRoles(models.RoleStudent), h.Jobs.Visible)
	jobs.POST("/:id/review", middleware.RequireRoles(models.RoleSuperAdmin), h.Jobs.Review)
	jobs.POST("/:id/apply", middleware.RequireRoles(models.RoleStudent), h.Jobs.Apply)
}

func registerActivity(api *gin.RouterGroup, h Handlers) {
	activity := api.Group("/activity", middleware.RequireRoles(models.RoleSuperAdmin))
	activity.GET("", h.Activity.List)
	activity.GET("/summary", h.Activity.Summary)
}

func registerReferenceData(api *gin.RouterGroup, h Handlers) {
	admin := middleware.RequireRoles(models.RoleSuperAdmin)
	api.GET("/colleges", h.Colleges.ListColleges)
	api.POST("/colleges", admin, h.Colleges.CreateCollege)
	api.GET("/regions", h.Colleges.ListRegions)
	api.POST("/regions", admin, h.Colleges.CreateRegion)
}

func isProbe(path string) bool {
	for _, p := range probePaths {
		if path == p {
			return true
		}
	}
	return false
}
