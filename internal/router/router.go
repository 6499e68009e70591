package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/internal/handler"
	"github.com/noah-isme/tuition-match-api/internal/middleware"
	"github.com/noah-isme/tuition-match-api/internal/service"
	"github.com/noah-isme/tuition-match-api/pkg/config"
	"github.com/noah-isme/tuition-match-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tuition-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tuition-match-api/pkg/middleware/requestid"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Auth    middleware.TokenValidator
	Audit   middleware.AuditWriter
	Metrics *service.MetricsService

	TutorRequests *service.TutorRequestService
	Assignments   *service.AssignmentService
	Applications  *service.ApplicationService
	DemoClasses   *service.DemoClassService

	ReadinessChecks map[string]handler.Pinger
}

// New builds the gin engine with every route registered.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.ReadinessChecks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, logr, action, resource)
	}
	staff := middleware.RequireStaff()
	auth := middleware.JWT(deps.Auth)

	api := r.Group(cfg.APIPrefix)

	requests := handler.NewTutorRequestHandler(deps.TutorRequests)
	assignments := handler.NewAssignmentHandler(deps.Assignments)

	public := api.Group("/tutor-requests/public")
	public.POST("", audit(models.AuditActionRequestCreate, "tutor_request"), requests.CreatePublic)
	public.POST("/from-tutor/:tutorId", audit(models.AuditActionRequestCreate, "tutor_request"), requests.CreatePublic)

	tr := api.Group("/tutor-requests", auth)
	tr.POST("", audit(models.AuditActionRequestCreate, "tutor_request"), requests.Create)
	tr.GET("", requests.List)
	tr.GET("/:id", requests.Get)
	tr.PUT("/:id", audit(models.AuditActionRequestUpdate, "tutor_request"), requests.Update)
	tr.PATCH("/:id/status", staff, audit(models.AuditActionRequestStatus, "tutor_request"), requests.UpdateStatus)
	tr.DELETE("/:id", audit(models.AuditActionRequestDelete, "tutor_request"), requests.Delete)

	tr.GET("/:id/assignments", assignments.List)
	tr.GET("/:id/assignments/export", staff, assignments.Export)
	tr.POST("/:id/assign", staff, audit(models.AuditActionAssignTutor, "tutor_assignment"), assignments.Assign)
	tr.PATCH("/:id/assignments/:assignmentId", audit(models.AuditActionAssignmentStatus, "tutor_assignment"), assignments.UpdateStatus)
	tr.DELETE("/:id/assignments/:assignmentId", staff, audit(models.AuditActionAssignmentDelete, "tutor_assignment"), assignments.Delete)

	jobs := handler.NewTuitionJobHandler(deps.Applications)
	tj := api.Group("/tuition-jobs/:id", auth)
	tj.POST("/apply", middleware.RequireRoles(models.RoleTutor), audit(models.AuditActionApplicationApply, "application"), jobs.Apply)
	tj.GET("/check-application", middleware.RequireRoles(models.RoleTutor), jobs.Check)
	tj.POST("/reset-application", audit(models.AuditActionApplicationReset, "application"), jobs.Reset)
	tj.GET("/applications", staff, jobs.ListApplications)
	tj.PATCH("/applications/:applicationId", staff, audit(models.AuditActionApplicationReview, "application"), jobs.Review)

	demos := handler.NewDemoClassHandler(deps.DemoClasses)
	dc := api.Group("/demo-classes", auth, staff)
	dc.GET("", demos.List)
	dc.GET("/:id", demos.Get)
	dc.PUT("/:id", audit(models.AuditActionDemoClassUpdate, "demo_class"), demos.Update)
	dc.DELETE("/:id", audit(models.AuditActionDemoClassDelete, "demo_class"), demos.Delete)

	api.GET("/metrics/summary", auth, staff, metricsHandler.Summary)

	return r
}
