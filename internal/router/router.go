package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/mowamiyya/leaveMangement/internal/handler"
	"github.com/mowamiyya/leaveMangement/internal/middleware"
	"github.com/mowamiyya/leaveMangement/internal/models"
	"github.com/mowamiyya/leaveMangement/internal/service"
	"github.com/mowamiyya/leaveMangement/pkg/config"
	"github.com/mowamiyya/leaveMangement/pkg/logger"
	corsmiddleware "github.com/mowamiyya/leaveMangement/pkg/middleware/cors"
	reqidmiddleware "github.com/mowamiyya/leaveMangement/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Leave       *handler.LeaveHandler
	LeaveStatus *handler.LeaveStatusHandler
	Admin       *handler.AdminHandler
	Hierarchy   *handler.HierarchyHandler
	Dashboard   *handler.DashboardHandler
	Settings    *handler.SettingsHandler
	Audit       *handler.AuditHandler
}

// New builds the gin engine with all routes and middleware attached.
func New(cfg *config.Config, logr *zap.Logger, tokens *service.TokenService, metrics *service.MetricsService, h *Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")

	public := api.Group("/public")
	{
		public.GET("/leave-statuses", h.LeaveStatus.List)
		public.GET("/exports", h.Leave.DownloadArchived)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
		auth.POST("/refresh", h.Auth.Refresh)

		auth.GET("/me", middleware.JWT(tokens), h.Auth.Me)
		auth.PUT("/password", middleware.JWT(tokens), h.Auth.UpdatePassword)
		auth.POST("/logout", middleware.JWT(tokens), h.Auth.Logout)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(tokens))
	{
		authed.GET("/dashboard/stats", h.Dashboard.Stats)
		authed.GET("/dashboard/student", middleware.RequireRoles(models.RoleStudent), h.Dashboard.Stats)
		authed.GET("/dashboard/teacher", middleware.RequireRoles(models.RoleTeacher), h.Dashboard.Stats)
		authed.GET("/hierarchy/tree", h.Hierarchy.Tree)
		authed.GET("/settings", h.Settings.Get)
		authed.PUT("/settings", h.Settings.Save)
	}

	leaves := api.Group("/leaves")
	leaves.Use(middleware.JWT(tokens))
	{
		leaves.POST("/apply", middleware.RequireRoles(models.RoleStudent), h.Leave.Apply)
		leaves.GET("/my-leaves", middleware.RequireRoles(models.RoleStudent), h.Leave.MyLeaves)

		leaves.GET("/pending", middleware.RequireRoles(models.RoleTeacher), h.Leave.Pending)
		leaves.GET("/all", middleware.RequireRoles(models.RoleTeacher), h.Leave.All)
		leaves.GET("/all/export", middleware.RequireRoles(models.RoleTeacher), h.Leave.Export)
		leaves.POST("/approve", middleware.RequireRoles(models.RoleTeacher), h.Leave.Approve)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.JWT(tokens), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/departments", h.Admin.CreateDepartment)
		admin.GET("/departments", h.Admin.ListDepartments)
		admin.PUT("/departments/:id", h.Admin.UpdateDepartment)
		admin.DELETE("/departments/:id", h.Admin.DeleteDepartment)

		admin.POST("/classes", h.Admin.CreateClass)
		admin.GET("/classes", h.Admin.ListClasses)
		admin.PUT("/classes/:id", h.Admin.UpdateClass)
		admin.DELETE("/classes/:id", h.Admin.DeleteClass)

		admin.POST("/class-teachers", h.Admin.AssignClassTeacher)
		admin.GET("/class-teachers", h.Admin.ListClassTeachers)
		admin.DELETE("/class-teachers/:id", h.Admin.UnassignClassTeacher)

		admin.GET("/students", h.Admin.ListStudents)
		admin.GET("/teachers", h.Admin.ListTeachers)
		admin.DELETE("/users/:id", h.Admin.DeactivateUser)

		admin.GET("/audit/actors/:actorId", h.Audit.ActorHistory)
		admin.GET("/audit/:entityType/:entityId", h.Audit.EntityHistory)
	}

	return r
}
