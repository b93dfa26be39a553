package server

import (
	"net/http"

	"ssdf-compass/internal/config"
	"ssdf-compass/internal/handlers"
	"ssdf-compass/internal/middleware"
	"ssdf-compass/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("compass_session", store))

	r.Use(middleware.InjectUser())

	// AUTH
	r.POST("/api/register", handlers.Register)
	r.POST("/api/login", handlers.Login)
	r.POST("/api/logout", handlers.Logout)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())

	// ОЦЕНКИ
	api.GET("/assessments", handlers.ListAssessments)
	api.POST("/assessments",
		middleware.RequireRole(models.RoleAdmin, models.RoleAssessor),
		handlers.CreateAssessment,
	)
	api.GET("/assessments/:id", handlers.GetAssessment)
	api.GET("/assessments/:id/dashboard", handlers.Dashboard)
	api.GET("/assessments/:id/trend", handlers.Trend)

	// режим редактирования — только админ
	api.POST("/assessments/:id/editing-mode",
		middleware.RequireRole(models.RoleAdmin),
		handlers.SetEditingMode,
	)

	// ОТВЕТЫ ПО ЗАДАЧАМ SSDF
	// право на запись проверяется внутри (canEdit по релизу + режиму)
	api.GET("/assessments/:id/tasks", handlers.ListTaskResults)
	api.PUT("/assessments/:id/tasks/:task_id", handlers.UpdateTaskResult)

	// РЕЗУЛЬТАТЫ CIS И OVERRIDE
	api.GET("/assessments/:id/cis", handlers.ListCisResults)
	api.POST("/assessments/:id/cis/override", handlers.SetCisOverride)
	api.POST("/assessments/:id/cis/override/clear", handlers.ClearCisOverride)

	// ЦИКЛ СОГЛАСОВАНИЯ
	api.GET("/assessments/:id/releases", handlers.ListReleases)
	api.POST("/assessments/:id/releases/submit", handlers.SubmitRelease)
	api.POST("/assessments/:id/releases/approve", handlers.ApproveRelease)
	api.POST("/assessments/:id/releases/reject", handlers.RejectRelease)
	api.POST("/assessments/:id/releases/unlock", handlers.UnlockRelease)

	// ====== МАППИНГИ SSDF → CIS (админ) ======
	api.GET("/mappings",
		middleware.RequireRole(models.RoleAdmin),
		handlers.ListMappings,
	)
	api.POST("/mappings",
		middleware.RequireRole(models.RoleAdmin),
		handlers.CreateMapping,
	)
	api.PUT("/mappings/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.UpdateMapping,
	)
	api.DELETE("/mappings/:id",
		middleware.RequireRole(models.RoleAdmin),
		handlers.DeleteMapping,
	)

	// АУДИТ
	api.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleViewer),
		handlers.ListAuditLogs,
	)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
