package app

import (
	"exam_admin_backend/docs"
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/middleware"
	"exam_admin_backend/internal/model"

	"exam_admin_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由（无需登录）
	a.registerPublicRoutes(router, c)

	// 2. 考生端
	a.registerCandidateRoutes(router, c, repos, cfg)

	// 3. 阅卷端（教师与管理员）
	a.registerGradingRoutes(router, c, repos, cfg)

	// 4. 管理端
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerCandidateRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	exam := router.Group("/api/exam")
	exam.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		exam.GET("/assignments", c.attempt.MyAssignments)
		exam.GET("/exams/:examId/eligibility", c.attempt.Eligibility)

		exam.POST("/attempts", c.attempt.Start)
		exam.GET("/attempts/:id", c.attempt.GetSummary)
		exam.GET("/attempts/:id/paper", c.attempt.Paper)
		exam.POST("/attempts/:id/heartbeat", c.attempt.Heartbeat)
		exam.PUT("/attempts/:id/answers", c.attempt.SaveAnswer)
		exam.POST("/attempts/:id/pause", c.attempt.Pause)
		exam.POST("/attempts/:id/resume", c.attempt.Resume)
		exam.POST("/attempts/:id/submit", c.attempt.Submit)
		exam.GET("/attempts/:id/result", c.attempt.Result)
	}

	me := router.Group("/api")
	me.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		me.GET("/me", c.auth.Me)
		me.PUT("/me/password", c.auth.ChangePassword)
		me.POST("/media", c.media.Upload)
		me.GET("/media/:id", c.media.Get)
	}
}

func (a *App) registerGradingRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	grading := router.Group("/api/grading")
	grading.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.Instructor, model.Admin),
	)
	{
		grading.POST("/attempts/:attemptId/sessions", c.grading.Initiate)
		grading.GET("/sessions", c.grading.ListSessions)
		grading.GET("/sessions/:id", c.grading.GetSession)
		grading.POST("/sessions/:id/grades", c.grading.SubmitGrade)
		grading.POST("/sessions/:id/grades/bulk", c.grading.BulkSubmitGrades)
		grading.POST("/sessions/:id/complete", c.grading.Complete)
		grading.POST("/sessions/:id/regrade", c.grading.Regrade)
		grading.GET("/sessions/:id/questions/:questionId/suggest", c.grading.SuggestGrade)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.Admin),
	)
	{
		// 考生与批次
		admin.POST("/candidates", c.user.CreateCandidate)
		admin.GET("/candidates", c.user.ListCandidates)
		admin.GET("/candidates/:id", c.user.GetCandidate)
		admin.PUT("/candidates/:id", c.user.UpdateCandidate)
		admin.DELETE("/candidates/:id", c.user.DeleteCandidate)
		admin.PUT("/candidates/:id/password", c.user.ResetPassword)
		admin.GET("/candidates/:id/assignments", c.assignment.ListByCandidate)

		admin.POST("/batches", c.batch.Create)
		admin.GET("/batches", c.batch.List)
		admin.GET("/batches/:id", c.batch.Get)
		admin.PUT("/batches/:id", c.batch.Update)
		admin.DELETE("/batches/:id", c.batch.Delete)

		// 考试与题库
		admin.POST("/exams", c.exam.Create)
		admin.GET("/exams", c.exam.List)
		admin.GET("/exams/:examId", c.exam.Get)
		admin.PUT("/exams/:examId", c.exam.Update)
		admin.DELETE("/exams/:examId", c.exam.Delete)
		admin.POST("/exams/:examId/publish", c.exam.Publish)
		admin.POST("/exams/:examId/unpublish", c.exam.Unpublish)
		admin.POST("/exams/:examId/questions", c.question.Create)
		admin.GET("/exams/:examId/questions", c.question.List)
		admin.GET("/exams/:examId/assignments", c.assignment.ListByExam)
		admin.PUT("/questions/:id", c.question.Update)
		admin.DELETE("/questions/:id", c.question.Delete)

		// 排考与豁免
		admin.POST("/assignments", c.assignment.Assign)
		admin.DELETE("/assignments/:id", c.assignment.Unassign)
		admin.POST("/overrides", c.assignment.AllowNewAttempt)

		// 监考台
		admin.GET("/attempts", c.monitor.ListAttempts)
		admin.GET("/attempts/:id", c.monitor.GetAttempt)
		admin.POST("/attempts/:id/force-end", c.monitor.ForceEnd)
		admin.POST("/attempts/:id/resume", c.monitor.Resume)
		admin.POST("/attempts/:id/add-time", c.monitor.AddTime)
		admin.POST("/attempts/:id/cancel", c.monitor.Cancel)
		admin.GET("/audit-logs", c.monitor.ListAuditLogs)

		// 媒体管理
		admin.GET("/media", c.media.List)
		admin.DELETE("/media/:id", c.media.Delete)
	}
}
