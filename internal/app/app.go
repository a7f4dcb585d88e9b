package app

import (
	"context"
	"exam_admin_backend/internal/config"
	"exam_admin_backend/internal/controller"
	"exam_admin_backend/internal/repository"
	"exam_admin_backend/internal/service"
	"exam_admin_backend/pkg/configwatcher"
	"exam_admin_backend/pkg/database"
	"exam_admin_backend/pkg/logger"
	"exam_admin_backend/pkg/monitoring"
	"exam_admin_backend/pkg/security"
	"exam_admin_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	tracerShutdown  func(context.Context) error
	sweepCancel     context.CancelFunc
}

type repositories struct {
	user       *repository.UserRepository
	batch      *repository.BatchRepository
	exam       *repository.ExamRepository
	question   *repository.QuestionRepository
	assignment *repository.AssignmentRepository
	attempt    *repository.AttemptRepository
	grading    *repository.GradingRepository
	audit      *repository.AuditRepository
}

type services struct {
	policy     *service.Policy
	storage    *service.StorageService
	ai         *service.AIService
	auth       *service.AuthService
	user       *service.UserService
	batch      *service.BatchService
	exam       *service.ExamService
	question   *service.QuestionService
	assignment *service.AssignmentService
	grading    *service.GradingService
	attempt    *service.AttemptService
	media      *service.MediaService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	batch      *controller.BatchController
	exam       *controller.ExamController
	question   *controller.QuestionController
	assignment *controller.AssignmentController
	attempt    *controller.AttemptController
	monitor    *controller.MonitorController
	grading    *controller.GradingController
	media      *controller.MediaController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		batch:      repository.NewBatchRepository(db),
		exam:       repository.NewExamRepository(db),
		question:   repository.NewQuestionRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		attempt:    repository.NewAttemptRepository(db),
		grading:    repository.NewGradingRepository(db),
		audit:      repository.NewAuditRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.policy = service.NewPolicy()
	s.storage = service.NewStorageService(cfg)
	s.ai = service.NewAIService(cfg.AI)

	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user, repos.batch)
	s.batch = service.NewBatchService(repos.batch)
	s.exam = service.NewExamService(repos.exam, repos.question)
	s.question = service.NewQuestionService(repos.question, repos.exam)
	s.assignment = service.NewAssignmentService(repos.assignment, repos.attempt, repos.user, repos.exam, repos.audit, s.policy)

	s.grading = service.NewGradingService(
		repos.grading,
		repos.attempt,
		repos.question,
		repos.exam,
		repos.audit,
		s.ai,
		s.policy,
		cfg,
		rdb,
	)
	s.attempt = service.NewAttemptService(
		repos.attempt,
		repos.assignment,
		repos.exam,
		repos.question,
		repos.audit,
		s.grading,
		s.policy,
		cfg,
		rdb,
	)

	s.media = service.NewMediaService(db, s.storage, cfg)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		user:       controller.NewUserController(s.user),
		batch:      controller.NewBatchController(s.batch),
		exam:       controller.NewExamController(s.exam),
		question:   controller.NewQuestionController(s.question),
		assignment: controller.NewAssignmentController(s.assignment),
		attempt:    controller.NewAttemptController(s.attempt, s.assignment, s.question, s.grading),
		monitor:    controller.NewMonitorController(s.attempt, repos.audit, s.policy),
		grading:    controller.NewGradingController(s.grading),
		media:      controller.NewMediaController(s.media),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// sweepLoop 周期执行巡检，ctx 取消后退出
func sweepLoop(ctx context.Context, interval time.Duration, run func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// startBackgroundTasks 周期巡检：判超时考次、重跑 pending 阅卷会话。
// 两个巡检都通过 redis 单飞锁防多实例重复执行；优雅停机时随服务一起退出。
func (a *App) startBackgroundTasks(s *services) {
	ctx, cancel := context.WithCancel(context.Background())
	a.sweepCancel = cancel

	interval := time.Duration(a.Config.Exam.SweepIntervalSeconds) * time.Second
	go sweepLoop(ctx, interval, func() {
		if err := s.attempt.ExpireOverdue(); err != nil {
			logger.Log.Error("attempt expire sweep error", zap.Error(err))
		}
		if err := s.grading.ProcessPendingSessions(); err != nil {
			logger.Log.Error("grading sweep error", zap.Error(err))
		}
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("exam-admin", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerShutdown = tp.Shutdown
	}

	app.registerRoutes(router, controllers, repos, cfg)

	// 配置热更新：仅覆盖可安全热换的运行参数
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		c, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		app.Config.Exam = c.Exam
		app.Config.AI = c.AI
		for _, cb := range app.configCallbacks {
			cb(c)
		}
		logger.Log.Info("config reloaded")
	})

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.sweepCancel != nil {
		a.sweepCancel()
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}

	log.Println("Server exiting")
}
