package app

import (
	"context"
	"corp_learn_backend/internal/config"
	"corp_learn_backend/internal/controller"
	"corp_learn_backend/internal/repository"
	"corp_learn_backend/internal/service"
	"corp_learn_backend/pkg/database"
	"corp_learn_backend/pkg/logger"
	"corp_learn_backend/pkg/monitoring"
	"corp_learn_backend/pkg/security"
	"corp_learn_backend/pkg/tracing"
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
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user         *repository.UserRepository
	course       *repository.CourseRepository
	enrollment   *repository.EnrollmentRepository
	rating       *repository.RatingRepository
	badge        *repository.BadgeRepository
	stats        *repository.StatsRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	course       *service.CourseService
	progress     *service.ProgressService
	rating       *service.RatingService
	achievement  *service.AchievementService
	stats        *service.StatsService
	notification *service.NotificationService
	report       *service.ReportService
}

type controllers struct {
	auth         *controller.AuthController
	course       *controller.CourseController
	badge        *controller.BadgeController
	user         *controller.UserController
	notification *controller.NotificationController
	admin        *controller.AdminController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		course:       repository.NewCourseRepository(db),
		enrollment:   repository.NewEnrollmentRepository(db),
		rating:       repository.NewRatingRepository(db),
		badge:        repository.NewBadgeRepository(db),
		stats:        repository.NewStatsRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.notification = service.NewNotificationService(repos.notification, repos.user)
	s.stats = service.NewStatsService(repos.stats, repos.enrollment, repos.badge, repos.user, db)
	s.auth = service.NewAuthService(repos.user, repos.stats, cfg)
	s.user = service.NewUserService(repos.user)
	s.course = service.NewCourseService(repos.course, repos.enrollment, rdb, cfg, logger.Log)
	s.progress = service.NewProgressService(repos.enrollment, repos.course, s.stats, s.notification, db)
	s.rating = service.NewRatingService(repos.rating, repos.enrollment, repos.course, db)
	s.achievement = service.NewAchievementService(repos.badge, repos.enrollment, repos.stats, repos.user, s.stats, s.notification, db)
	s.report = service.NewReportService(repos.user, repos.course, repos.enrollment, repos.badge)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth, s.user),
		course:       controller.NewCourseController(s.course, s.progress, s.rating),
		badge:        controller.NewBadgeController(s.achievement),
		user:         controller.NewUserController(s.stats),
		notification: controller.NewNotificationController(s.notification),
		admin:        controller.NewAdminController(s.user, s.stats, s.achievement, s.report),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		database.Seed(db)
	}
	if cfg.MigrateOnly {
		logger.Log.Info("Migration complete, exiting (migrate-only mode)")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 目录缓存可降级，Redis 不可用时只记警告
		logger.Log.Warn("Failed to initialize redis, catalog cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		_, err := tracing.InitTracer("corp-learn-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	logger.Log.Sync()
	log.Println("Server exiting")
}
