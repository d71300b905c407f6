package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"pillar_journey_backend/internal/config"
	"pillar_journey_backend/internal/controller"
	"pillar_journey_backend/internal/model"
	"pillar_journey_backend/internal/repository"
	"pillar_journey_backend/internal/service"
	"pillar_journey_backend/internal/util"
	"pillar_journey_backend/pkg/cache"
	"pillar_journey_backend/pkg/configwatcher"
	"pillar_journey_backend/pkg/database"
	"pillar_journey_backend/pkg/logger"
	"pillar_journey_backend/pkg/monitoring"
	"pillar_journey_backend/pkg/security"
	"pillar_journey_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Cache           cache.Client
	Clock           util.Clock
	services        *services
	tracer          *sdktrace.TracerProvider
	limiter         *security.Limiter
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	journey    *repository.JourneyRepository
	checkin    *repository.CheckinRepository
	karma      *repository.KarmaRepository
	streak     *repository.StreakRepository
	badge      *repository.BadgeRepository
	insight    *repository.InsightRepository
	assessment *repository.AssessmentRepository
	mood       *repository.MoodRepository
}

type services struct {
	storage    *service.StorageService
	journey    *service.JourneyService
	streak     *service.StreakService
	badge      *service.BadgeService
	progress   *service.ProgressService
	insight    *service.InsightService
	report     *service.ReportService
	dashboard  *service.DashboardService
	assessment *service.AssessmentService
	mood       *service.MoodService
	jobs       *service.JobQueue
}

type controllers struct {
	checkin    *controller.CheckinController
	dashboard  *controller.DashboardController
	insight    *controller.InsightController
	report     *controller.ReportController
	journey    *controller.JourneyController
	assessment *controller.AssessmentController
	mood       *controller.MoodController
	badge      *controller.BadgeController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		journey:    repository.NewJourneyRepository(db),
		checkin:    repository.NewCheckinRepository(db),
		karma:      repository.NewKarmaRepository(db),
		streak:     repository.NewStreakRepository(db),
		badge:      repository.NewBadgeRepository(db),
		insight:    repository.NewInsightRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		mood:       repository.NewMoodRepository(db),
	}
}

// earlyBirdRule 由配置得到早起徽章的判定规则
func earlyBirdRule(cfg *config.EngineConfig) service.EarlyBirdRule {
	rule := service.EarlyBirdRule{PillarID: 1, Cutoff: 5*time.Hour + 30*time.Minute}
	if p, ok := model.FindPillarBySlug(cfg.EarlyBirdPillar); ok {
		rule.PillarID = p.ID
	} else {
		logger.Log.Warn("unknown early bird pillar, using default", zap.String("slug", cfg.EarlyBirdPillar))
	}
	if d, err := config.ParseClock(cfg.EarlyBirdCutoff); err == nil {
		rule.Cutoff = d
	}
	return rule
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.journey = service.NewJourneyService(db, repos.journey, a.Clock)
	s.streak = service.NewStreakService(db, repos.checkin, repos.streak, a.Clock)
	s.badge = service.NewBadgeService(db, repos.badge, repos.checkin, repos.karma, repos.streak, s.journey, a.Clock, earlyBirdRule(&cfg.Engine))
	s.insight = service.NewInsightService(repos.insight, repos.checkin, repos.mood, repos.assessment, s.journey, a.Clock)
	s.report = service.NewReportService(repos.checkin, repos.karma, repos.streak, repos.badge, repos.assessment, repos.mood, s.journey, a.Clock)
	s.dashboard = service.NewDashboardService(repos.checkin, repos.karma, s.journey, s.streak, a.Cache, cfg.Engine.DashboardCacheTTL, a.Clock)
	s.assessment = service.NewAssessmentService(repos.assessment, s.journey, a.Clock)
	s.mood = service.NewMoodService(repos.mood, a.Clock)

	s.progress = service.NewProgressService(db, repos.checkin, repos.karma, s.journey, s.streak, s.badge, a.Clock)
	s.progress.Insights = s.insight
	s.progress.Dashboard = s.dashboard

	// 徽章重试始终走队列，洞察是否在账本提交后异步生成由配置决定
	s.jobs = service.NewJobQueue(cfg.Engine.JobQueueSize, cfg.Engine.InsightWorkers)
	s.jobs.Start()
	s.progress.Jobs = s.jobs
	s.progress.AsyncInsights = cfg.Engine.AsyncInsights

	return s, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		checkin:    controller.NewCheckinController(s.progress),
		dashboard:  controller.NewDashboardController(s.dashboard),
		insight:    controller.NewInsightController(s.insight),
		report:     controller.NewReportController(s.report, s.storage),
		journey:    controller.NewJourneyController(s.journey, s.dashboard),
		assessment: controller.NewAssessmentController(s.assessment),
		mood:       controller.NewMoodController(s.mood),
		badge:      controller.NewBadgeController(s.badge, s.dashboard),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go a.limiter.Cleanup(ctx)

	interval := a.Config.Engine.InsightPurgeInterval
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.insight.PurgeExpired(ctx)
				if err != nil {
					logger.Log.Error("purge expired insights failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Log.Info("purged expired insights", zap.Int64("count", n))
				}
			}
		}
	}()

	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetMode(cfg.Server.Mode)
		logger.Log.Info("config reloaded", zap.String("mode", cfg.Server.Mode))
	})
	go func() {
		err := configwatcher.WatchConfig(ctx, "configs", func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Warn("config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式下只有显式指定时才迁移
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Log.Info("Database migrated")
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Clock:  util.NewSystemClock(cfg.Engine.Location()),
	}
	if cfg.MigrateOnly {
		return app
	}

	// redis 不可用时退回进程内缓存，缓存内容都可由数据库重算
	app.Cache = cache.NewMemoryClient()
	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Failed to initialize redis, falling back to memory cache", zap.Error(err))
		} else {
			app.Redis = rdb
			app.Cache = cache.NewRedisClient(rdb, cfg.Redis.Prefix)
		}
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	app.limiter = security.NewLimiter(cfg.RateLimit.MaxRequests, window)

	app.registerRoutes(router, controllers, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundTasks(ctx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Shutdown(ctx)
	logger.Log.Info("Server exiting")
}

// Shutdown 停止后台任务并等待队列中的任务完成
func (a *App) Shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.services != nil && a.services.jobs != nil {
		if err := a.services.jobs.Stop(ctx); err != nil {
			logger.Log.Warn("job queue did not drain", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
