package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/windwardhq/scheduling-api/api/swagger"
	"github.com/windwardhq/scheduling-api/internal/handler"
	"github.com/windwardhq/scheduling-api/internal/middleware"
	"github.com/windwardhq/scheduling-api/internal/repository"
	"github.com/windwardhq/scheduling-api/internal/service"
	"github.com/windwardhq/scheduling-api/pkg/cache"
	"github.com/windwardhq/scheduling-api/pkg/config"
	"github.com/windwardhq/scheduling-api/pkg/database"
	"github.com/windwardhq/scheduling-api/pkg/jobs"
	"github.com/windwardhq/scheduling-api/pkg/logger"
	corsmiddleware "github.com/windwardhq/scheduling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/windwardhq/scheduling-api/pkg/middleware/requestid"
)

// @title Windward Scheduling API
// @version 0.1.0
// @description Teacher daily queue and commission engine
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	commissionSvc := service.NewCommissionService(logr)
	builder := service.NewQueueBuilder(logr)
	schedulingSvc := service.NewSchedulingService(bookingRepo, teacherRepo, eventRepo, settingsRepo, cacheRepo, builder, commissionSvc, metricsSvc, validate, logr, cfg.Scheduling)
	teacherSvc := service.NewTeacherService(teacherRepo, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	earningsSvc := service.NewEarningsService(schedulingSvc, commissionSvc, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "scheduling-api",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rebuildQueue := jobs.NewQueue("queue-rebuild", func(ctx context.Context, job jobs.Job) error {
		date, _ := job.Payload.(string)
		return schedulingSvc.RefreshDay(ctx, date)
	}, jobs.QueueConfig{Workers: cfg.Scheduling.RebuildWorkers, Logger: logr})
	rebuildQueue.Start(ctx)
	defer rebuildQueue.Stop()

	go cacheRepo.Subscribe(ctx, cfg.Scheduling.InvalidationTopic, func(date string) {
		schedulingSvc.Invalidate(ctx, date)
		if err := rebuildQueue.Enqueue(jobs.Job{Type: "rebuild", Payload: date}); err != nil {
			logr.Sugar().Warnw("failed to enqueue rebuild", "date", date, "error", err)
		}
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	queueHandler := handler.NewQueueHandler(schedulingSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	earningsHandler := handler.NewEarningsHandler(earningsSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/teachers", teacherHandler.List)
	protected.GET("/teachers/:id", teacherHandler.Get)
	protected.GET("/queues", queueHandler.List)
	protected.GET("/queues/:teacherId/slot", queueHandler.Slot)
	protected.POST("/queues/:teacherId/events", queueHandler.Schedule)
	protected.GET("/settings", settingsHandler.Get)
	protected.PUT("/settings", settingsHandler.Update)
	if cfg.Earnings.Enabled {
		protected.GET("/earnings/daily", earningsHandler.Daily)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
