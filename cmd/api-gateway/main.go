package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/teacher-schedule-api/api/swagger"
	"github.com/noah-isme/teacher-schedule-api/internal/grid"
	"github.com/noah-isme/teacher-schedule-api/internal/handler"
	internalmiddleware "github.com/noah-isme/teacher-schedule-api/internal/middleware"
	"github.com/noah-isme/teacher-schedule-api/internal/models"
	"github.com/noah-isme/teacher-schedule-api/internal/repository"
	"github.com/noah-isme/teacher-schedule-api/internal/service"
	"github.com/noah-isme/teacher-schedule-api/pkg/cache"
	"github.com/noah-isme/teacher-schedule-api/pkg/config"
	"github.com/noah-isme/teacher-schedule-api/pkg/database"
	"github.com/noah-isme/teacher-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/teacher-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/teacher-schedule-api/pkg/middleware/requestid"
	"github.com/noah-isme/teacher-schedule-api/pkg/storage"
)

// @title Teacher Schedule API
// @version 1.0.0
// @description Weekly schedule editor for teachers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	cellRepo := repository.NewScheduleCellRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	timeSlotSvc := service.NewTimeSlotService(timeSlotRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)
	catalogSvc := service.NewCatalogService(assignmentRepo, activityRepo, cacheSvc, cfg.Catalog.CacheTTL, validate, logr)
	teacherDir := service.NewTeacherDirectory(userRepo, cfg.Catalog.DefaultInstitutionID, logr)
	exportSvc := service.NewScheduleExportService(cellRepo, catalogSvc, timeSlotSvc, teacherDir, metricsSvc, logr)

	var mirrorSvc *service.ScheduleMirrorService
	if cfg.Mirror.Enabled {
		store, err := storage.NewLocalStorage(cfg.Mirror.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare mirror storage", zap.Error(err))
		}
		mirrorSvc = service.NewScheduleMirrorService(exportSvc, store, service.ScheduleMirrorConfig{
			Workers:    cfg.Mirror.Workers,
			Retries:    cfg.Mirror.Retries,
			RetryDelay: cfg.Mirror.RetryDelay,
		}, metricsSvc, logr)
		mirrorSvc.Start(ctx)
		defer mirrorSvc.Stop()
	}

	editorSvc := service.NewScheduleEditorService(cellRepo, catalogSvc, timeSlotSvc, teacherDir, mirrorSvc, validate, metricsSvc, logr, service.ScheduleEditorConfig{
		SessionTTL:    cfg.Editor.SessionTTL,
		SweepInterval: cfg.Editor.SweepInterval,
		SaveTimeout:   cfg.Editor.SaveTimeout,
		DefaultMode:   grid.Mode(cfg.Editor.DefaultMode),
	})
	go editorSvc.Run(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	timeSlotHandler := handler.NewTimeSlotHandler(timeSlotSvc, cfg.Catalog.DefaultInstitutionID)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	scheduleHandler := handler.NewScheduleHandler(editorSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/time-slots", internalmiddleware.RequireCapability(models.CapCatalogRead), timeSlotHandler.List)
	secured.GET("/metrics/summary", internalmiddleware.RequireCapability(models.CapMetricsRead), metricsHandler.Summary)

	canRead := internalmiddleware.RequireTeacherScope(models.CapScheduleReadOwn, models.CapScheduleReadAny)
	canWrite := internalmiddleware.RequireTeacherScope(models.CapScheduleWriteOwn, models.CapScheduleWriteAny)
	canEditActivities := internalmiddleware.RequireTeacherScope(models.CapActivityWriteOwn, models.CapActivityWriteAny)
	audit := func(action string) gin.HandlerFunc { return internalmiddleware.Audit(logr, action) }

	teachers := secured.Group("/teachers/:teacherId")
	teachers.GET("/assignments", canRead, catalogHandler.ListAssignments)
	teachers.GET("/activities", canRead, catalogHandler.ListActivities)
	teachers.POST("/activities", canEditActivities, audit("activity.create"), catalogHandler.CreateActivity)
	teachers.DELETE("/activities/:activityId", canEditActivities, audit("activity.archive"), catalogHandler.ArchiveActivity)

	schedule := teachers.Group("/schedule")
	schedule.GET("", canRead, scheduleHandler.View)
	schedule.GET("/export", canRead, scheduleHandler.Export)
	schedule.PUT("/cells", canWrite, audit("schedule.cell.write"), scheduleHandler.SetCell)
	schedule.DELETE("/cells", canWrite, audit("schedule.cell.clear"), scheduleHandler.ClearCell)
	schedule.POST("/save", canWrite, audit("schedule.save"), scheduleHandler.Save)
	schedule.POST("/discard", canWrite, audit("schedule.discard"), scheduleHandler.Discard)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
