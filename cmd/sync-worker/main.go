package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/uniead-br/sigaa-sync/internal/handler"
	"github.com/uniead-br/sigaa-sync/internal/middleware"
	"github.com/uniead-br/sigaa-sync/internal/repository"
	"github.com/uniead-br/sigaa-sync/internal/service"
	"github.com/uniead-br/sigaa-sync/internal/sigaa"
	"github.com/uniead-br/sigaa-sync/pkg/cache"
	"github.com/uniead-br/sigaa-sync/pkg/config"
	"github.com/uniead-br/sigaa-sync/pkg/database"
	"github.com/uniead-br/sigaa-sync/pkg/jobs"
	"github.com/uniead-br/sigaa-sync/pkg/lock"
	"github.com/uniead-br/sigaa-sync/pkg/logger"
	corsmiddleware "github.com/uniead-br/sigaa-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/uniead-br/sigaa-sync/pkg/middleware/requestid"
	"github.com/uniead-br/sigaa-sync/pkg/strutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// Repositories and domain services.
	categories := repository.NewCategoryRepository(db)
	courses := repository.NewCourseRepository(db, cfg.Sync.TermFieldName, cfg.Sync.MetadataFieldName)
	users := repository.NewUserRepository(db, cfg.Sync.CPFFieldName)
	enrollments := repository.NewEnrollmentRepository(db)

	sigaaClient := sigaa.NewClient(cfg.SIGAA.BaseURL, cfg.SIGAA.ClientID, cfg.SIGAA.ClientSecret, cfg.SIGAA.Timeout)
	titles := strutil.NewBrazilianTitleCaser(cfg.Naming.LowercaseWords, cfg.Naming.UppercaseAcronyms)

	resolver := service.NewCategoryResolver(categories, titles, cfg.Sync.BaseCategoryID, cfg.Sync.ArchiveCategoryName, logr)
	courseSync := service.NewCourseSyncService(sigaaClient, courses, resolver, users, enrollments, titles,
		service.CourseSyncConfig{TeacherRoleID: cfg.Sync.TeacherRoleID, RequireTeacher: cfg.Sync.RequireTeacher}, logr)
	enrollmentSync := service.NewEnrollmentSyncService(sigaaClient, courses, users, enrollments, cfg.Sync.StudentRoleID, logr)
	archive := service.NewArchiveService(courses, resolver, cfg.Sync.ArchivePageSize, logr)

	metricsSvc := service.NewMetricsService()
	termLock := lock.New(redisClient, cfg.Sync.RunLockTTL)
	runner := service.NewSyncRunner(courseSync, enrollmentSync, archive, termLock, metricsSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue := jobs.NewQueue("integration", runner.Handle, jobs.QueueConfig{
		Workers: cfg.Sync.Workers,
		Logger:  logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	integration := handler.NewIntegrationHandler(queue, validator.New(), logr)
	api := r.Group(cfg.APIPrefix + "/integration")
	api.Use(middleware.Auth(cfg.Auth.JWTSecret))
	api.POST("/courses", integration.SyncCourses)
	api.POST("/enrollments", integration.SyncEnrollments)
	api.POST("/archive", integration.ArchiveCourses)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
