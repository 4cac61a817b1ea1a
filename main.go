package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"sopdesk/api"
	"sopdesk/config"
	"sopdesk/database"
	"sopdesk/logger"
	"sopdesk/metrics"
	"sopdesk/middleware"
	"sopdesk/repository"
	"sopdesk/services"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("FATAL: [Main] Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to build logger: %v", err)
	}
	defer appLog.Sync()
	mainLog := appLog.With("component", "Main")

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.LogLevel, appLog)
	if err != nil {
		mainLog.Fatal("failed to initialize database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		mainLog.Fatal("failed to migrate database", "error", err)
	}
	mainLog.Info("database migration completed")

	repos := repository.NewSet(db, appLog)
	svc := api.Services{
		SOPs:          services.NewSOPService(repos, appLog, nil),
		Steps:         services.NewStepService(repos, appLog, nil),
		Versions:      services.NewVersionService(repos, appLog, nil),
		LearningPaths: services.NewLearningPathService(repos, appLog, nil),
		Progress:      services.NewProgressService(repos, appLog, nil),
		Categories:    services.NewCategoryService(repos, appLog),
		Tags:          services.NewTagService(repos, appLog),
		Users:         services.NewUserService(repos, services.NewBcryptHasher(bcrypt.DefaultCost), appLog, nil),
	}
	mainLog.Info("services initialized")

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		metrics.RegisterCollectors(prometheus.DefaultRegisterer)
		gatherer = prometheus.DefaultGatherer
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(appLog))
	r.Use(middleware.CORS(cfg.CORS.AllowOrigins))

	api.NewHealthHandler(db, gatherer, appLog).RegisterRoutes(r)
	api.NewAPIHandler(svc, appLog).RegisterRoutes(r)
	mainLog.Info("routes registered")

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		mainLog.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLog.Fatal("server failed", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	mainLog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLog.Error("shutdown error", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
