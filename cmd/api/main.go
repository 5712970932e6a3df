package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/pointage-hr/pointage-api/api/swagger"
	"github.com/pointage-hr/pointage-api/internal/handler"
	"github.com/pointage-hr/pointage-api/internal/middleware"
	"github.com/pointage-hr/pointage-api/internal/repository"
	"github.com/pointage-hr/pointage-api/internal/service"
	"github.com/pointage-hr/pointage-api/pkg/cache"
	"github.com/pointage-hr/pointage-api/pkg/config"
	"github.com/pointage-hr/pointage-api/pkg/logger"
	corsmiddleware "github.com/pointage-hr/pointage-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pointage-hr/pointage-api/pkg/middleware/requestid"
	"github.com/pointage-hr/pointage-api/pkg/storage"
)

// @title Pointage API
// @version 1.0.0
// @description Employee time and attendance tracking
// @BasePath /api/v1
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

	db, err := connectDatabase(cfg)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, responses will not be cached", "error", err)
		redisClient = nil
	}
	store := cache.NewStore(redisClient)

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("report storage init failed", "error", err)
	}

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	departureRepo := repository.NewDepartureRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "pointage-api",
	})
	employeeSvc := service.NewEmployeeService(employeeRepo, companyRepo, nil, logr)
	windows := service.NewTimeWindowPolicy(cfg.Attendance)
	metricsSvc := service.NewMetricsService()
	attendanceSvc := service.NewAttendanceService(attendanceRepo, employeeRepo, leaveRepo, windows, store, cfg.Summary.CacheTTL, metricsSvc, nil, logr)
	departureSvc := service.NewDepartureService(departureRepo, employeeRepo, windows, store, cfg.Departures.SingleOpen, nil, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, employeeRepo, store, cfg.Leave.CountWeekends, nil, logr)
	reportSvc := service.NewReportService(attendanceSvc, departureSvc, employeeRepo, reportStore, cfg.Reports.WorkerConcurrency, cfg.Reports.WorkerRetries, nil, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reportSvc.Start(ctx)
	defer reportSvc.Stop()

	go cleanupReports(ctx, reportStore, cfg.Reports, logr)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static(cfg.Signatures.BaseURL, cfg.Signatures.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.RegisterRoutes(api, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Employee:   handler.NewEmployeeHandler(employeeSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Departure:  handler.NewDepartureHandler(departureSvc),
		Leave:      handler.NewLeaveHandler(leaveSvc),
		Report:     handler.NewReportHandler(reportSvc),
	}, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func connectDatabase(cfg *config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Name, cfg.Database.SSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	return db, nil
}

// cleanupReports removes generated files past their TTL on a fixed interval.
func cleanupReports(ctx context.Context, store *storage.LocalStorage, cfg config.ReportsConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.CleanupOlderThan(cfg.FileTTL)
			if err != nil {
				logr.Warn("report cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				logr.Info("expired reports removed", zap.Int("count", len(deleted)))
			}
		}
	}
}
