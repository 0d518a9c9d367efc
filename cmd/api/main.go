package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/skraps68/planner-sub000/internal/alloclock"
	"github.com/skraps68/planner-sub000/internal/config"
	"github.com/skraps68/planner-sub000/internal/handler"
	"github.com/skraps68/planner-sub000/internal/httpserver"
	"github.com/skraps68/planner-sub000/internal/mq"
	"github.com/skraps68/planner-sub000/internal/repository"
	"github.com/skraps68/planner-sub000/internal/service"
	"github.com/skraps68/planner-sub000/pkg/db"
	"github.com/skraps68/planner-sub000/pkg/logger"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed", zap.Error(err))
	}

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb := alloclock.NewClient(cfg.Redis)
	defer rdb.Close()
	locker := alloclock.NewLocker(rdb, 5*time.Second, log)

	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ initialization failed", zap.Error(err))
	}
	defer producer.Close()

	// Repositories
	projectRepo := repository.NewProjectRepository(dbConn, log)
	phaseRepo := repository.NewPhaseRepository(dbConn, log)
	assignmentRepo := repository.NewAssignmentRepository(dbConn)
	actualRepo := repository.NewActualRepository(dbConn)
	rateRepo := repository.NewRateRepository(dbConn, log)
	resourceRepo := repository.NewResourceRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	projectService := service.NewProjectService(projectRepo, phaseRepo, producer, log)
	phaseService := service.NewPhaseService(projectRepo, phaseRepo, assignmentRepo, producer, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, resourceRepo, projectRepo, locker, producer, log)
	actualService := service.NewActualService(actualRepo, projectRepo, locker, producer, log)
	rateService := service.NewRateService(rateRepo, log)
	forecastService := service.NewForecastService(projectRepo, phaseRepo, assignmentRepo, actualRepo, resourceRepo, rateRepo, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	phaseHandler := handler.NewPhaseHandler(phaseService, log)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, log)
	actualHandler := handler.NewActualHandler(actualService, log)
	rateHandler := handler.NewRateHandler(rateService, log)
	reportHandler := handler.NewReportHandler(forecastService, log)

	router := httpserver.NewRouter(
		authHandler,
		projectHandler,
		phaseHandler,
		assignmentHandler,
		actualHandler,
		rateHandler,
		reportHandler,
		cfg.JWT.Secret,
	)

	log.Info("Starting API server", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("Server start failed", zap.Error(err))
	}
}
