package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/cityworks/incident-service/internal/api/http"
	"github.com/cityworks/incident-service/internal/api/http/handlers"
	"github.com/cityworks/incident-service/internal/auth"
	"github.com/cityworks/incident-service/internal/config"
	"github.com/cityworks/incident-service/internal/events"
	"github.com/cityworks/incident-service/internal/observability"
	"github.com/cityworks/incident-service/internal/persistence"
	"github.com/cityworks/incident-service/internal/repository"
	"github.com/cityworks/incident-service/internal/service"
	"github.com/cityworks/incident-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	incidentRepo := repository.NewIncidentRepository(pool)
	statusChangeRepo := repository.NewStatusChangeRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	photoRepo := repository.NewPhotoRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		AgentRepo:         agentRepo,
		PasswordResetRepo: resetRepo,
	})
	incidentService := service.NewIncidentService(service.IncidentDependencies{
		IncidentRepo:     incidentRepo,
		StatusChangeRepo: statusChangeRepo,
		CommentRepo:      commentRepo,
		PhotoRepo:        photoRepo,
		CategoryRepo:     categoryRepo,
		AgentRepo:        agentRepo,
		Dispatcher:       dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		IncidentRepo:     incidentRepo,
		StatusChangeRepo: statusChangeRepo,
		AgentRepo:        agentRepo,
		Dispatcher:       dispatcher,
	})
	adminService := service.NewAdminService(*cfg, service.AdminDependencies{
		AgentRepo:    agentRepo,
		CategoryRepo: categoryRepo,
		UserRepo:     userRepo,
	})
	statsService := service.NewStatsService(cfg.Stats, incidentRepo, redis.Client, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, agentRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Agents:         handlers.NewAgentsHandler(authService),
		Incidents:      handlers.NewIncidentsHandler(incidentService, adminService),
		AgentIncidents: handlers.NewAgentIncidentsHandler(incidentService, assignmentService, statsService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
