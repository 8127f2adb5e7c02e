package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/ticketera/helpdesk-service/internal/api/http"
	"github.com/ticketera/helpdesk-service/internal/api/http/handlers"
	"github.com/ticketera/helpdesk-service/internal/auth"
	"github.com/ticketera/helpdesk-service/internal/calendar"
	"github.com/ticketera/helpdesk-service/internal/config"
	"github.com/ticketera/helpdesk-service/internal/events"
	"github.com/ticketera/helpdesk-service/internal/lifecycle"
	"github.com/ticketera/helpdesk-service/internal/observability"
	"github.com/ticketera/helpdesk-service/internal/persistence"
	"github.com/ticketera/helpdesk-service/internal/repository"
	"github.com/ticketera/helpdesk-service/internal/service"
	"github.com/ticketera/helpdesk-service/internal/sla"
	"github.com/ticketera/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
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
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("invalid redis configuration", zap.Error(err))
	}
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.Pool
	txManager := persistence.NewTxManager(pool)
	accountRepo := repository.NewAccountRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)
	kanbanRepo := repository.NewKanbanRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	evaluationRepo := repository.NewEvaluationRepository(pool)

	clock, err := sla.NewClock(cfg.SLA)
	if err != nil {
		logger.Fatal("invalid sla configuration", zap.Error(err))
	}

	var calendarClient calendar.Client = calendar.Disabled{}
	if cfg.Calendar.Enabled() {
		graph, err := calendar.NewGraphClient(cfg.Calendar, logger, metrics)
		if err != nil {
			logger.Fatal("failed to init calendar client", zap.Error(err))
		}
		calendarClient = graph
	} else {
		logger.Warn("microsoft graph credentials missing; meeting scheduling disabled")
	}

	dispatcher := events.NewInMemoryDispatcher()
	streamPublisher := events.NewStreamPublisher(redis.Client, cfg.Events.RedisStream, cfg.Events.StreamMaxLen)
	worker.StartNotifications(dispatcher, logger, streamPublisher.Handle)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.RefreshTokenTTLHours)
	authService := service.NewAuthService(service.AuthDependencies{
		AccountRepo:  accountRepo,
		TokenManager: tokenManager,
	})
	referenceService := service.NewReferenceService(service.ReferenceDependencies{
		RoleRepo:     roleRepo,
		CategoryRepo: categoryRepo,
	})
	employeeService := service.NewEmployeeService(service.EmployeeDependencies{
		AccountRepo:  accountRepo,
		EmployeeRepo: employeeRepo,
		RoleRepo:     roleRepo,
		Tx:           txManager,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CategoryRepo:   categoryRepo,
		EmployeeRepo:   employeeRepo,
		MeetingRepo:    meetingRepo,
		KanbanRepo:     kanbanRepo,
		HistoryRepo:    historyRepo,
		Tx:             txManager,
		Lifecycle:      lifecycle.NewManager(time.Now),
		Calendar:       calendarClient,
		Clock:          clock,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		SupportAddress: cfg.Calendar.SupportAddress,
	})
	collaborationService := service.NewCollaborationService(service.CollaborationDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		EvaluationRepo: evaluationRepo,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	kanbanService := service.NewKanbanService(ticketRepo, kanbanRepo, txManager)
	reportService := service.NewReportService(ticketRepo, clock)
	slaService := service.NewSLAService(service.SLADependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		BatchSize:  cfg.SLA.SweepBatchSize,
	})

	slaWorker, err := worker.NewSLAWorker(cfg.SLA.SweepSchedule, slaService, logger)
	if err != nil {
		logger.Fatal("failed to schedule sla sweeper", zap.Error(err))
	}
	slaWorker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		BodyLimit:             4 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Reference:      handlers.NewReferenceHandler(referenceService, employeeService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Collaboration:  handlers.NewCollaborationHandler(collaborationService),
		Kanban:         handlers.NewKanbanHandler(kanbanService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), accountRepo, employeeRepo),
		Gatherer:       registry,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-slaWorker.Stop().Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
