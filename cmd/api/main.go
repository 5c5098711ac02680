package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/vinotel/cellar-service/internal/api/http"
	"github.com/vinotel/cellar-service/internal/api/http/handlers"
	"github.com/vinotel/cellar-service/internal/auth"
	"github.com/vinotel/cellar-service/internal/config"
	"github.com/vinotel/cellar-service/internal/events"
	"github.com/vinotel/cellar-service/internal/observability"
	"github.com/vinotel/cellar-service/internal/persistence"
	"github.com/vinotel/cellar-service/internal/repository"
	"github.com/vinotel/cellar-service/internal/service"
	"github.com/vinotel/cellar-service/internal/worker"
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

	// No keypair, no tokens: a broken keystore aborts startup.
	keys, err := auth.LoadKeyPair(cfg.Keystore)
	if err != nil {
		logger.Fatal("failed to load signing keypair", zap.Error(err))
	}

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
	employeeRepo := repository.NewEmployeeRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	refreshRepo := repository.NewRefreshTokenRepository(pool)
	readingRepo := repository.NewSensorReadingRepository(pool)

	// Employee provider goes first: on identifier collisions the employee
	// store wins.
	resolver := auth.NewResolver(
		auth.NewEmployeeProvider(employeeRepo),
		auth.NewCustomerProvider(customerRepo),
	)
	codec := auth.NewTokenCodec(keys)
	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Resolver:         resolver,
		CustomerRepo:     customerRepo,
		RefreshTokenRepo: refreshRepo,
		Codec:            codec,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	sensorService := service.NewSensorService(readingRepo, redis, dispatcher, logger)
	employeeService := service.NewEmployeeService(employeeRepo, cfg.Auth.BcryptCost)
	customerService := service.NewCustomerService(customerRepo, cfg.Auth.BcryptCost)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification, cfg.Alerts)
	notificationService.RegisterHandlers()

	sweeper := worker.NewSweeper(cfg.Auth.SweepInterval(), authService.SweepExpired, logger)
	sweeper.Start()
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:          handlers.NewAuthHandler(authService),
		Sensors:       handlers.NewSensorHandler(sensorService),
		Employees:     handlers.NewEmployeeHandler(employeeService),
		Customers:     handlers.NewCustomerHandler(customerService),
		Authenticator: auth.NewAuthenticator(codec, resolver),
		Rules:         auth.DefaultRules(),
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
