package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biosecret/todo-auth/config"
	"github.com/biosecret/todo-auth/database"
	"github.com/biosecret/todo-auth/events"
	"github.com/biosecret/todo-auth/handlers"
	"github.com/biosecret/todo-auth/logging"
	"github.com/biosecret/todo-auth/middleware"
	"github.com/biosecret/todo-auth/router"
	"github.com/biosecret/todo-auth/service"
	"github.com/biosecret/todo-auth/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
	httpReadTimeout = 15 * time.Second
	httpIdleTimeout = time.Minute
)

// SetupAndRunApp wires the service from the environment and serves until
// SIGINT or SIGTERM.
func SetupAndRunApp() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.StartPostgreSQL(ctx, cfg.PostgresURI, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.ClosePostgreSQL(db); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()
	store := database.NewStore(db)

	clock := clockwork.NewRealClock()
	sessions, closeSessions, err := newSessionStore(ctx, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer closeSessions()
	manager := session.NewManager(sessions, []byte(cfg.JWTSecret), cfg.SessionTTL, clock)

	broker := events.NewBroker()
	notifier := events.Fanout{broker}
	if cfg.MQTTURL != "" {
		publisher, err := events.NewMQTTPublisher(cfg.MQTTURL, "todo-auth", cfg.MQTTPrefix, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifier = append(notifier, publisher)
		logger.Info("publishing todo events to MQTT", zap.String("prefix", cfg.MQTTPrefix))
	}

	svc, err := service.New(store, manager,
		service.WithNotifier(notifier),
		service.WithLogger(logger.Named("service")),
		service.WithBcryptCost(cfg.BcryptCost),
		service.WithClock(clock),
	)
	if err != nil {
		return err
	}

	h := handlers.New(svc, broker, store, handlers.Config{
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	}, logger.Named("http"))

	app := fiber.New(fiber.Config{
		AppName:               "todo-auth",
		ErrorHandler:          handlers.ErrorHandler(logger),
		ReadTimeout:           httpReadTimeout,
		IdleTimeout:           httpIdleTimeout,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowCredentials: cfg.AllowedOrigins() != "*",
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger.Named("access")))

	config.AddSwaggerRoutes(app, cfg)
	router.SetupRoutes(app, h)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *zap.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis session store")
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close redis client", zap.Error(err))
			}
		}
		return session.NewRedisStore(client, clock), closeFn, nil
	case "memory":
		store := session.NewMemoryStore(clock)
		janitorCtx, cancel := context.WithCancel(ctx)
		go store.RunJanitor(janitorCtx, janitorInterval)
		logger.Info("using in-memory session store")
		return store, cancel, nil
	default:
		return nil, nil, errors.New("unknown session store " + cfg.SessionStore)
	}
}
