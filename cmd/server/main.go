package main // Entry point package

import (
	"context"      // root context cancelled on shutdown signals
	"database/sql" // MySQL handle shared by the repositories
	"errors"       // errors.Is distinguishes a clean server close
	"net/http"     // http.ErrServerClosed
	"os"           // os.Interrupt
	"os/signal"    // signal.NotifyContext for graceful shutdown
	"syscall"      // SIGTERM from container runtimes
	"time"         // shutdown deadline

	"github.com/labstack/echo/v4"                   // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo's recover, request id and request logger
	"github.com/labstack/gommon/log"                // structured application logging

	"github.com/iliyamo/resource-reservation/internal/config"            // environment configuration
	"github.com/iliyamo/resource-reservation/internal/database"          // MySQL connection and schema
	"github.com/iliyamo/resource-reservation/internal/handler"           // HTTP handlers
	"github.com/iliyamo/resource-reservation/internal/queue"             // booking event consumer
	"github.com/iliyamo/resource-reservation/internal/repository"        // MySQL and in-memory stores
	"github.com/iliyamo/resource-reservation/internal/reservation"       // reservation engine
	"github.com/iliyamo/resource-reservation/internal/router"            // route table
	"github.com/iliyamo/resource-reservation/internal/scheduler"         // completion sweeper
	publisher "github.com/iliyamo/resource-reservation/internal/service" // event notifiers
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger("resv", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store selection.  MySQL is the production store; memory is for demos
	// and local development and loses everything on restart.
	var (
		db        *sql.DB
		bookings  reservation.BookingStore
		resources reservation.ResourceStore
	)
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		var err error
		db, err = database.Open(database.Options{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			logger.Fatalf("connect mysql: %v", err)
		}
		defer db.Close()
		if cfg.AutoMigrate {
			if err := database.EnsureSchema(ctx, db); err != nil {
				logger.Fatalf("migrate schema: %v", err)
			}
		}
		bookings = repository.NewBookingRepo(db)
		resources = repository.NewResourceRepo(db)
	default:
		mem := repository.NewMemoryStore()
		bookings, resources = mem, mem
		logger.Warnj(log.JSON{"msg": "using in-memory store; data is lost on restart"})
	}

	catalog := reservation.DefaultCatalog()
	if len(cfg.SlotLabels) > 0 {
		c, err := reservation.NewCatalog(cfg.SlotLabels)
		if err != nil {
			logger.Fatalf("invalid SLOT_LABELS: %v", err)
		}
		catalog = c
	}

	// Lifecycle events go to RabbitMQ when a broker is configured and
	// straight to the booking log otherwise.
	var notifier reservation.Notifier
	if cfg.AMQPURL != "" {
		notifier = publisher.NewPublisher(cfg.AMQPURL, logger)
		consumer := &queue.Consumer{URL: cfg.AMQPURL, Dir: cfg.BookingLogDir, Logger: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorj(log.JSON{"msg": "booking event consumer stopped", "error": err.Error()})
			}
		}()
	} else {
		notifier = publisher.NewFileNotifier(cfg.BookingLogDir)
	}

	engine := reservation.NewEngine(reservation.Deps{
		Catalog:   catalog,
		Bookings:  bookings,
		Resources: resources,
		Notifier:  notifier,
		Logger:    logger,
		Location:  cfg.Location,
	})

	if cfg.SweepInterval > 0 {
		go scheduler.New(engine, cfg.SweepInterval, logger).Start(ctx)
	}

	rdb := config.NewRedisClient(logger)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := log.JSON{
				"msg":        "request",
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				fields["error"] = v.Error.Error()
				logger.Errorj(fields)
				return nil
			}
			logger.Infoj(fields)
			return nil
		},
	}))

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	router.Register(e, router.Deps{
		Bookings:  handler.NewBookingHandler(engine),
		Resources: handler.NewResourceHandler(engine),
		Health:    handler.Health(pinger),
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
	})

	addr := ":" + cfg.Port
	logger.Infoj(log.JSON{"msg": "listening", "addr": addr, "env": cfg.Env, "store": cfg.StoreDriver, "today": engine.Today()})
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorj(log.JSON{"msg": "shutdown", "error": err.Error()})
	}
}
