package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/sage/config"
	recordrepo "github.com/Ramsey-B/sage/internal/repositories/record"
	sessionrepo "github.com/Ramsey-B/sage/internal/repositories/reviewsession"
	"github.com/Ramsey-B/sage/pkg/cache"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/events"
	"github.com/Ramsey-B/sage/pkg/extraction"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/middleware"
	"github.com/Ramsey-B/sage/pkg/processor"
	"github.com/Ramsey-B/sage/pkg/review"
	extractionroutes "github.com/Ramsey-B/sage/pkg/routes/extraction"
	"github.com/Ramsey-B/sage/pkg/routes/health"
	recordroutes "github.com/Ramsey-B/sage/pkg/routes/record"
	reviewroutes "github.com/Ramsey-B/sage/pkg/routes/review"
	scheduleroutes "github.com/Ramsey-B/sage/pkg/routes/schedule"
	trendroutes "github.com/Ramsey-B/sage/pkg/routes/trend"
	"github.com/Ramsey-B/sage/pkg/startup"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/Ramsey-B/sage/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := initTracing(ctx, cfg)
		if err != nil {
			logger.WithError(err).Error("failed to initialize tracing")
			os.Exit(1)
		}
		defer shutdown()
	}

	// postgres
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)
	sqlxDB, err := sqlx.Open(cfg.DatabaseDriver, dsn)
	if err != nil {
		logger.WithError(err).Error("failed to open database")
		os.Exit(1)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)
	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	// redis
	redisClient := cache.NewClient(cfg, logger)
	recordCache := cache.NewRecordCache(redisClient, cfg.RecordCacheTTL)

	// kafka
	producer := kafka.NewProducer(cfg, logger)
	emitter := events.NewEmitter(producer, cfg.KafkaEventsTopic, logger)

	// extraction provider
	extractor, err := extraction.NewExtractor(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to build extractor")
		os.Exit(1)
	}

	savePolicy, err := review.ParseSavePolicy(cfg.ReviewSavePolicy)
	if err != nil {
		logger.WithError(err).Error("invalid review save policy")
		os.Exit(1)
	}

	records := recordrepo.NewRepository(db, logger)
	sessions := sessionrepo.NewRepository(db, logger)
	reviews := review.NewService(records, sessions, extractor, recordCache, emitter, logger, savePolicy, cfg.ReviewListLimit)
	extractionProcessor := processor.NewExtractionProcessor(reviews, logger)
	consumer := kafka.NewConsumer(cfg, extractionProcessor.HandleMessage, logger)

	if err := registerDependencies(cfg, logger, records, sessions, reviews, emitter, producer, recordCache); err != nil {
		logger.WithError(err).Error("failed to register dependencies")
		os.Exit(1)
	}

	healthChecker := health.NewChecker(db, redisClient, version)

	e := newServer(cfg, logger)
	healthChecker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	recordroutes.Register(api.Group("/records"))
	reviewroutes.Register(api.Group("/reviews"))
	extractionroutes.Register(api.Group("/extractions"))
	trendroutes.Register(api.Group("/trends"))
	scheduleroutes.Register(api.Group("/schedule"))

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&dependency{
		name: "database",
		start: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return migrations.Migrate(cfg.DatabaseName, driver)
		},
		stop: func(ctx context.Context) error { return db.Close() },
	})

	boot.AddDependency(&dependency{
		name:  "redis",
		start: redisClient.Ping,
		stop:  func(ctx context.Context) error { return redisClient.Close() },
	})

	boot.AddDependency(&dependency{
		name:  "kafka-producer",
		start: func(ctx context.Context) error { return nil },
		stop:  func(ctx context.Context) error { return producer.Close() },
	})

	if cfg.KafkaConsumerEnabled {
		boot.AddDependency(&dependency{
			name:      "extraction-consumer",
			dependsOn: []string{"database", "redis", "kafka-producer"},
			start: func(ctx context.Context) error {
				go func() {
					if err := consumer.Run(ctx); err != nil {
						logger.WithError(err).Error("extraction consumer stopped")
					}
				}()
				return nil
			},
			stop: func(ctx context.Context) error { return consumer.Close() },
		})
	}

	boot.AddDependency(&dependency{
		name:      "http-server",
		dependsOn: []string{"database", "redis"},
		start: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("http server stopped")
				}
			}()
			return nil
		},
		stop: func(ctx context.Context) error { return e.Shutdown(ctx) },
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}
	healthChecker.SetReady(true)
	logger.WithField("port", cfg.Port).Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	healthChecker.SetReady(false)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
}

// dependency adapts closures to the startup dependency interface
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string                 { return d.name }
func (d *dependency) DependsOn() []string             { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error  { return d.stop(ctx) }

func newLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		line, err := json.Marshal(msg)
		if err != nil {
			return
		}
		fmt.Println(string(line))
	})
}

func newServer(cfg *config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	return e
}

func initTracing(ctx context.Context, cfg *config.Config) (func(), error) {
	var exporter sdktrace.SpanExporter = &exporters.ConsoleExporter{}
	if cfg.TracingOTLPEndpoint != "" {
		var err error
		exporter, err = exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: true,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}, nil
}

func registerDependencies(
	cfg *config.Config,
	logger ectologger.Logger,
	records *recordrepo.Repository,
	sessions *sessionrepo.Repository,
	reviews *review.Service,
	emitter *events.Emitter,
	producer *kafka.Producer,
	recordCache *cache.RecordCache,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[*config.Config](container, cfg); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*recordrepo.Repository](container, records); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*sessionrepo.Repository](container, sessions); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*review.Service](container, reviews); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*events.Emitter](container, emitter); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*kafka.Producer](container, producer); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*cache.RecordCache](container, recordCache)
}
