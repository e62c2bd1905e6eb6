package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"user-registry-api/config"
	"user-registry-api/internal/application/ports"
	"user-registry-api/internal/application/services"
	"user-registry-api/internal/infrastructure/db/postgres"
	"user-registry-api/internal/infrastructure/db/postgres/user"
	"user-registry-api/internal/infrastructure/disk"
	"user-registry-api/internal/infrastructure/logger"
	"user-registry-api/internal/infrastructure/metrics"
	"user-registry-api/internal/infrastructure/minio"
	"user-registry-api/internal/infrastructure/mq"
	"user-registry-api/internal/infrastructure/s3"
	"user-registry-api/internal/interface/api/rest"
	"user-registry-api/internal/interface/api/rest/middleware"
)

const (
	envFile         = ".env"
	shutdownTimeout = 5 * time.Second
	// headroom for the text fields next to the picture
	maxMultipartMemory = services.MaxUploadSize + 1<<20
)

type App struct {
	logger   *zap.Logger
	cfg      config.Config
	db       *pgxpool.Pool
	storage  ports.FileStorage
	httpSrv  *http.Server
	router   *gin.Engine
	mCounter *prometheus.CounterVec
	mq       *mq.RabbitMQ
	events   ports.EventPublisher
}

func NewApp(ctx context.Context) (*App, error) {
	// config
	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// logger
	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}

	// metrics
	mCounter := metrics.NewCounter()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogGin(logger, mCounter))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(cfg.App.CORSOrigins))
	r.Use(middleware.BodyLimit(cfg.App.MaxBodyBytes))

	// httpServer
	httpSrv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		logger.Fatal("DB config error", zap.Error(err))
	}
	if err = postgres.Migrate(logger, dbDsn); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// file storage
	storage, err := newStorage(ctx, logger, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file storage", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}

	// rabbitMQ
	app := &App{
		logger:   logger,
		cfg:      cfg,
		db:       dbPool,
		storage:  storage,
		httpSrv:  httpSrv,
		router:   r,
		mCounter: mCounter,
		events:   mq.NopPublisher{},
	}
	if !cfg.MQEnabled() {
		logger.Info("rabbitmq not configured, lifecycle events are dropped")
		return app, nil
	}

	rabbitDsn, err := cfg.AMQPDSN()
	if err != nil {
		logger.Fatal("RabbitMQ config error", zap.Error(err))
	}
	rbMQ := mq.New(cfg.MQ, logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		logger.Fatal("failed to connect to rabbitMQ", zap.Error(err))
	}
	if err = rbMQ.Init(); err != nil {
		logger.Fatal("failed init rabbitMQ", zap.Error(err))
	}
	app.mq = rbMQ
	app.events = rbMQ

	return app, nil
}

func newStorage(ctx context.Context, logger *zap.Logger, cfg config.Storage) (ports.FileStorage, error) {
	var (
		storage ports.FileStorage
		err     error
	)
	switch cfg.Driver {
	case config.StorageS3:
		var c *s3.Client
		if c, err = s3.New(ctx, logger, cfg.S3); err == nil {
			storage = c
		}
	case config.StorageMinio:
		var m *minio.Storage
		if m, err = minio.New(ctx, logger, cfg.Minio); err == nil {
			storage = m
		}
	case config.StorageLocal:
		var d *disk.Storage
		if d, err = disk.New(cfg.UploadDir); err == nil {
			storage = d
		}
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	return storage, err
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			a.logger.Warn("rabbitmq close", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run serves HTTP until an OS signal arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
		return err
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos
	userRepo := user.NewRepository(a.db)

	// services
	uploadService := services.NewUploadService(a.storage, a.mCounter)
	userService := services.NewUserService(userRepo, uploadService, a.events, a.logger, a.mCounter)

	// controllers
	rest.NewUserController(a.router, userService, uploadService, a.logger)

	// uploaded pictures
	if d, ok := a.storage.(*disk.Storage); ok {
		a.router.Static(rest.RouteUploads, d.Dir())
	} else {
		rest.NewUploadsController(a.router, a.storage, a.logger)
	}

	// ops
	a.router.GET(rest.RouteHealth, a.healthHandler)
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
	a.router.NoRoute(rest.NotFoundHandler)
}

func (a *App) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.Warn("health check: db ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) Logger() *zap.Logger { return a.logger }
