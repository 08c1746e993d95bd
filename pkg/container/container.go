package container

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jordanlanch/fieldsales/config"
	apierrors "github.com/jordanlanch/fieldsales/pkg/api/errors"
	"github.com/jordanlanch/fieldsales/pkg/api/handlers"
	"github.com/jordanlanch/fieldsales/pkg/assignment"
	"github.com/jordanlanch/fieldsales/pkg/auth"
	"github.com/jordanlanch/fieldsales/pkg/cache"
	"github.com/jordanlanch/fieldsales/pkg/database"
	"github.com/jordanlanch/fieldsales/pkg/importer"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/metrics"
	custommiddleware "github.com/jordanlanch/fieldsales/pkg/middleware"
	"github.com/jordanlanch/fieldsales/pkg/outlet"
	"github.com/jordanlanch/fieldsales/pkg/ownership"
	"github.com/jordanlanch/fieldsales/pkg/phone"
	"github.com/jordanlanch/fieldsales/pkg/reference"
	"github.com/jordanlanch/fieldsales/pkg/salesrep"
	"github.com/jordanlanch/fieldsales/pkg/secrets"
	"github.com/jordanlanch/fieldsales/pkg/storage"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// Infrastructure
	DB    *database.Client
	Redis *cache.Client
	Cache *cache.Cache

	// Services
	Outlets     *outlet.Service
	Assignments *assignment.Service
	Gate        *ownership.Gate
	SalesReps   *salesrep.Service
	References  *reference.Service
	Importer    *importer.Service
	Phones      *phone.Validator
	ImportFiles *storage.S3Source

	// Auth
	TokenBlacklist *auth.TokenBlacklist

	// Handlers
	AuthHandler        *handlers.AuthHandler
	OutletHandler      *handlers.OutletHandler
	AdminOutletHandler *handlers.AdminOutletHandler
	AssignmentHandler  *handlers.AssignmentHandler
	SalesRepHandler    *handlers.SalesRepHandler
	ReferenceHandler   *handlers.ReferenceHandler
	HealthHandler      *handlers.HealthHandler

	limiters []*custommiddleware.RateLimiter
}

// LoadConfig reads the environment and resolves sensitive settings from
// the configured secrets backend
func LoadConfig(ctx context.Context) (*config.Config, error) {
	cfg := config.Load()

	m, err := secrets.NewManager(secrets.Config{
		Backend:   cfg.SecretsBackend,
		AWSRegion: cfg.AWSRegion,
		Prefix:    cfg.SecretsPrefix,
	})
	if err != nil {
		return nil, err
	}
	if err := secrets.Apply(ctx, m, cfg); err != nil {
		return nil, fmt.Errorf("failed to resolve secrets: %w", err)
	}
	return cfg, nil
}

// New connects to the database and cache named in cfg and wires everything
func New(cfg *config.Config, reg prometheus.Registerer) (*Container, error) {
	log := logger.New(cfg.LogLevel)

	db, err := database.NewClientWithPoolAndSSL(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: database.DefaultPoolConfig().ConnMaxLifetime,
		ConnMaxIdleTime: database.DefaultPoolConfig().ConnMaxIdleTime,
	}, &database.SSLConfig{
		Mode:         cfg.DBSSLMode,
		CertPath:     cfg.DBSSLCertPath,
		KeyPath:      cfg.DBSSLKeyPath,
		RootCertPath: cfg.DBSSLRootCertPath,
	})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return nil, err
	}

	if cfg.DBAutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}

	// The cache is optional: without Redis every read goes to the database
	redis, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Warn("Cache unavailable, continuing without it", "error", err)
		redis, err = cache.Open(cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return NewWithClients(cfg, log, db, redis, reg)
}

// NewWithClients wires services and handlers over already-open clients
func NewWithClients(cfg *config.Config, log logger.Logger, db *database.Client, redis *cache.Client, reg prometheus.Registerer) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(reg),
		DB:      db,
		Redis:   redis,
	}
	c.Cache = cache.New(redis, log, c.Metrics)
	apierrors.SetLogger(log.With("component", "api"))

	if err := c.initServices(); err != nil {
		return nil, err
	}
	c.initHandlers()

	c.Logger.Info("Container initialized successfully",
		"environment", cfg.APIEnvironment,
		"database", db.Dialect(),
		"s3_import", c.ImportFiles != nil)

	return c, nil
}

// initServices initializes all domain services
func (c *Container) initServices() error {
	cfg := c.Config

	c.Outlets = outlet.NewService(c.DB, c.Cache, c.Logger, outlet.Config{
		RecordTTL: cfg.CacheRecordTTL,
		ListTTL:   cfg.CacheListTTL,
	})
	c.Assignments = assignment.NewService(c.DB, c.Cache, c.Logger, c.Metrics)
	c.SalesReps = salesrep.NewService(c.DB, c.Cache, c.Logger, cfg.CacheListTTL)
	c.Gate = ownership.NewGate(c.Assignments, c.Outlets, c.SalesReps, c.Logger)
	c.References = reference.NewService(c.DB, c.Cache, c.Logger, cfg.CacheReferenceTTL)
	c.Phones = phone.NewValidator(cfg.PhoneDefaultRegion)
	c.Importer = importer.NewService(c.Outlets, c.Phones, c.Logger, importer.Config{
		BatchSize: cfg.ImportBatchSize,
		MaxErrors: cfg.ImportMaxErrors,
	}, c.Metrics)

	if cfg.ImportS3Bucket != "" {
		src, err := storage.NewS3Source(context.Background(), storage.Config{
			AWSAccessKeyID:     cfg.AWSAccessKeyID,
			AWSSecretAccessKey: cfg.AWSSecretAccessKey,
			AWSRegion:          cfg.AWSRegion,
			Bucket:             cfg.ImportS3Bucket,
		}, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to configure S3 import source: %w", err)
		}
		c.ImportFiles = src
	}

	c.TokenBlacklist = auth.NewTokenBlacklist(c.Redis)

	c.Logger.Info("Services initialized")
	return nil
}

// initHandlers initializes all HTTP handlers
func (c *Container) initHandlers() {
	c.AuthHandler = handlers.NewAuthHandler(c.SalesReps, c.TokenBlacklist, handlers.AuthConfig{
		JWTSecret:          c.Config.JWTSecret,
		JWTExpirationHours: c.Config.JWTExpirationHours,
	}, c.Metrics)
	c.OutletHandler = handlers.NewOutletHandler(c.Outlets, c.Gate)

	// a typed nil would defeat the handler's nil check
	var source handlers.ObjectSource
	if c.ImportFiles != nil {
		source = c.ImportFiles
	}
	c.AdminOutletHandler = handlers.NewAdminOutletHandler(c.Outlets, c.Importer, source, c.Phones)

	c.AssignmentHandler = handlers.NewAssignmentHandler(c.Assignments)
	c.SalesRepHandler = handlers.NewSalesRepHandler(c.SalesReps)
	c.ReferenceHandler = handlers.NewReferenceHandler(c.References)
	c.HealthHandler = handlers.NewHealthHandler(c.DB, c.Redis)

	c.Logger.Info("Handlers initialized")
}

// Close stops background work and closes connections
func (c *Container) Close() error {
	c.Logger.Info("Shutting down container...")

	for _, l := range c.limiters {
		l.Stop()
	}

	if err := c.DB.Close(); err != nil {
		c.Logger.Error("Failed to close database", "error", err)
		return err
	}

	if err := c.Redis.Close(); err != nil {
		c.Logger.Error("Failed to close cache", "error", err)
		return err
	}

	c.Logger.Info("Container shutdown complete")
	return nil
}
