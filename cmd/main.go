package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/cofre-digital/config"
	"github.com/oksasatya/cofre-digital/internal/application"
	"github.com/oksasatya/cofre-digital/internal/container"
	"github.com/oksasatya/cofre-digital/internal/infrastructure/objectstore"
	"github.com/oksasatya/cofre-digital/internal/infrastructure/payment"
	pginfra "github.com/oksasatya/cofre-digital/internal/infrastructure/postgres"
	"github.com/oksasatya/cofre-digital/internal/interface/middleware"
	"github.com/oksasatya/cofre-digital/internal/router"
	"github.com/oksasatya/cofre-digital/pkg/helpers"
	"github.com/oksasatya/cofre-digital/pkg/telemetry"
	"github.com/oksasatya/cofre-digital/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	if err := cfg.ValidateSecrets(); err != nil {
		if cfg.Env == "production" {
			logger.WithError(err).Fatal("refusing to start with insecure signing secrets")
		}
		logger.WithError(err).Warn("insecure signing secrets; acceptable for local development only")
	}

	if err := telemetry.InitSentry(cfg.SentryDSN, cfg.AppName, cfg.Env, cfg.Release); err != nil {
		logger.WithError(err).Warn("sentry init failed; continuing without error tracking")
	}
	defer telemetry.Flush()

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	// Postgres, unless running on the in-memory store
	if !strings.EqualFold(cfg.StoreDriver, "memory") {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		container.SetPGPool(pool)
	} else {
		logger.Warn("STORE_DRIVER=memory; data is lost on restart")
	}

	// Redis backs rate limits and session revocation
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unavailable; rate limits and revocation disabled")
			_ = rdb.Close()
		} else {
			defer func() { _ = rdb.Close() }()
			container.SetRedis(rdb)
		}
	}

	// Object store
	store, closeStore, err := buildObjectStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to init object store: %v", err)
	}
	defer closeStore()
	if store != nil {
		container.SetObjectStore(store)
	} else {
		logger.Warn("object store not configured; uploads will fail")
	}

	// Payment gateway
	if cfg.StripeSecretKey != "" {
		container.SetGateway(payment.NewStripeGateway(cfg.StripeSecretKey, helpers.Deadline(cfg.GatewayTimeout)))
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set; billing endpoints will answer 500")
	}

	// Email queue
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.AppName)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; emails will not be queued")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	// Tokens and cookies
	container.SetJWT(helpers.NewJWTManager(cfg.IdentitySecret, cfg.SessionSecret, cfg.IDTokenTTL, cfg.SessionTTL))
	container.SetCookies(helpers.NewCookie(cfg.CookieName, cfg.CookieDomain, cfg.CookieSecure))

	deps := router.BuildDeps()

	// Gin engine and global middleware
	r := gin.New()
	r.Use(telemetry.Recovery(cfg.AppName))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	if cfg.MetricsEnabled {
		r.Use(telemetry.GinMiddleware())
	}
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) > 0 {
		r.Use(cors.New(corsCfg))
	}
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(middleware.AccessLog(logger))
	}
	r.Use(middleware.PageGuard(deps.Auth, container.GetCookies(), cfg.GuardPrefixes(), cfg.LoginPath))

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg, deps)
	reg.RegisterAll()
	router.MountStatic(r, cfg.WebDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

// buildObjectStore returns nil when the selected driver has no bucket.
func buildObjectStore(ctx context.Context, cfg *config.Config) (application.ObjectStore, func(), error) {
	noop := func() {}
	dl := helpers.Deadline(cfg.StoreTimeout * 6)
	switch strings.ToLower(cfg.ObjectStoreDriver) {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, noop, nil
		}
		s, err := objectstore.NewS3(ctx, objectstore.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		}, dl)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "gcs", "":
		if cfg.GCSBucket == "" {
			return nil, noop, nil
		}
		client, err := objectstore.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, noop, err
		}
		return objectstore.NewGCS(client, cfg.GCSBucket, dl), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown OBJECT_STORE_DRIVER %q", cfg.ObjectStoreDriver)
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
