package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/sync/errgroup"

	"storefront/docs"
	"storefront/internal/caching"
	"storefront/internal/common"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/jobs"
	"storefront/internal/jobs/background"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Image storage is optional; without it the upload endpoint answers 503.
	var minioSvc services.MinioService
	var storagePinger handlers.Pinger
	if cfg.StorageEnabled() {
		minioSvc, err = services.NewMinioService(services.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize MinIO service")
		}
		if err := minioSvc.EnsureBucketExists(ctx); err != nil {
			log.Warn().Err(err).Str("bucket", cfg.MinioBucket).Msg("could not verify image bucket")
		}
		storagePinger = minioSvc
	}

	// Create repositories
	repos := repositories.NewRepositories(pool)
	transactor := repositories.NewTransactor(pool)

	// Create services
	invalidator := services.NewCacheInvalidationService(repos.Products, cacheSvc)
	productSvc := services.NewProductService(repos.Products, cacheSvc, invalidator, minioSvc, cfg.CatalogCacheTTL)
	orderSvc := services.NewOrderService(repos, transactor, invalidator)

	// Create handlers
	productHandlers := handlers.NewProductHandlers(productSvc)
	orderHandlers := handlers.NewOrderHandlers(orderSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storagePinger, version)

	jwtAuth, stopJWKS, err := middleware.JWTAuth(middleware.JWTConfig{Secret: cfg.JWTSecret, JWKSURL: cfg.JWKSURL})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure JWT authentication")
	}
	defer stopJWKS()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = common.NewRequestValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	// Global middleware
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echoMiddleware.CORS())
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.VersionHeader(version))

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	docs.SwaggerInfo.Version = version
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	catalog := api.Group("/products")
	if cfg.HTTPCacheEnabled {
		catalog.Use(middleware.HTTPCache(cacheSvc, cfg.HTTPCacheTTL))
	}
	catalog.GET("", productHandlers.ListProducts)
	catalog.GET("/:id", productHandlers.GetProduct)
	catalog.PUT("/:id", productHandlers.UpdateProduct, jwtAuth)
	catalog.PUT("/:id/image", productHandlers.UploadProductImage, jwtAuth)

	api.GET("/orders", orderHandlers.ListOrders)
	api.POST("/orders", orderHandlers.CreateOrder)
	api.GET("/orders/:id", orderHandlers.GetOrder)
	api.PUT("/orders/:id", orderHandlers.UpdateOrder)
	api.PUT("/orders/:id/status", orderHandlers.UpdateOrderStatus)
	api.DELETE("/orders/:id", orderHandlers.DeleteOrder)

	scheduler, err := background.NewJobScheduler(background.Config{
		LowStockThreshold:  cfg.LowStockThreshold,
		LowStockInterval:   cfg.LowStockInterval,
		CacheSweepInterval: cfg.CacheSweepInterval,
	}, jobs.NewInventoryAlertService(repos.Inventory), invalidator)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create job scheduler")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("version", version).Str("port", cfg.Port).Msg("storefront server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		<-gctx.Done()
		return scheduler.Stop()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down server")
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
