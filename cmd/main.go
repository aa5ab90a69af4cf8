package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"aoin-shipping-service/internal/carrier"
	"aoin-shipping-service/internal/config"
	"aoin-shipping-service/internal/events"
	"aoin-shipping-service/internal/handlers"
	"aoin-shipping-service/internal/middleware"
	"aoin-shipping-service/internal/models"
	"aoin-shipping-service/internal/repository"
	"aoin-shipping-service/internal/services"
)

func main() {
	// .env is optional; in clusters everything comes from the environment.
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.Info("Starting Aoin Shipping Service...")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := connectDatabase(cfg.GetDatabaseDSN())
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Info("Database connected")

	if err := runMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations completed")

	// Redis is optional: serviceability results are simply not cached
	// without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Warnf("Failed to parse Redis URL: %v, continuing without caching", err)
		} else {
			redisClient = redis.NewClient(opt)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warnf("Failed to connect to Redis: %v, continuing without caching", err)
				redisClient = nil
			} else {
				logger.Info("Connected to Redis for serviceability caching")
			}
			cancel()
		}
	} else {
		logger.Info("REDIS_URL not configured, caching disabled")
	}

	// NATS is optional too: shipment events are best-effort.
	var publisher services.EventPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Warnf("Failed to initialize events publisher: %v, events won't be published", err)
		} else {
			defer natsPublisher.Close()
			publisher = natsPublisher
			logger.Info("NATS events publisher initialized")
		}
	} else {
		logger.Info("NATS_URL not configured, eventing disabled")
	}

	client := carrier.NewClient(carrier.Config{
		Email:    cfg.Shiprocket.Email,
		Password: cfg.Shiprocket.Password,
		BaseURL:  cfg.Shiprocket.BaseURL,
		Timeout:  cfg.Shiprocket.Timeout,
	}, logger)
	prober := carrier.NewProber(client, redisClient)

	shipmentRepo := repository.NewShipmentRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	productRepo := repository.NewProductRepository(db)
	shopRepo := repository.NewShopRepository(db)
	logger.Info("Repositories initialized")

	resolver := services.NewPickupResolver(client, merchantRepo, shopRepo, logger)
	orchestrator := services.NewShippingOrchestrator(
		client,
		prober,
		resolver,
		shipmentRepo,
		orderRepo,
		merchantRepo,
		addressRepo,
		productRepo,
		publisher,
		logger,
	)

	shippingHandler := handlers.NewShippingHandler(orchestrator, prober, client, logger)
	logger.Info("Handlers initialized")

	router := setupRouter(shippingHandler, cfg, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Infof("Starting server on %s (environment: %s)", addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

// connectDatabase establishes a connection to the PostgreSQL database
func connectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Shipment{},
		&models.ShopShipment{},
	)
}

// setupRouter configures the Gin router with routes and middleware
func setupRouter(shippingHandler *handlers.ShippingHandler, cfg *config.Config, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler(logger))

	router.GET("/health", shippingHandler.HealthCheck)

	api := router.Group("/api/shiprocket")
	{
		api.POST("/serviceability", shippingHandler.CheckServiceability)

		api.POST("/orders", shippingHandler.CreateShipment)
		api.POST("/orders/bulk", shippingHandler.CreateBulkShipments)
		api.POST("/shop-orders", shippingHandler.CreateShopShipment)

		api.GET("/track/awb/:awb", shippingHandler.TrackByAWB)
		api.GET("/track/order/:orderId", shippingHandler.TrackByOrderID)
		api.GET("/shipments/:id/track", shippingHandler.TrackShipment)

		api.GET("/pickup-locations", shippingHandler.ListPickupLocations)
		api.POST("/pickup-locations", shippingHandler.AddPickupLocation)
	}

	return router
}
