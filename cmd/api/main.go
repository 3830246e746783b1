package main

import (
	"context"
	"os"
	"time"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Config & logging
	cfg := config.Load()
	log := logger.New(cfg.Environment)
	defer func() { _ = log.Sync() }()

	signer, err := jwt.NewSigner(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		log.Fatal("JWT_SECRET must be set", zap.Error(err))
	}

	// 2. Database
	db, err := database.Connect(database.Config{
		Driver:       cfg.DBDriver,
		URL:          cfg.DatabaseURL,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		User:         cfg.DBUser,
		Password:     cfg.DBPassword,
		Name:         cfg.DBName,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// 3. Redis (cache + rate limit), optional
	var (
		readCache   cache.Cache = cache.NopCache{}
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn("redis unreachable, caching and rate limiting disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = client.Close()
		} else {
			redisClient = client
			readCache = cache.NewRedisCache(client, "ledger:", cfg.CacheTTL)
			log.Info("redis connected", zap.String("addr", cfg.RedisAddr))
		}
	}

	// 4. Event publisher
	publisher := events.NewLogEventPublisher(log)
	if cfg.KafkaEnabled {
		kafka, err := events.NewKafkaEventPublisher(events.KafkaConfig{
			Brokers:           cfg.KafkaBrokers,
			ClientID:          cfg.KafkaClientID,
			Acks:              cfg.KafkaAcks,
			Retries:           cfg.KafkaRetries,
			TopicMovements:    cfg.KafkaTopicMovements,
			TopicReservations: cfg.KafkaTopicReservations,
			TopicCatalog:      cfg.KafkaTopicCatalog,
		}, log)
		if err != nil {
			log.Warn("kafka unavailable, events will only be logged", zap.Error(err))
		} else {
			publisher = kafka
		}
	}

	// 5. WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run()

	// 6. Wiring
	notifier := service.NewNotifier(hub, publisher, readCache, log)
	paging := service.DefaultPageLimits()
	paging.DefaultPageSize = cfg.DefaultPageSize
	paging.MaxPageSize = cfg.MaxPageSize
	ledgerCfg := service.LedgerConfig{
		AllowNegativeInventory:     cfg.AllowNegativeInventory,
		AutoCreateInventoryRecords: cfg.AutoCreateInventoryRecords,
	}
	defaults := service.ProductDefaults{
		ReorderPoint:    cfg.DefaultReorderPoint,
		ReorderQuantity: cfg.DefaultReorderQuantity,
	}

	productRepo := repository.NewProductRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	locationRepo := repository.NewLocationRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	processor := service.NewTransactionProcessor(db, inventoryRepo, txRepo, ledgerCfg, notifier, log)
	reservations := service.NewReservationService(db, inventoryRepo, notifier, log)
	inventoryQuery := service.NewInventoryQueryService(inventoryRepo, productRepo, locationRepo, readCache, notifier, paging, log)
	history := service.NewTransactionQueryService(txRepo, productRepo, locationRepo, paging)
	products := service.NewProductService(db, productRepo, supplierRepo, locationRepo, inventoryRepo, txRepo, ledgerCfg, defaults, paging, notifier, log)
	suppliers := service.NewSupplierService(db, supplierRepo, productRepo, txRepo, paging, notifier, log)
	locations := service.NewLocationService(db, locationRepo, inventoryRepo, txRepo, paging, notifier, log)
	dashboard := service.NewDashboardService(inventoryQuery, history)

	handlers := handler.Handlers{
		Product:     handler.NewProductHandler(products, inventoryQuery, history, paging),
		Supplier:    handler.NewSupplierHandler(suppliers, paging),
		Location:    handler.NewLocationHandler(locations, inventoryQuery, history, paging),
		Inventory:   handler.NewInventoryHandler(inventoryQuery, reservations, processor, paging),
		Transaction: handler.NewTransactionHandler(processor, history, paging),
		Dashboard:   handler.NewDashboardHandler(dashboard),
		System:      handler.NewSystemHandler(db, readCache, hub),
	}

	// 7. Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Inventory Ledger v1.0",
		BodyLimit:    4 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		ExposeHeaders: "X-RateLimit-Limit, X-RateLimit-Remaining, Retry-After, X-Request-ID",
	}))

	var limiter fiber.Handler
	if redisClient != nil && cfg.RateLimitRequests > 0 {
		limiter = middleware.NewRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, log).Mutations()
	}

	// WebSocket stock feed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(hub.Serve))

	handler.RegisterRoutes(app, handlers, middleware.RequireAuth(signer), limiter)

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("db_driver", cfg.DBDriver))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	// 8. Graceful shutdown: stop intake first, then drain dependents.
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				err := app.ShutdownWithContext(ctx)
				hub.Stop()
				if cerr := publisher.Close(); cerr != nil {
					log.Warn("event publisher close failed", zap.Error(cerr))
				}
				if cerr := readCache.Close(); cerr != nil {
					log.Warn("cache close failed", zap.Error(cerr))
				}
				if cerr := database.Close(db); cerr != nil {
					log.Warn("database close failed", zap.Error(cerr))
				}
				return err
			},
		},
	)

	exitCode := <-wait
	log.Info("server exited", zap.Int("code", exitCode))
	_ = log.Sync()
	os.Exit(exitCode)
}
