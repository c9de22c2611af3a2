package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"storefront-service/internal/api"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/config"
	"storefront-service/internal/consumer"
	"storefront-service/internal/payment"
	"storefront-service/internal/realtime"
	"storefront-service/internal/repository"
	"storefront-service/internal/service"
	"storefront-service/internal/sharding"
	"storefront-service/internal/storage"
	"storefront-service/migrations"
)

const shutdownTimeout = 15 * time.Second

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "main").Logger()

func connectDBEnv(shard config.DBShard) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", shard.DSN())
		if err == nil {
			err = db.Ping()
			if err == nil {
				logger.Info().Msgf("Connected to DB %s", shard.Name)
				return db, nil
			}
		}
		logger.Warn().Err(err).Msgf("Retry %d: Failed to connect to DB %s (%s:%s)", i+1, shard.Name, shard.Host, shard.Port)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", shard.Name, shard.Host, shard.Port, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	dbs := make([]*sql.DB, 0, len(cfg.DBShards))
	for _, shard := range cfg.DBShards {
		db, err := connectDBEnv(shard)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		dbs = append(dbs, db)
	}

	// Catalog, categories and users live on the first shard; orders are spread over all.
	if err := migrations.AutoMigrateCatalog(3, dbs[0]); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate catalog tables")
	}
	if err := migrations.AutoMigrateOrders(3, dbs...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate orders table")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping MongoDB")
	}
	reviewRepo := repository.NewReviewRepository(mongoClient.Database(cfg.MongoDB).Collection("reviews"))
	if err := reviewRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to create review indexes")
	}

	objectStore, err := storage.NewJetStreamObjectStore(cfg.NatsURL, cfg.ImageBucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	if err := objectStore.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open image bucket")
	}
	images := storage.NewImages(objectStore, cfg.PublicBaseURL)

	kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers)
	publisher := realtime.NewPublisher(kafkaWriter)

	// Every instance reads every event so its own stream clients stay current.
	hostname, _ := os.Hostname()
	broker := realtime.NewBroker()
	var readers []io.Closer
	for _, topic := range []string{config.OrderTopic, config.ProductTopic, config.CategoryTopic} {
		reader := config.NewKafkaReader(cfg.KafkaBrokers, topic, "storefront-realtime-"+hostname)
		readers = append(readers, reader)
		go broker.Pump(realtime.Subscribe(ctx, reader))
	}

	router := sharding.NewShardRouter(len(dbs))
	productRepo := repository.NewProductRepository(dbs[0])
	categoryRepo := repository.NewCategoryRepository(dbs[0])
	userRepo := repository.NewUserRepository(dbs[0])
	orderRepo := repository.NewOrderRepository(dbs, router)

	carts := cart.NewRegistry(cart.NewRedisStore(rdb, cfg.CartTTL))
	go carts.RunSweeper(ctx, time.Minute, cfg.CartMaxIdle)

	tokens := auth.NewTokenManager(auth.TokenConfig{SecretKey: cfg.JWTSecret, TTL: cfg.JWTTTL, Issuer: "storefront-service"})
	revocations := auth.NewRevocationStore(rdb)

	productService := service.NewProductService(productRepo, rdb, publisher)
	categoryService := service.NewCategoryService(categoryRepo, publisher)
	cartService := service.NewCartService(carts, productService)
	orderService := service.NewOrderService(orderRepo, carts, checkout.NewComposer(),
		payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret), publisher, rdb)
	paymentService := service.NewPaymentService(orderRepo, payment.NewGate(cfg.RazorpayKeySecret), carts, publisher)
	reviewService := service.NewReviewService(reviewRepo, productService, orderRepo)
	userService := service.NewUserService(userRepo, auth.NewPasswordHasher(bcrypt.DefaultCost), tokens, revocations, cfg.AdminEmails)
	dashboardService := service.NewDashboardService(orderRepo, productRepo)

	if err := productService.PreWarmCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to pre-warm product cache")
	}

	// Stock follows order events: reserve on creation, release on cancellation.
	stockReader := config.NewKafkaReader(cfg.KafkaBrokers, config.OrderTopic, "product-stock-group")
	readers = append(readers, stockReader)
	reservations := consumer.NewRedisReservations(rdb, 30*24*time.Hour)
	go consumer.NewConsumer(productService, reservations).Run(ctx, stockReader)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(api.RateLimiter(cfg.RateLimit, cfg.RateBurst))

	api.RegisterRoutes(e, api.Handlers{
		Products:   api.NewProductHandler(productService),
		Categories: api.NewCategoryHandler(categoryService),
		Reviews:    api.NewReviewHandler(reviewService),
		Cart:       api.NewCartHandler(cartService),
		Orders:     api.NewOrderHandler(orderService, paymentService),
		Users:      api.NewUserHandler(userService, cartService),
		Admin:      api.NewAdminHandler(dashboardService, images),
		Streams:    api.NewStreamHandler(broker, orderService),
	}, auth.JWT(cfg.JWTSecret, revocations))

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server stopped")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"storefront": func(ctx context.Context) error {
				logger.Info().Msg("Graceful shutdown initiated")
				err := e.Shutdown(ctx)
				cancel()
				for _, r := range readers {
					if err := r.Close(); err != nil {
						logger.Error().Err(err).Msg("Failed to close Kafka reader")
					}
				}
				if err := kafkaWriter.Close(); err != nil {
					logger.Error().Err(err).Msg("Failed to close Kafka writer")
				}
				if err := objectStore.Close(); err != nil {
					logger.Error().Err(err).Msg("Failed to close NATS connection")
				}
				if err := mongoClient.Disconnect(ctx); err != nil {
					logger.Error().Err(err).Msg("Failed to disconnect MongoDB")
				}
				if err := rdb.Close(); err != nil {
					logger.Error().Err(err).Msg("Failed to close Redis")
				}
				for _, db := range dbs {
					db.Close()
				}
				return err
			},
		},
	)

	exitCode := <-wait
	logger.Info().Msgf("Exited with code %d", exitCode)
	os.Exit(exitCode)
}
