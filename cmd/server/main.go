package main

import (
	"context"   // Context for startup and shutdown
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"eshop/internal/api"        // Custom package for API handlers
	"eshop/internal/cart"       // Cart stores and rules
	"eshop/internal/checkout"   // Order placement
	"eshop/internal/config"     // Custom package for configuration
	"eshop/internal/db"         // Database connection
	"eshop/internal/events"     // Order event publishers
	"eshop/internal/ratelimit"  // Login limiter
	"eshop/internal/repository" // Persistence
	"eshop/internal/storage"    // Product images
	"eshop/internal/utils"      // Product cache

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/pkg/errors"        // Error inspection
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"golang.org/x/sync/errgroup"   // Server lifecycle
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	config.SetupLogger(cfg)    // Setup logger
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM) // Stop on Ctrl+C or SIGTERM
	defer stop()

	// Connect to the database selected by DB_DRIVER
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		logrus.Fatalf("failed to get DB handle: %v", err)
	}
	defer sqlDB.Close()

	// Setup Redis client when configured
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
	}

	// Cart store
	var carts cart.Store = cart.NewMemoryStore()
	if cfg.CartBackend == "redis" {
		if rdb == nil {
			logrus.Fatal("CART_BACKEND=redis requires REDIS_ADDR")
		}
		carts = cart.NewRedisStore(rdb, cfg.CartTTL)
	}

	// Failed login limiter
	limits := ratelimit.LimiterConfig{Capacity: cfg.LoginMaxAttempts, Window: cfg.LoginWindow}
	var limiter ratelimit.Limiter = ratelimit.NewFixedWindow(limits)
	if cfg.RateLimitBackend == "redis" {
		if rdb == nil {
			logrus.Fatal("RATE_LIMIT_BACKEND=redis requires REDIS_ADDR")
		}
		limiter = ratelimit.NewRedisWindow(rdb, "ratelimit:login", limits)
	}

	// Product image bucket
	images, err := storage.OpenImageStore(ctx, cfg.UploadBucket, cfg.MaxImageBytes)
	if err != nil {
		logrus.Fatalf("failed to open upload bucket: %v", err)
	}
	defer images.Close()

	// Order events go to Kafka when brokers are configured
	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
	}
	defer publisher.Close()

	repos := repository.NewRepos(gdb)   // Pool bound repositories
	cache := utils.NewProductCache(rdb) // Disabled without Redis
	cartService := cart.NewService(carts, repos.Products)
	deps := api.Deps{
		Config:   cfg,
		Repos:    repos,
		Carts:    cartService,
		Checkout: checkout.NewService(repository.NewTxManager(gdb), cartService, publisher, cache),
		Limiter:  limiter,
		Images:   images,
		Cache:    cache,
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}
	api.RegisterRoutes(r, deps) // Mount all endpoints

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort, // Listen address
		Handler:           r,                 // Gin router
		ReadHeaderTimeout: 10 * time.Second,  // Header read limit
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"port":         cfg.AppPort,          // Listen port
			"db_driver":    cfg.DBDriver,         // Database driver
			"cart_backend": cfg.CartBackend,      // Cart store
			"rate_limit":   cfg.RateLimitBackend, // Limiter backend
			"kafka":        len(cfg.KafkaBrokers) > 0,
		}).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done() // Signal received or server failed
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logrus.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logrus.Errorf("server stopped with error: %v", err)
	}
}
