package main

import (
	"context"   // Shutdown and relay lifetimes
	"errors"    // Server close detection
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"home_eats/internal/api"     // HTTP routes and handlers
	"home_eats/internal/config"  // Application configuration
	"home_eats/internal/db"      // Database connection and migrations
	"home_eats/internal/service" // Business services
	"home_eats/internal/storage" // Image storage
	"home_eats/internal/ws"      // Live notification stream

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger; JSON in production, readable text otherwise
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to the database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("failed to migrate: %v", err)
		}
		if err := db.SeedAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			logrus.Fatalf("failed to seed admin: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional; without it caching is off and notifications stay in this process
	hub := ws.NewHub()
	var redisClient *redis.Client
	var broadcaster service.Broadcaster = hub
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		broadcaster = ws.NewRedisBroadcaster(redisClient)
		go func() {
			if err := ws.NewRelay(redisClient, hub).Run(ctx); err != nil {
				logrus.WithError(err).Error("Notification relay stopped")
			}
		}()
	}

	// Image storage
	var images storage.ImageStore = storage.NewDiskStore(cfg.UploadDir)
	if cfg.CloudinaryEnabled() {
		cld, err := storage.NewCloudinaryStore(cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySec)
		if err != nil {
			logrus.Fatalf("failed to configure Cloudinary: %v", err)
		}
		images = cld
	}

	ledger := service.NewLedger(gdb, redisClient)
	notifier := service.NewNotifier(gdb, broadcaster)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(api.Deps{
		Config:       cfg,
		DB:           gdb,
		Redis:        redisClient,
		Accounts:     service.NewAccounts(gdb, ledger),
		Ledger:       ledger,
		Catalog:      service.NewCatalog(gdb, redisClient),
		Orders:       service.NewOrders(gdb, ledger, notifier),
		Deliveries:   service.NewDeliveries(gdb, notifier),
		BankAccounts: service.NewBankAccounts(gdb),
		Notifier:     notifier,
		Images:       images,
		Hub:          hub,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}
