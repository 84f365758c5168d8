package api

import (
	"context"  // Health check deadlines
	"net/http" // HTTP status codes
	"time"     // Health check deadlines

	"home_eats/internal/config"     // Application configuration
	"home_eats/internal/domain"     // Roles
	"home_eats/internal/middleware" // Auth, logging and CORS middleware
	"home_eats/internal/service"    // Business services
	"home_eats/internal/storage"    // Image storage
	"home_eats/internal/ws"         // Notification stream

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps holds everything the router wires into handlers
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Redis        *redis.Client // nil disables caching
	Accounts     *service.Accounts
	Ledger       *service.Ledger
	Catalog      *service.Catalog
	Orders       *service.Orders
	Deliveries   *service.Deliveries
	BankAccounts *service.BankAccounts
	Notifier     *service.Notifier
	Images       storage.ImageStore
	Hub          *ws.Hub
}

// NewRouter builds the gin engine with every route of the API
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggerMiddleware(), middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/health", HealthHandler(d.DB, d.Redis))
	if _, ok := d.Images.(*storage.DiskStore); ok {
		r.Static(storage.MediaPrefix, cfg.UploadDir) // Locally stored images
	}

	api := r.Group("/api")

	// Public routes
	api.POST("/token/", TokenHandler(d.Accounts, cfg))
	api.POST("/token/refresh/", RefreshHandler(d.Accounts, cfg))
	api.POST("/users/", RegisterHandler(d.Accounts, cfg))
	api.GET("/tiffins/", ListTiffinsHandler(d.Catalog))
	api.GET("/tiffins/:id/", GetTiffinHandler(d.Catalog))
	api.GET("/ws/notifications", ws.ServeNotifications(cfg.JWTSecret, d.Hub))

	// Authenticated routes; the user is reloaded from the database on every request
	authed := api.Group("", middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.CurrentUser(d.Accounts))
	ownerOnly := middleware.RequireRole(domain.RoleOwner)
	customerOnly := middleware.RequireRole(domain.RoleCustomer)
	courierOnly := middleware.RequireRole(domain.RoleDelivery)

	authed.GET("/users/me/", MeHandler(d.Accounts))
	authed.PATCH("/users/me/", UpdateMeHandler(d.Accounts))

	authed.GET("/tiffins/mine/", ownerOnly, MyTiffinsHandler(d.Catalog))
	authed.POST("/tiffins/", ownerOnly, CreateTiffinHandler(d.Catalog, d.Images))
	authed.PATCH("/tiffins/:id/", ownerOnly, UpdateTiffinHandler(d.Catalog, d.Images))
	authed.PUT("/tiffins/:id/", ownerOnly, UpdateTiffinHandler(d.Catalog, d.Images))
	authed.DELETE("/tiffins/:id/", ownerOnly, DeleteTiffinHandler(d.Catalog))

	authed.GET("/orders/", ListOrdersHandler(d.Orders))
	authed.POST("/orders/", customerOnly, PlaceOrderHandler(d.Orders))
	authed.GET("/orders/:id/", GetOrderHandler(d.Orders))
	authed.POST("/orders/:id/update_status/", UpdateOrderStatusHandler(d.Orders))

	authed.GET("/deliveries/", ListDeliveriesHandler(d.Deliveries))
	authed.GET("/deliveries/available/", courierOnly, AvailableDeliveriesHandler(d.Deliveries))
	authed.POST("/deliveries/:id/accept/", courierOnly, AcceptDeliveryHandler(d.Deliveries))
	authed.POST("/deliveries/:id/update_status/", UpdateDeliveryStatusHandler(d.Deliveries))

	authed.GET("/wallet/", GetWalletHandler(d.Ledger))
	authed.GET("/wallet/transactions/", TransactionsHandler(d.Ledger))
	authed.POST("/wallet/deposit/", DepositHandler(d.Ledger))
	authed.POST("/wallet/withdraw/", WithdrawHandler(d.Ledger))

	authed.GET("/bank-accounts/", ListBankAccountsHandler(d.BankAccounts))
	authed.POST("/bank-accounts/", AddBankAccountHandler(d.BankAccounts))
	authed.DELETE("/bank-accounts/:id/", DeleteBankAccountHandler(d.BankAccounts))

	authed.GET("/notifications/", ListNotificationsHandler(d.Notifier))
	authed.POST("/notifications/read-all/", MarkAllNotificationsReadHandler(d.Notifier))
	authed.POST("/notifications/:id/read/", MarkNotificationReadHandler(d.Notifier))

	// Admin routes
	admin := authed.Group("/admin", middleware.AdminOnlyMiddleware())
	admin.GET("/users/", ListUsersHandler(d.Accounts, d.Redis))
	admin.GET("/transactions/", ListTransactionsHandler(d.Ledger, d.Redis))

	return r
}

// HealthHandler reports whether the database and Redis answer
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		status, code := gin.H{"status": "ok", "db": "ok", "redis": "disabled"}, http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"], status["db"], code = "degraded", "down", http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["status"], status["redis"], code = "degraded", "down", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, status)
	}
}
