// Package server assembles the HTTP surface: middleware, public endpoints and
// the authenticated /api/v1 routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"chowvest/internal/handlers"
	"chowvest/internal/metrics"
	"chowvest/internal/middleware"
	"chowvest/internal/ratelimit"
	"chowvest/internal/services"

	_ "chowvest/internal/docs" // registers the swagger spec
)

// Services are the collaborators the handlers are built from.
type Services struct {
	Wallet        services.WalletServicer
	Basket        services.BasketServicer
	Transfer      services.TransferServicer
	Deposit       services.DepositServicer
	Notification  services.NotificationServicer
	PaymentMethod services.PaymentMethodServicer
}

// Options configures NewRouter.
type Options struct {
	JWTSecret      string
	WebhookSecret  string
	Limiter        ratelimit.Limiter
	DepositLimit   handlers.DepositRateLimit
	MetricsEnabled bool
	// DB, when set, is pinged by /health.
	DB *gorm.DB
}

// NewRouter builds the gin engine serving the API.
func NewRouter(svc Services, opts Options) *gin.Engine {
	walletHandler := handlers.NewWalletHandler(svc.Wallet, svc.Deposit, opts.Limiter, opts.DepositLimit)
	basketHandler := handlers.NewBasketHandler(svc.Basket, svc.Transfer)
	notificationHandler := handlers.NewNotificationHandler(svc.Notification)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(svc.PaymentMethod)
	webhookHandler := handlers.NewWebhookHandler(svc.Deposit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", health(opts.DB))
	if opts.MetricsEnabled {
		metrics.Register()
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	v1 := router.Group("/api/v1")

	// Gateway callbacks authenticate by signature, not bearer token.
	v1.POST("/webhooks/paystack", middleware.WebhookSignatureMiddleware(opts.WebhookSecret), webhookHandler.Paystack)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.JWTSecret))

	wallet := protected.Group("/wallet")
	wallet.GET("", walletHandler.GetWallet)
	wallet.GET("/transactions", walletHandler.GetTransactions)
	wallet.GET("/transactions/:id", walletHandler.GetTransactionByID)
	wallet.POST("/deposit", walletHandler.InitiateDeposit)
	wallet.POST("/verify-payment", walletHandler.VerifyPayment)

	baskets := protected.Group("/baskets")
	baskets.GET("", basketHandler.GetBaskets)
	baskets.POST("", basketHandler.CreateBasket)
	baskets.GET("/:id", basketHandler.GetBasketByID)
	baskets.POST("/:id/add-funds", basketHandler.AddFunds)
	baskets.PATCH("/:id/status", basketHandler.UpdateStatus)
	baskets.POST("/:id/request-delivery", basketHandler.RequestDelivery)
	baskets.DELETE("/:id", basketHandler.CancelBasket)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.PATCH("/read", notificationHandler.MarkAsRead)

	paymentMethods := protected.Group("/payment-methods")
	paymentMethods.GET("", paymentMethodHandler.GetPaymentMethods)
	paymentMethods.POST("", paymentMethodHandler.AddPaymentMethod)
	paymentMethods.DELETE("/:id", paymentMethodHandler.RemovePaymentMethod)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(c.Request.Context())
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
