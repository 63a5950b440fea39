package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-wallet-engine/internal/api/handler"
	"github.com/custodia-wallet-engine/internal/api/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	depositHandler *handler.DepositHandler,
	webhookHandler *handler.WebhookHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// User registration provisions the wallet; no principal required
		v1.POST("/users", walletHandler.CreateUser)

		// Webhook deliveries authenticate via HMAC signature, not a principal
		v1.POST("/webhooks/paystack", webhookHandler.Receive)

		// Everything else acts on the caller's own wallet
		authed := v1.Group("", middleware.Principal())
		{
			wallet := authed.Group("/wallet")
			{
				wallet.GET("", walletHandler.GetWallet)
				wallet.GET("/transactions", walletHandler.ListTransactions)
				wallet.GET("/audit", walletHandler.ListAuditEvents)
			}

			deposits := authed.Group("/deposits")
			{
				deposits.POST("", depositHandler.Open)
				deposits.GET("/:reference", depositHandler.GetStatus)
				deposits.GET("/:reference/audit", depositHandler.GetAuditTrail)
				deposits.POST("/:reference/verify", depositHandler.Verify)
			}

			authed.POST("/transfers", walletHandler.Transfer)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
