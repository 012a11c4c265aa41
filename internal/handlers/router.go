package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/middleware"
	"smart-vault-backend/internal/services"
)

type RouterConfig struct {
	Engine     *ledger.Engine
	JWT        *services.JWTService
	Nonces     services.NonceStore
	Audit      AdjustmentLister
	Airdropper Airdropper
	WebSocket  *WebSocketHandler
	Production bool

	RatePerSecond float64
	RateBurst     int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	vaultHandler := NewVaultHandler(cfg.Engine)
	settlementHandler := NewSettlementHandler(cfg.Engine)
	adminHandler := NewAdminHandler(cfg.Engine, cfg.Audit)

	router.GET("/health", func(c *gin.Context) {
		health := gin.H{"status": "ok"}
		if audit, ok := cfg.Audit.(interface{ Failures() uint64 }); ok {
			if failures := audit.Failures(); failures > 0 {
				health["status"] = "degraded"
				health["audit_failures"] = failures
			}
		}
		c.JSON(http.StatusOK, health)
	})
	router.GET("/status/pause", adminHandler.PauseStatus)

	protected := router.Group("/api")
	nonces := cfg.Nonces
	if nonces == nil {
		nonces = services.NewMemoryNonceStore()
	}
	protected.Use(middleware.AuthMiddleware(cfg.JWT, nonces))
	if cfg.RatePerSecond > 0 {
		protected.Use(middleware.RateLimitMiddleware(cfg.RatePerSecond, cfg.RateBurst))
	}
	{
		if cfg.WebSocket != nil {
			protected.GET("/ws", cfg.WebSocket.HandleWebSocket)
		}

		protected.POST("/vault", vaultHandler.Initialize)
		protected.GET("/vault", vaultHandler.GetOwn)
		protected.POST("/vault/deposit", vaultHandler.Deposit)
		protected.POST("/vault/withdraw", vaultHandler.Withdraw)
		protected.GET("/vaults/:owner", vaultHandler.GetByOwner)

		settlement := protected.Group("/settlement")
		{
			settlement.POST("/place-bet", settlementHandler.PlaceBet)
			settlement.POST("/settle-game", settlementHandler.SettleGame)
			settlement.POST("/bet-and-settle", settlementHandler.BetAndSettle)
			settlement.POST("/batch", settlementHandler.BatchSettle)
			settlement.POST("/credit-win", settlementHandler.CreditWin)
			settlement.POST("/debit-loss", settlementHandler.DebitLoss)
		}

		protected.POST("/house", adminHandler.InitializeHouse)
		protected.GET("/house", adminHandler.GetHouse)
		protected.POST("/house/fund", adminHandler.FundHouse)
		protected.POST("/authority", adminHandler.ChangeAuthority)
		protected.GET("/adjustments", adminHandler.ListAdjustments)

		protected.POST("/pause-config", adminHandler.InitializePauseConfig)
		protected.DELETE("/pause-config", adminHandler.ClosePauseConfig)

		pause := protected.Group("/pause")
		{
			pause.GET("/status", adminHandler.PauseStatus)
			pause.POST("/maintenance", adminHandler.StartMaintenance)
			pause.POST("/emergency", adminHandler.EmergencyPause)
			pause.POST("/unpause", adminHandler.Unpause)
		}

		if !cfg.Production && cfg.Airdropper != nil {
			protected.POST("/dev/airdrop", NewDevHandler(cfg.Airdropper).Airdrop)
		}
	}

	return router
}
