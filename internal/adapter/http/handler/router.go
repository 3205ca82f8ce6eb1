package handler

import (
	"yield-wallet/internal/adapter/http/middleware"
	redisStore "yield-wallet/internal/adapter/storage/redis"
	"yield-wallet/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds everything the router needs. RateLimitStore may be nil to
// disable rate limiting (tests, local runs without Redis).
type RouterDeps struct {
	AuthSvc        ports.AuthService
	WalletSvc      ports.WalletService
	PurchaseSvc    ports.PurchaseService
	MissionSvc     ports.MissionService
	YieldSvc       ports.YieldService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter wires middleware, handlers and routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.MaxBodySize(1 << 20))

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}

	authHandler := NewAuthHandler(deps.AuthSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)
	posHandler := NewPOSHandler(deps.PurchaseSvc)
	missionHandler := NewMissionHandler(deps.MissionSvc)
	yieldHandler := NewYieldHandler(deps.YieldSvc)

	router.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", rl("auth_register"), authHandler.Register)
			auth.POST("/login", rl("auth_login"), authHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
		{
			wallet := protected.Group("/wallet")
			{
				wallet.GET("", rl("wallet_read"), walletHandler.Get)
				wallet.GET("/ledger", rl("wallet_read"), walletHandler.Ledger)
				wallet.POST("/topup", rl("wallet_topup"), walletHandler.Topup)
				wallet.PUT("/autostake", rl("wallet_read"), walletHandler.SetAutoStake)
			}

			pos := protected.Group("/pos")
			{
				pos.POST("/authorize", rl("pos_authorize"), posHandler.Authorize)
				pos.POST("/refund", rl("pos_refund"), posHandler.Refund)
			}

			missions := protected.Group("/missions")
			{
				missions.GET("", rl("missions"), missionHandler.List)
				missions.POST("/enroll", rl("missions"), missionHandler.Enroll)
			}

			yield := protected.Group("/yield")
			{
				yield.GET("/pool", rl("yield"), yieldHandler.Stats)
				yield.POST("/accrue", rl("yield"), yieldHandler.Accrue)
				yield.PUT("/apr", rl("yield"), yieldHandler.SetAPR)
			}
		}
	}

	return router
}
