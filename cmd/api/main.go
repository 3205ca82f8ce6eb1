package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yield-wallet/config"
	httpHandler "yield-wallet/internal/adapter/http/handler"
	pgStorage "yield-wallet/internal/adapter/storage/postgres"
	redisStorage "yield-wallet/internal/adapter/storage/redis"
	"yield-wallet/internal/core/domain"
	"yield-wallet/internal/core/ports"
	"yield-wallet/internal/service"
	"yield-wallet/pkg/logger"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Yield Wallet")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	poolRepo := pgStorage.NewPoolRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	missionRepo := pgStorage.NewMissionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	fxCache := redisStorage.NewFXRateCache(rdb, cfg.FX.CacheTTL)

	poolID, err := uuid.Parse(cfg.Yield.PoolID)
	if err != nil {
		log.Fatal().Err(err).Str("pool_id", cfg.Yield.PoolID).Msg("Invalid yield.pool_id")
	}
	if err := ensureLendingPool(ctx, poolRepo, poolID, cfg.Yield.DefaultAPR, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap lending pool")
	}

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	stakingSvc := service.NewStakingService(poolRepo)
	yieldSvc := service.NewYieldService(poolRepo, transactor, poolID, log)
	walletSvc := service.NewWalletService(walletRepo, poolRepo, ledgerRepo, stakingSvc, transactor, poolID, log)
	fxSvc := service.NewFXService(cfg.FX.Markup, fxCache, log)
	network := service.NewSimulatedCardNetwork(cfg.Network.SingleTxLimit, log)
	missionSvc := service.NewMissionService(missionRepo, walletSvc, transactor, log)
	purchaseSvc := service.NewPurchaseService(
		walletRepo,
		poolRepo,
		ledgerRepo,
		cardRepo,
		merchantRepo,
		walletSvc,
		missionSvc,
		fxSvc,
		network,
		transactor,
		poolID,
		cfg.Yield.SettlementCurrency,
		cfg.Network.CallTimeout,
		log,
	)
	authSvc := service.NewAuthService(userRepo, walletRepo, cardRepo, hashSvc, tokenSvc, cfg.Yield.SettlementCurrency, log)

	// Periodic interest accrual
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Yield.AccrualInterval),
		gocron.NewTask(func() {
			result, err := yieldSvc.Accrue(context.Background(), time.Now().UTC())
			if err != nil {
				log.Error().Err(err).Msg("Scheduled accrual failed")
				return
			}
			log.Info().
				Float64("exchange_rate", result.ExchangeRate).
				Float64("interest_earned", result.InterestEarned).
				Msg("Interest accrued")
		}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule accrual job")
	}
	scheduler.Start()
	log.Info().Dur("interval", cfg.Yield.AccrualInterval).Msg("Accrual scheduler started")

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		WalletSvc:      walletSvc,
		PurchaseSvc:    purchaseSvc,
		MissionSvc:     missionSvc,
		YieldSvc:       yieldSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// ensureLendingPool creates the singleton pool row on first boot.
func ensureLendingPool(ctx context.Context, repo ports.PoolRepository, poolID uuid.UUID, apr float64, log zerolog.Logger) error {
	existing, err := repo.Get(ctx, poolID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := time.Now().UTC()
	pool := &domain.LendingPool{
		ID:            poolID,
		APRRate:       apr,
		ExchangeRate:  1.0,
		LastAccrualAt: now,
		UpdatedAt:     now,
	}
	if err := repo.Create(ctx, pool); err != nil {
		return err
	}
	log.Info().Str("pool_id", poolID.String()).Float64("apr", apr).Msg("Lending pool created")
	return nil
}
