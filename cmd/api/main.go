package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightkart/internal/cache"
	"lightkart/internal/checkout"
	"lightkart/internal/config"
	"lightkart/internal/coupon"
	"lightkart/internal/database"
	"lightkart/internal/handler"
	"lightkart/internal/mailer"
	"lightkart/internal/newebpay"
	"lightkart/internal/repository"
	"lightkart/internal/router"
	"lightkart/internal/service"
	"lightkart/internal/sweeper"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting lightkart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize Redis client
	redisClient, err := cache.New(ctx, cfg.Redis.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)

	// Import coupon seed definitions before taking traffic
	if cfg.CouponSeed.Enabled {
		var seedLoader coupon.Loader
		if cfg.CouponSeed.S3Enabled {
			seedLoader, err = coupon.NewS3Loader(ctx, cfg.CouponSeed.Bucket, cfg.CouponSeed.Region, cfg.CouponSeed.Prefix, logger)
			if err != nil {
				logger.Warn().
					Err(err).
					Msg("failed to initialise S3 seed loader, falling back to local file system")
				seedLoader = coupon.NewFileLoader(cfg.CouponSeed.Path, logger)
			}
		} else {
			seedLoader = coupon.NewFileLoader(cfg.CouponSeed.Path, logger)
		}
		if err := coupon.NewImporter(seedLoader, couponRepo, logger).Run(ctx); err != nil {
			return fmt.Errorf("failed to import coupon seeds: %w", err)
		}
	}

	// Initialize the payment gateway client
	gateway, err := newebpay.New(cfg.Newebpay)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway client: %w", err)
	}

	// Initialize Redis-backed checkout stores
	drafts := checkout.NewDraftStore(redisClient, logger)
	ledger := checkout.NewReservationLedger(redisClient, logger)
	invalidator := cache.NewListingInvalidator(redisClient, logger)

	// Initialize the mailer
	m, err := mailer.New(cfg.SMTP, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}

	// Initialize services
	checkoutService := service.NewCheckoutService(couponRepo, orderRepo, drafts, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, cartRepo, couponRepo, userRepo, drafts, ledger, gateway, logger)
	reconcileService := service.NewReconcileService(orderRepo, productRepo, couponRepo, paymentRepo, userRepo, ledger, gateway, m, invalidator, logger)

	// Start the expiry sweeper
	sw := sweeper.New(orderRepo, couponRepo, ledger, logger)
	if err := sw.Start(); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	defer sw.Stop()

	// Initialize HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	paymentHandler := handler.NewPaymentHandler(reconcileService, cfg.Newebpay.CheckoutStatusURL, logger)

	// Initialize router
	mux := router.New(checkoutHandler, orderHandler, paymentHandler, cfg.Auth.JWTSecret, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
