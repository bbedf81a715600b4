package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/Shade1269/atlannew-sub000/internal"
	"github.com/Shade1269/atlannew-sub000/internal/carrier"
	"github.com/Shade1269/atlannew-sub000/internal/events"
	"github.com/Shade1269/atlannew-sub000/internal/geo"
	"github.com/Shade1269/atlannew-sub000/internal/handler"
	"github.com/Shade1269/atlannew-sub000/internal/invoice"
	"github.com/Shade1269/atlannew-sub000/internal/middleware"
	"github.com/Shade1269/atlannew-sub000/internal/payment"
	"github.com/Shade1269/atlannew-sub000/internal/repository"
	"github.com/Shade1269/atlannew-sub000/internal/router"
	"github.com/Shade1269/atlannew-sub000/internal/routes"
	"github.com/Shade1269/atlannew-sub000/internal/service"
	"github.com/Shade1269/atlannew-sub000/internal/store"
	"github.com/Shade1269/atlannew-sub000/internal/tax"
	"github.com/Shade1269/atlannew-sub000/internal/telemetry"
	"github.com/Shade1269/atlannew-sub000/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Initialize pgx connection pool for the application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	repo := repository.New(pool)

	// Business metrics
	telemetry.InitBusinessMetrics("atlan")

	// Carrier aggregator. Without an API key in development the mock
	// provider keeps the checkout flow usable offline.
	var carrierProvider carrier.Provider
	if cfg.Bolesa.APIKey != "" {
		provider, err := carrier.NewBolesaProvider(carrier.BolesaConfig{
			BaseURL: cfg.Bolesa.BaseURL,
			APIKey:  cfg.Bolesa.APIKey,
			Timeout: cfg.Bolesa.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize carrier provider: %w", err)
		}
		carrierProvider = provider
		logger.Info("Bolesa carrier provider initialized", "base_url", cfg.Bolesa.BaseURL)
	} else {
		carrierProvider = carrier.NewMockProvider()
		logger.Warn("Bolesa API key not set, using mock carrier provider")
	}

	// Payment gateways
	var cardProvider payment.Provider
	if cfg.Geidea.MerchantKey != "" {
		provider, err := payment.NewGeideaProvider(payment.GeideaConfig{
			BaseURL:     cfg.Geidea.BaseURL,
			MerchantKey: cfg.Geidea.MerchantKey,
			APIPassword: cfg.Geidea.APIPassword,
			CallbackURL: cfg.Geidea.CallbackURL,
			Timeout:     cfg.Geidea.Timeout,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Geidea provider: %w", err)
		}
		cardProvider = provider
		logger.Info("Geidea payment provider initialized")
	} else {
		cardProvider = payment.NewMockProvider()
		logger.Warn("Geidea credentials not set, using mock card provider")
	}

	var tamaraProvider payment.Provider
	if cfg.Tamara.APIToken != "" {
		provider, err := payment.NewTamaraProvider(payment.TamaraConfig{
			BaseURL:     cfg.Tamara.BaseURL,
			APIToken:    cfg.Tamara.APIToken,
			CallbackURL: cfg.Tamara.CallbackURL,
			Timeout:     cfg.Tamara.Timeout,
			Logger:      logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Tamara provider: %w", err)
		}
		tamaraProvider = provider
		logger.Info("Tamara payment provider initialized")
	} else {
		tamaraProvider = payment.NewMockProvider()
		logger.Warn("Tamara credentials not set, using mock installments provider")
	}

	// Invoicing
	var invoiceCreator invoice.Creator
	if cfg.Zoho.AccessToken != "" {
		creator, err := invoice.NewZohoCreator(invoice.ZohoConfig{
			BaseURL:        cfg.Zoho.BaseURL,
			OrganizationID: cfg.Zoho.OrganizationID,
			AccessToken:    cfg.Zoho.AccessToken,
			Timeout:        cfg.Zoho.Timeout,
			Logger:         logger,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Zoho client: %w", err)
		}
		invoiceCreator = creator
		logger.Info("Zoho invoice client initialized")
	} else {
		invoiceCreator = invoice.NewMockCreator()
		logger.Warn("Zoho credentials not set, using mock invoice creator")
	}

	// Quote cache: Redis when configured, in-process otherwise
	var quoteCache service.QuoteCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		defer client.Close()
		quoteCache = service.NewRedisQuoteCache(client, logger)
		logger.Info("Redis quote cache initialized", "addr", cfg.Redis.Addr)
	} else {
		quoteCache = service.NewMemoryQuoteCache()
	}

	// Order events
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Nats.URL != "" {
		natsPublisher, err := events.NewNatsPublisher(cfg.Nats.URL, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher = natsPublisher
		logger.Info("NATS event publisher initialized", "url", cfg.Nats.URL)
	}
	defer publisher.Close()

	// Core services
	cities := geo.NewDirectory()
	cartService := service.NewCartService()
	orderService := service.NewOrderService(repo, logger)
	resolver := store.NewResolver(repo, cfg.Checkout.DefaultVendorID, logger)

	taxCalculator, err := tax.NewPercentageCalculator(cfg.TaxRate)
	if err != nil {
		return fmt.Errorf("failed to initialize tax calculator: %w", err)
	}

	quoteService := service.NewQuoteService(service.QuoteServiceConfig{
		Provider:     carrierProvider,
		Cities:       cities,
		Cache:        quoteCache,
		Debounce:     cfg.Checkout.QuoteDebounce,
		CacheTTL:     cfg.Checkout.QuoteCacheTTL,
		OriginCityID: cfg.Checkout.OriginCityID,
		Logger:       logger,
	})

	checkoutService := service.NewCheckoutService(service.CheckoutConfig{
		Carts:    cartService,
		Quotes:   quoteService,
		Orders:   orderService,
		Resolver: resolver,
		Payments: service.PaymentProviders{Card: cardProvider, Tamara: tamaraProvider},
		Tax:      taxCalculator,
		Queue:    repo,
		Events:   publisher,
		Logger:   logger,
	})

	// Background worker for shipment booking and invoicing
	jobWorker := worker.NewWorker(repo, repo, carrierProvider, invoiceCreator, cities, worker.Config{
		PollInterval:   cfg.Worker.PollInterval,
		MaxConcurrency: cfg.Worker.MaxConcurrency,
		OriginCityID:   cfg.Checkout.OriginCityID,
	}, logger)

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- jobWorker.Start(ctx)
	}()

	// HTTP layer
	metrics := middleware.NewMetrics("atlan")

	r := router.New(
		middleware.Recover,
		middleware.RequestID,
		metrics.Middleware,
		middleware.WithRequestLogger(logger),
	)

	routes.Register(r, routes.Deps{
		Cart:           handler.NewCartHandler(cartService, logger),
		Checkout:       handler.NewCheckoutHandler(checkoutService, orderService, logger),
		Carriers:       handler.NewCarrierHandler(carrierProvider, cities, orderService, repo, cfg.Checkout.OriginCityID, logger),
		MetricsHandler: metrics.Handler(),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", server.Addr, "env", cfg.Env)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}

		// Let in-flight jobs drain
		if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped with error", "error", err)
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
