package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/balance"
	"github.com/umair-farooq/solana-swap-engine/internal/cache"
	"github.com/umair-farooq/solana-swap-engine/internal/config"
	"github.com/umair-farooq/solana-swap-engine/internal/executor"
	"github.com/umair-farooq/solana-swap-engine/internal/flags"
	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/raydium"
	"github.com/umair-farooq/solana-swap-engine/internal/risk"
	"github.com/umair-farooq/solana-swap-engine/internal/server"
	"github.com/umair-farooq/solana-swap-engine/internal/storage"
	"github.com/umair-farooq/solana-swap-engine/internal/wallet"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Initialize Redis client for caching and feature flags
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0, // Use default database for main application
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	// Initialize swap cache for recent swaps and price data
	swapCache := cache.NewRedisCacheFromClient(rclient, logger)

	// Initialize feature flags store (holds the execution kill switch)
	flagStore, err := flags.NewStore(rclient)
	if err != nil {
		logger.WithError(err).Fatal("failed to create flags store")
	}

	// ClickHouse history is optional; the serving path never reads it
	var store storage.SwapStore
	if cfg.ClickHouseAddr != "" {
		ch, err := cache.NewClickHouseStore(
			cfg.ClickHouseAddr,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUsername,
			cfg.ClickHousePassword,
			logger,
		)
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable; swap history disabled")
		} else {
			store = ch
			defer ch.Close()
		}
	}

	// Pool aggregator client
	rayClient := raydium.NewClient(cfg.AggregatorURL, cfg.AggregatorAPIKey)

	// Wallet is optional; without it the server quotes but refuses to swap
	var exec *executor.Executor
	var balances *balance.Tracker
	walletAddr := ""
	if cfg.WalletPrivateKey != "" {
		w, err := wallet.New(wallet.Config{
			RPCURL:              cfg.RPCUrl,
			Timeout:             cfg.HTTPTimeout,
			MaxRetries:          cfg.MaxRetries,
			RetryBackoff:        cfg.RetryBackoff,
			PrivateKey:          cfg.WalletPrivateKey,
			SkipPreflight:       cfg.SkipPreflight,
			PreflightCommitment: cfg.PreflightCommitment,
			ConfirmCommitment:   cfg.ConfirmCommitment,
			ConfirmAttempts:     cfg.ConfirmAttempts,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to initialize wallet")
		}
		walletAddr = w.Address()
		balances = balance.NewTracker(w.RPC(), w.PublicKey(), logger)
		fees := executor.NewFeeCollector(rayClient, w.RPC(), w, logger)
		exec = executor.New(rayClient, w.RPC(), w, fees, logger)
		logger.WithField("wallet", walletAddr).Info("execution enabled")
	} else {
		logger.Warn("no WALLET_PRIVATE_KEY; running in quote-only mode")
	}

	var balanceGetter quote.BalanceGetter
	if balances != nil {
		balanceGetter = balances
	}
	engine := server.NewEngine(
		rayClient,
		balanceGetter,
		exec,
		store,
		walletAddr,
		cfg.DebounceMs,
		uint16(cfg.SlippageBps),
	).WithRisk(risk.NewManager(risk.Config{
		MaxTradeSOL:       cfg.MaxTradeSOL,
		DailyLimitSOL:     cfg.DailyLimitSOL,
		MaxPriceImpactBps: uint16(cfg.MaxPriceImpactBps),
		MaxSlippageBps:    risk.DefaultConfig().MaxSlippageBps,
	}))

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Cache:   swapCache,
		Flags:   flagStore,
		Engine:  engine,
		DevMode: os.Getenv("DEV_MODE") == "true",
		Logger:  logger,
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:          cfg.ListenAddr,
			DevMode:       h.DevMode,
			APIKey:        os.Getenv("API_KEY"),
			SwapRateLimit: cfg.RateLimitRPS,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.ListenAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
