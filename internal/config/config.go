package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// RPC settings
	RPCUrl       string
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Pool aggregator settings
	AggregatorURL    string
	AggregatorAPIKey string

	// Wallet settings
	WalletPrivateKey    string
	SkipPreflight       bool
	PreflightCommitment string
	ConfirmCommitment   string
	ConfirmAttempts     int

	// Quoting settings
	SlippageBps   int
	DebounceMs    time.Duration
	FlipTimeout   time.Duration
	LookupTimeout time.Duration

	// Risk limits
	MaxTradeSOL       float64
	DailyLimitSOL     float64
	MaxPriceImpactBps int

	// HTTP server settings
	ListenAddr    string
	RateLimitRPS  float64
	RateLimitSize int

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Aggregator
		AggregatorURL:    getEnv("RAYDIUM_API_URL", "https://api-v3.raydium.io"),
		AggregatorAPIKey: getEnv("RAYDIUM_API_KEY", ""),

		// Wallet
		WalletPrivateKey:    getEnv("WALLET_PRIVATE_KEY", ""),
		SkipPreflight:       getBoolEnv("SKIP_PREFLIGHT", false),
		PreflightCommitment: getEnv("PREFLIGHT_COMMITMENT", "processed"),
		ConfirmCommitment:   getEnv("CONFIRM_COMMITMENT", "confirmed"),
		ConfirmAttempts:     getIntEnv("CONFIRM_ATTEMPTS", 30),

		// Quoting
		SlippageBps:   getIntEnv("SLIPPAGE_BPS", 100),
		DebounceMs:    getDurationEnv("SUBMIT_DEBOUNCE", 1*time.Second),
		FlipTimeout:   getDurationEnv("FLIP_TIMEOUT", 5*time.Second),
		LookupTimeout: getDurationEnv("LOOKUP_TIMEOUT", 15*time.Second),

		// Risk
		MaxTradeSOL:       getFloatEnv("MAX_TRADE_SOL", 1),
		DailyLimitSOL:     getFloatEnv("DAILY_LIMIT_SOL", 10),
		MaxPriceImpactBps: getIntEnv("MAX_PRICE_IMPACT_BPS", 500),

		// Server
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		RateLimitRPS:  getFloatEnv("RATE_LIMIT_RPS", 5),
		RateLimitSize: getIntEnv("RATE_LIMIT_BURST", 10),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
