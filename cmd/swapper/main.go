package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/balance"
	"github.com/umair-farooq/solana-swap-engine/internal/config"
	"github.com/umair-farooq/solana-swap-engine/internal/executor"
	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/raydium"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
	"github.com/umair-farooq/solana-swap-engine/internal/wallet"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "quote", "quote | execute")
	inMint := flag.String("in", "SOL", "input mint address, or SOL for native")
	outMint := flag.String("out", "", "output mint address, or SOL for native")
	amt := flag.String("amt", "", "amount in human units of the anchored side (e.g. 0.1)")
	side := flag.String("side", "Sell", "which side -amt anchors: Sell | Buy")
	slippageBps := flag.Int("slippage-bps", 100, "slippage in bps (e.g. 100 = 1%)")
	flag.Parse()

	if *amt == "" {
		fmt.Println("missing -amt")
		os.Exit(2)
	}
	if *outMint == "" {
		fmt.Println("missing -out")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cfg := config.Load()
	rayClient := raydium.NewClient(cfg.AggregatorURL, cfg.AggregatorAPIKey)

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
		fmt.Println("failed to init wallet:", err)
		os.Exit(1)
	}
	defer w.Close()

	sell, buy, err := resolvePair(ctx, rayClient, *inMint, *outMint)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	balances := balance.NewTracker(w.RPC(), w.PublicKey(), logger)
	orch := quote.NewOrchestrator(rayClient, balances, quote.Config{
		SlippageBps:   uint16(*slippageBps),
		Debounce:      cfg.DebounceMs,
		FlipTimeout:   cfg.FlipTimeout,
		LookupTimeout: cfg.LookupTimeout,
	}, logger)
	defer orch.Close()

	updates := orch.Subscribe()
	orch.SetSellAsset(sell)
	orch.SetBuyAsset(buy)
	if quoteSide(*side) == quote.Buy {
		orch.SetBuyAmount(*amt)
	} else {
		orch.SetSellAmount(*amt)
	}

	snap, err := waitForQuote(ctx, updates)
	if err != nil {
		fmt.Println("quote failed:", err)
		os.Exit(1)
	}

	q := snap.Quote
	fmt.Printf("pool=%s kind=%s in=%s %s out=%s %s bound=%d impact=%.4f%%\n",
		q.Pool.ID, q.Pool.Kind,
		q.SellAsset.FromRaw(q.AmountIn), q.SellAsset.Symbol,
		q.BuyAsset.FromRaw(q.AmountOut), q.BuyAsset.Symbol,
		q.BoundAmount, q.PriceImpact*100)

	if *mode == "quote" {
		return
	}
	if *mode != "execute" {
		fmt.Println("invalid -mode (use quote|execute)")
		os.Exit(2)
	}

	if err := snap.CheckExecutable(); err != nil {
		fmt.Println("not executable:", err)
		os.Exit(1)
	}
	if !orch.AcceptSubmission() {
		fmt.Println("not executable:", quote.ErrDebounced)
		os.Exit(1)
	}

	fees := executor.NewFeeCollector(rayClient, w.RPC(), w, logger)
	exec := executor.New(rayClient, w.RPC(), w, fees, logger)

	start := time.Now()
	res, err := exec.Execute(ctx, q)
	if err != nil {
		fmt.Printf("execute failed (status=%s sig=%s): %v\n", res.Status, res.Signature, err)
		os.Exit(1)
	}
	fmt.Printf("status=%s sig=%s fee_paid=%d duration=%s\n",
		res.Status, res.Signature, res.FeePaid, time.Since(start).Round(time.Millisecond))
}

// resolvePair parses the mint arguments and backfills symbols and decimals
// from the pair's best pool, so amounts entered in human units convert
// correctly.
func resolvePair(ctx context.Context, rayClient *raydium.Client, in, out string) (token.Asset, token.Asset, error) {
	sell, err := parseAsset(in)
	if err != nil {
		return token.Asset{}, token.Asset{}, fmt.Errorf("invalid -in: %w", err)
	}
	buy, err := parseAsset(out)
	if err != nil {
		return token.Asset{}, token.Asset{}, fmt.Errorf("invalid -out: %w", err)
	}

	pool, err := rayClient.FetchBestPool(ctx, sell.QueryMint(), buy.QueryMint())
	if err != nil {
		return token.Asset{}, token.Asset{}, fmt.Errorf("pool lookup failed: %w", err)
	}
	if pool == nil {
		return token.Asset{}, token.Asset{}, fmt.Errorf("no pool found for pair")
	}

	return enrich(sell, pool.MintA, pool.MintB), enrich(buy, pool.MintA, pool.MintB), nil
}

func enrich(a token.Asset, candidates ...token.Asset) token.Asset {
	if a.IsNative() {
		return token.SOL
	}
	for _, c := range candidates {
		if c.Mint.Equals(a.Mint) {
			return c
		}
	}
	return a
}

func parseAsset(s string) (token.Asset, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "SOL") {
		return token.SOL, nil
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return token.Asset{}, fmt.Errorf("not a valid mint address")
	}
	if pk.Equals(token.NativeMint) {
		return token.SOL, nil
	}
	return token.Asset{Mint: pk}, nil
}

func quoteSide(s string) quote.Side {
	if strings.EqualFold(s, "Buy") {
		return quote.Buy
	}
	return quote.Sell
}

// waitForQuote consumes snapshots until a stable quote appears or the
// session reports the pair cannot trade.
func waitForQuote(ctx context.Context, updates <-chan quote.Snapshot) (quote.Snapshot, error) {
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return quote.Snapshot{}, ctx.Err()
		case <-deadline:
			return quote.Snapshot{}, fmt.Errorf("timed out waiting for quote")
		case snap := <-updates:
			if snap.State != quote.Quoted {
				continue
			}
			if snap.Quote.Pool == nil {
				return quote.Snapshot{}, quote.ErrNoPool
			}
			if snap.Quote.AmountIn == 0 || snap.Quote.AmountOut == 0 {
				// Amount event may still be in flight behind the pair events.
				continue
			}
			return snap, nil
		}
	}
}
