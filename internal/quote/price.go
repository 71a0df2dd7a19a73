package quote

import (
	"context"
	"sync"
	"time"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// Debouncer rejects calls arriving within a window of the previous accepted
// call. Guards trade submission against double taps.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = time.Second
	}
	return &Debouncer{window: window}
}

func (d *Debouncer) Accept() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if now.Sub(d.last) < d.window {
		return false
	}
	d.last = now
	return true
}

// PriceOnce runs a single stateless pricing pass: find the best pool for the
// pair and fill in the non-anchored amount. Used by the HTTP quote endpoint
// and one-shot CLI quoting; interactive sessions go through the Orchestrator.
func PriceOnce(
	ctx context.Context,
	fetcher PoolFetcher,
	sell, buy token.Asset,
	side Side,
	amount uint64,
	slippageBps uint16,
) (*Quote, error) {
	if sell.Same(buy) {
		return nil, ErrNoPool
	}
	if amount == 0 {
		return nil, ErrNoAmount
	}

	pool, err := fetcher.FetchBestPool(ctx, sell.QueryMint(), buy.QueryMint())
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrNoPool
	}

	// The pool knows the pair's metadata; backfill whatever the caller did
	// not supply. Native SOL keeps its own identity.
	sell = enrichFromPool(sell, pool)
	buy = enrichFromPool(buy, pool)

	q := &Quote{
		SellAsset:   sell,
		BuyAsset:    buy,
		InputSide:   side,
		SlippageBps: slippageBps,
		Pool:        pool,
	}

	switch side {
	case Buy:
		q.AmountOut = amount
		in, err := amm.ComputeSellFromBuy(pool, amount, sell)
		if err != nil {
			return nil, err
		}
		q.AmountIn = in
		q.BoundAmount = amm.MaxAmountIn(in, slippageBps)
	default:
		q.AmountIn = amount
		out, err := amm.ComputeOutputFromSell(pool, amount, sell)
		if err != nil {
			return nil, err
		}
		q.AmountOut = out
		q.BoundAmount = amm.MinAmountOut(out, slippageBps)
	}

	if ri, ro, ok := pool.ReservesFor(sell); ok {
		q.PriceImpact = amm.PriceImpact(ri, ro, q.AmountIn, q.AmountOut)
	}
	return q, nil
}

func enrichFromPool(a token.Asset, pool *amm.Pool) token.Asset {
	if a.IsNative() {
		if a.Symbol == "" {
			return token.SOL
		}
		return a
	}
	switch {
	case pool.MintA.Mint.Equals(a.Mint):
		return pool.MintA
	case pool.MintB.Mint.Equals(a.Mint):
		return pool.MintB
	}
	return a
}
