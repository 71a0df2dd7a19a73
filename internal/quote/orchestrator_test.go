package quote

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

var (
	assetUSDC = token.Asset{
		Mint:     solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		Symbol:   "USDC",
		Decimals: 6,
	}
	assetUSDT = token.Asset{
		Mint:     solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"),
		Symbol:   "USDT",
		Decimals: 6,
	}
	assetRAY = token.Asset{
		Mint:     solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"),
		Symbol:   "RAY",
		Decimals: 6,
	}
	assetJUP = token.Asset{
		Mint:     solana.MustPublicKeyFromBase58("JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"),
		Symbol:   "JUP",
		Decimals: 6,
	}
)

func poolFor(a, b token.Asset) *amm.Pool {
	return &amm.Pool{
		ID:          "pool-" + a.Symbol + "-" + b.Symbol,
		Kind:        amm.Standard,
		MintA:       a,
		MintB:       b,
		ReserveA:    1_000_000_000_000,
		ReserveB:    2_000_000_000_000,
		HasReserves: true,
		FeeRate:     0.0025,
	}
}

// fetchCall is one in-flight pool lookup the test controls.
type fetchCall struct {
	mintA, mintB solana.PublicKey
	release      chan *amm.Pool
}

type scriptedFetcher struct {
	calls chan fetchCall
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan fetchCall, 16)}
}

func (f *scriptedFetcher) FetchBestPool(ctx context.Context, mintA, mintB solana.PublicKey) (*amm.Pool, error) {
	call := fetchCall{mintA: mintA, mintB: mintB, release: make(chan *amm.Pool, 1)}
	f.calls <- call
	select {
	case pool := <-call.release:
		return pool, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// next blocks until a lookup starts.
func (f *scriptedFetcher) next(t *testing.T) fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a pool lookup")
		return fetchCall{}
	}
}

// noCall asserts no lookup starts within the window.
func (f *scriptedFetcher) noCall(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case c := <-f.calls:
		t.Fatalf("unexpected pool lookup for %s/%s", c.mintA, c.mintB)
	case <-time.After(window):
	}
}

type fixedBalances struct {
	balance uint64
}

func (b *fixedBalances) GetBalance(context.Context, token.Asset) (uint64, error) {
	return b.balance, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestOrchestrator(fetcher PoolFetcher) *Orchestrator {
	return NewOrchestrator(fetcher, &fixedBalances{balance: 1_000_000_000}, Config{
		SlippageBps:   100,
		FlipTimeout:   5 * time.Second,
		Debounce:      time.Second,
		LookupTimeout: 5 * time.Second,
	}, quietLogger())
}

func waitFor(t *testing.T, o *Orchestrator, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = o.Current()
		return cond(snap)
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestStaleLookupDiscarded(t *testing.T) {
	fetcher := newScriptedFetcher()
	o := newTestOrchestrator(fetcher)
	defer o.Close()

	o.SetSellAsset(assetUSDC)
	o.SetBuyAsset(assetUSDT)
	slow := fetcher.next(t)

	// The pair changes while the first lookup is still in flight.
	o.SetBuyAsset(assetRAY)
	fast := fetcher.next(t)

	// The newer lookup completes first and wins.
	fast.release <- poolFor(assetUSDC, assetRAY)
	snap := waitFor(t, o, func(s Snapshot) bool { return s.State == Quoted })
	require.NotNil(t, snap.Quote.Pool)
	assert.Equal(t, "pool-USDC-RAY", snap.Quote.Pool.ID)

	// The straggler for the old pair must not overwrite the newer result.
	slow.release <- poolFor(assetUSDC, assetUSDT)
	time.Sleep(50 * time.Millisecond)
	snap = o.Current()
	require.NotNil(t, snap.Quote.Pool)
	assert.Equal(t, "pool-USDC-RAY", snap.Quote.Pool.ID)
}

func TestFlipSuppressesTriggersUntilComplete(t *testing.T) {
	fetcher := newScriptedFetcher()
	o := newTestOrchestrator(fetcher)
	defer o.Close()

	o.SetSellAsset(assetUSDC)
	o.SetBuyAsset(assetUSDT)
	initial := fetcher.next(t)
	initial.release <- poolFor(assetUSDC, assetUSDT)
	waitFor(t, o, func(s Snapshot) bool { return s.State == Quoted })

	// Flip starts its own refresh for the reversed pair.
	o.Flip()
	flipCall := fetcher.next(t)
	assert.Equal(t, assetUSDT.QueryMint(), flipCall.mintA)
	assert.Equal(t, assetUSDC.QueryMint(), flipCall.mintB)

	// Rapid changes while the flip refresh is in flight: applied to state,
	// but no lookups start.
	o.SetBuyAsset(assetRAY)
	o.SetSellAsset(assetJUP)
	o.SetSellAmount("2")
	fetcher.noCall(t, 100*time.Millisecond)

	// Flip completion discards its own result and runs exactly one pricing
	// pass for the final pair.
	flipCall.release <- poolFor(assetUSDT, assetUSDC)
	final := fetcher.next(t)
	assert.Equal(t, assetJUP.QueryMint(), final.mintA)
	assert.Equal(t, assetRAY.QueryMint(), final.mintB)

	final.release <- poolFor(assetJUP, assetRAY)
	snap := waitFor(t, o, func(s Snapshot) bool {
		return s.State == Quoted && s.Quote.Pool != nil
	})
	assert.Equal(t, "pool-JUP-RAY", snap.Quote.Pool.ID)
	assert.Equal(t, uint64(2_000_000), snap.Quote.AmountIn)
	assert.NotZero(t, snap.Quote.AmountOut)

	// No further lookups.
	fetcher.noCall(t, 100*time.Millisecond)
}

func TestFlipTimeoutRestoresTriggers(t *testing.T) {
	fetcher := newScriptedFetcher()
	o := NewOrchestrator(fetcher, &fixedBalances{balance: 1}, Config{
		SlippageBps:   100,
		FlipTimeout:   100 * time.Millisecond,
		Debounce:      time.Second,
		LookupTimeout: 5 * time.Second,
	}, quietLogger())
	defer o.Close()

	o.SetSellAsset(assetUSDC)
	o.SetBuyAsset(assetUSDT)
	initial := fetcher.next(t)
	initial.release <- poolFor(assetUSDC, assetUSDT)
	waitFor(t, o, func(s Snapshot) bool { return s.State == Quoted })

	o.Flip()
	fetcher.next(t) // flip refresh, never released

	// The safety timeout fires and the session leaves Flipping on its own.
	waitFor(t, o, func(s Snapshot) bool { return s.State != Flipping })

	// Triggers work again.
	o.SetBuyAsset(assetRAY)
	fetcher.next(t)
}

func TestNoPoolIsQuotedState(t *testing.T) {
	fetcher := newScriptedFetcher()
	o := newTestOrchestrator(fetcher)
	defer o.Close()

	o.SetSellAsset(assetUSDC)
	o.SetBuyAsset(assetUSDT)
	call := fetcher.next(t)
	call.release <- nil // pair has no liquidity anywhere

	snap := waitFor(t, o, func(s Snapshot) bool { return s.State == Quoted })
	assert.Nil(t, snap.Quote.Pool)
	assert.ErrorIs(t, snap.CheckExecutable(), ErrNoPool)
}

func TestBuyAnchoredQuote(t *testing.T) {
	fetcher := newScriptedFetcher()
	o := newTestOrchestrator(fetcher)
	defer o.Close()

	o.SetSellAsset(assetUSDC)
	o.SetBuyAsset(assetUSDT)
	fetcher.next(t).release <- poolFor(assetUSDC, assetUSDT)
	waitFor(t, o, func(s Snapshot) bool { return s.State == Quoted })

	o.SetBuyAmount("1")
	fetcher.next(t).release <- poolFor(assetUSDC, assetUSDT)

	snap := waitFor(t, o, func(s Snapshot) bool {
		return s.State == Quoted && s.Quote.AmountIn > 0
	})
	assert.Equal(t, Buy, snap.Quote.InputSide)
	assert.Equal(t, uint64(1_000_000), snap.Quote.AmountOut)
	// Max-in bound sits above the computed input.
	assert.Greater(t, snap.Quote.BoundAmount, snap.Quote.AmountIn)
}

func TestCheckExecutable(t *testing.T) {
	pool := poolFor(assetUSDC, assetUSDT)

	snap := Snapshot{
		Quote: Quote{
			SellAsset: assetUSDC,
			BuyAsset:  assetUSDT,
			AmountIn:  1_000_000,
			AmountOut: 1_990_000,
			Pool:      pool,
		},
		SellBalance: 5_000_000,
	}
	assert.NoError(t, snap.CheckExecutable())

	broke := snap
	broke.SellBalance = 100
	assert.ErrorIs(t, broke.CheckExecutable(), ErrInsufficientBalance)

	empty := snap
	empty.Quote.AmountIn = 0
	assert.ErrorIs(t, empty.CheckExecutable(), ErrNoAmount)

	noPool := snap
	noPool.Quote.Pool = nil
	assert.ErrorIs(t, noPool.CheckExecutable(), ErrNoPool)
}

func TestSubmissionDebounce(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)

	assert.True(t, d.Accept())
	assert.False(t, d.Accept())

	time.Sleep(150 * time.Millisecond)
	assert.True(t, d.Accept())
}

func TestOrchestratorDebounce(t *testing.T) {
	fetcher := newScriptedFetcher()
	o := newTestOrchestrator(fetcher)
	defer o.Close()

	assert.True(t, o.AcceptSubmission())
	assert.False(t, o.AcceptSubmission())
}
