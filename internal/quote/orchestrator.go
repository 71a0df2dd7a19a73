package quote

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// PoolFetcher finds the best-liquidity pool for a pair. A (nil, nil) return
// means no liquidity exists, which is a normal state.
type PoolFetcher interface {
	FetchBestPool(ctx context.Context, mintA, mintB solana.PublicKey) (*amm.Pool, error)
}

// BalanceGetter reports the active account's raw balance of an asset.
type BalanceGetter interface {
	GetBalance(ctx context.Context, asset token.Asset) (uint64, error)
}

// Config tunes the orchestrator's timing behavior.
type Config struct {
	SlippageBps   uint16
	FlipTimeout   time.Duration // safety bound on the Flipping state
	Debounce      time.Duration // duplicate-confirmation window
	LookupTimeout time.Duration // per pool-lookup deadline
}

func DefaultConfig() Config {
	return Config{
		SlippageBps:   100, // 1%
		FlipTimeout:   5 * time.Second,
		Debounce:      1 * time.Second,
		LookupTimeout: 15 * time.Second,
	}
}

// Orchestrator owns the quoting session. All session state is confined to a
// single event-loop goroutine; pool lookups run concurrently but may only
// mutate state by delivering a result event carrying their generation, which
// is discarded if a newer lookup has since been issued. That generation check
// replaces locking.
type Orchestrator struct {
	fetcher  PoolFetcher
	balances BalanceGetter
	cfg      Config
	logger   *logrus.Logger

	events chan event
	done   chan struct{}

	// Loop-owned state. Never touched outside run().
	state         State
	sell, buy     *token.Asset
	inputSide     Side
	amountIn      uint64
	amountOut     uint64
	pool          *amm.Pool
	sellBalance   uint64
	gen           uint64
	flipTimer     *time.Timer
	repriceNeeded bool

	// Published snapshot, replaced wholesale after every pass.
	mu          sync.RWMutex
	snapshot    Snapshot
	subscribers []chan Snapshot

	// Submission debounce; accessed from caller goroutines.
	debouncer *Debouncer
}

type eventKind int

const (
	evSellAsset eventKind = iota
	evBuyAsset
	evSellAmount
	evBuyAmount
	evFlip
	evReconnect
	evLookupDone
	evFlipTimeout
	evClose
)

type event struct {
	kind   eventKind
	asset  token.Asset
	amount string
	result lookupResult
	gen    uint64
}

type lookupResult struct {
	gen         uint64
	pool        *amm.Pool
	sellBalance uint64
	err         error
}

func NewOrchestrator(fetcher PoolFetcher, balances BalanceGetter, cfg Config, logger *logrus.Logger) *Orchestrator {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.FlipTimeout == 0 {
		cfg.FlipTimeout = DefaultConfig().FlipTimeout
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = DefaultConfig().LookupTimeout
	}

	o := &Orchestrator{
		fetcher:   fetcher,
		balances:  balances,
		cfg:       cfg,
		logger:    logger,
		events:    make(chan event, 64),
		done:      make(chan struct{}),
		state:     Idle,
		inputSide: Sell,
		debouncer: NewDebouncer(cfg.Debounce),
	}
	o.snapshot = Snapshot{State: Idle}
	go o.run()
	return o
}

// --- public API (safe from any goroutine) ---

func (o *Orchestrator) SetSellAsset(a token.Asset) { o.send(event{kind: evSellAsset, asset: a}) }
func (o *Orchestrator) SetBuyAsset(a token.Asset)  { o.send(event{kind: evBuyAsset, asset: a}) }

// SetSellAmount takes the human decimal string the user typed; parsing against
// the sell asset's decimals happens inside the loop. Anchors the trade on the
// sell side.
func (o *Orchestrator) SetSellAmount(s string) { o.send(event{kind: evSellAmount, amount: s}) }

// SetBuyAmount anchors the trade on the buy side.
func (o *Orchestrator) SetBuyAmount(s string) { o.send(event{kind: evBuyAmount, amount: s}) }

// Flip swaps the sell/buy assets as a single user action: amounts are
// cleared, exactly one refresh runs for the new orientation, and ordinary
// pair-change triggers are suppressed until it completes or the safety
// timeout fires.
func (o *Orchestrator) Flip() { o.send(event{kind: evFlip}) }

// Reconnect forces a refresh after a network outage.
func (o *Orchestrator) Reconnect() { o.send(event{kind: evReconnect}) }

func (o *Orchestrator) Close() { o.send(event{kind: evClose}) }

// Current returns the latest published snapshot.
func (o *Orchestrator) Current() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshot
}

// Subscribe returns a channel that receives every published snapshot. Slow
// consumers miss intermediate snapshots rather than blocking the loop.
func (o *Orchestrator) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 8)
	o.mu.Lock()
	o.subscribers = append(o.subscribers, ch)
	o.mu.Unlock()
	return ch
}

// AcceptSubmission implements the trade-submission debounce: a confirmation
// arriving within the debounce window of the previous one is rejected.
func (o *Orchestrator) AcceptSubmission() bool {
	return o.debouncer.Accept()
}

func (o *Orchestrator) send(ev event) {
	select {
	case o.events <- ev:
	case <-o.done:
	}
}

// --- event loop ---

func (o *Orchestrator) run() {
	for ev := range o.events {
		switch ev.kind {
		case evClose:
			o.stopFlipTimer()
			close(o.done)
			return
		case evSellAsset:
			a := ev.asset
			o.sell = &a
			if o.state == Flipping {
				o.repriceNeeded = true
				continue
			}
			o.startPricing()
		case evBuyAsset:
			a := ev.asset
			o.buy = &a
			if o.state == Flipping {
				o.repriceNeeded = true
				continue
			}
			o.startPricing()
		case evSellAmount:
			o.inputSide = Sell
			o.amountIn = o.parseAmount(o.sell, ev.amount)
			o.amountOut = 0
			if o.state == Flipping {
				o.repriceNeeded = true
				continue
			}
			o.startPricing()
		case evBuyAmount:
			o.inputSide = Buy
			o.amountOut = o.parseAmount(o.buy, ev.amount)
			o.amountIn = 0
			if o.state == Flipping {
				o.repriceNeeded = true
				continue
			}
			o.startPricing()
		case evFlip:
			o.handleFlip()
		case evReconnect:
			if o.state == Flipping {
				o.repriceNeeded = true
				continue
			}
			o.startPricing()
		case evLookupDone:
			o.handleLookupDone(ev.result)
		case evFlipTimeout:
			o.handleFlipTimeout(ev.gen)
		}
	}
}

func (o *Orchestrator) parseAmount(a *token.Asset, s string) uint64 {
	if a == nil || s == "" {
		return 0
	}
	raw, err := a.ToRaw(s)
	if err != nil {
		o.logger.WithError(err).Debug("rejecting unparseable amount")
		return 0
	}
	return raw
}

// startPricing issues a pool+balance lookup tagged with a fresh generation.
// Responses carrying any older generation are stragglers and get dropped on
// arrival, so out-of-order completions can never publish a stale pool.
func (o *Orchestrator) startPricing() {
	if o.sell == nil || o.buy == nil || o.sell.Same(*o.buy) {
		o.state = Idle
		o.pool = nil
		o.publish(false)
		return
	}

	o.gen++
	gen := o.gen
	if o.state != Flipping {
		o.state = Pricing
	}
	o.repriceNeeded = false
	o.publish(true)

	sell, buy := *o.sell, *o.buy
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.LookupTimeout)
		defer cancel()

		res := lookupResult{gen: gen}
		pool, err := o.fetcher.FetchBestPool(ctx, sell.QueryMint(), buy.QueryMint())
		if err != nil {
			res.err = err
		} else {
			res.pool = pool
		}

		if bal, err := o.balances.GetBalance(ctx, sell); err == nil {
			res.sellBalance = bal
		} else {
			o.logger.WithError(err).Warn("balance lookup failed")
		}

		o.send(event{kind: evLookupDone, result: res})
	}()
}

func (o *Orchestrator) handleLookupDone(res lookupResult) {
	if res.gen != o.gen {
		o.logger.WithFields(logrus.Fields{
			"got":    res.gen,
			"latest": o.gen,
		}).Debug("discarding stale pool lookup")
		return
	}

	wasFlipping := o.state == Flipping
	if wasFlipping {
		o.stopFlipTimer()
		o.state = Pricing
		if o.repriceNeeded {
			// The pair moved on while the flip was in flight; this result
			// belongs to the old orientation.
			o.startPricing()
			return
		}
	}

	if res.err != nil {
		o.logger.WithError(res.err).Warn("pool lookup failed")
		o.pool = nil
	} else {
		o.pool = res.pool
	}
	o.sellBalance = res.sellBalance

	o.recompute()
	o.state = Quoted
	o.publish(false)
}

// recompute fills the non-anchored amount field from the anchored one.
// A math failure clears the derived side but keeps the pool.
func (o *Orchestrator) recompute() {
	if o.pool == nil || o.sell == nil {
		if o.inputSide == Sell {
			o.amountOut = 0
		} else {
			o.amountIn = 0
		}
		return
	}

	switch o.inputSide {
	case Sell:
		if o.amountIn == 0 {
			o.amountOut = 0
			return
		}
		out, err := amm.ComputeOutputFromSell(o.pool, o.amountIn, *o.sell)
		if err != nil {
			o.logger.WithError(err).Debug("sell-side quote unavailable")
			o.amountOut = 0
			return
		}
		o.amountOut = out
	case Buy:
		if o.amountOut == 0 {
			o.amountIn = 0
			return
		}
		in, err := amm.ComputeSellFromBuy(o.pool, o.amountOut, *o.sell)
		if err != nil {
			o.logger.WithError(err).Debug("buy-side quote unavailable")
			o.amountIn = 0
			return
		}
		o.amountIn = in
	}
}

func (o *Orchestrator) handleFlip() {
	if o.state == Flipping {
		return
	}

	o.sell, o.buy = o.buy, o.sell
	o.amountIn, o.amountOut = 0, 0
	o.inputSide = Sell

	if o.sell == nil || o.buy == nil {
		o.state = Idle
		o.publish(false)
		return
	}

	o.state = Flipping
	o.startPricing()
	gen := o.gen

	o.stopFlipTimer()
	o.flipTimer = time.AfterFunc(o.cfg.FlipTimeout, func() {
		o.send(event{kind: evFlipTimeout, gen: gen})
	})
}

// handleFlipTimeout is the hard upper bound on the Flipping state: whatever
// happened to the flip's refresh, the session resumes reacting to input.
func (o *Orchestrator) handleFlipTimeout(gen uint64) {
	if o.state != Flipping || gen != o.gen {
		return
	}
	o.logger.Warn("direction flip timed out; resuming normal triggers")
	o.state = Quoted
	if o.repriceNeeded {
		o.startPricing()
	} else {
		o.publish(false)
	}
}

func (o *Orchestrator) stopFlipTimer() {
	if o.flipTimer != nil {
		o.flipTimer.Stop()
		o.flipTimer = nil
	}
}

// publish replaces the snapshot wholesale and fans it out.
func (o *Orchestrator) publish(loading bool) {
	q := Quote{
		InputSide:   o.inputSide,
		AmountIn:    o.amountIn,
		AmountOut:   o.amountOut,
		SlippageBps: o.cfg.SlippageBps,
		Pool:        o.pool,
		RequestID:   o.gen,
	}
	if o.sell != nil {
		q.SellAsset = *o.sell
	}
	if o.buy != nil {
		q.BuyAsset = *o.buy
	}

	switch q.InputSide {
	case Sell:
		q.BoundAmount = amm.MinAmountOut(q.AmountOut, q.SlippageBps)
	case Buy:
		q.BoundAmount = amm.MaxAmountIn(q.AmountIn, q.SlippageBps)
	}

	if o.pool != nil && o.sell != nil && q.AmountIn > 0 && q.AmountOut > 0 {
		if ri, ro, ok := o.pool.ReservesFor(*o.sell); ok {
			q.PriceImpact = amm.PriceImpact(ri, ro, q.AmountIn, q.AmountOut)
		}
	}

	snap := Snapshot{
		Quote:       q,
		State:       o.state,
		PoolLoading: loading,
		SellBalance: o.sellBalance,
	}

	o.mu.Lock()
	o.snapshot = snap
	subs := o.subscribers
	o.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
