package quote

import (
	"errors"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// Side marks which amount field anchors the trade.
type Side string

const (
	Sell Side = "Sell" // exact input, minimum output bound
	Buy  Side = "Buy"  // exact output, maximum input bound
)

// State of the quoting session.
type State string

const (
	// Idle: no complete pair selected.
	Idle State = "Idle"
	// Pricing: pool lookup and math in flight.
	Pricing State = "Pricing"
	// Quoted: a stable quote is available.
	Quoted State = "Quoted"
	// Flipping: a direction flip is in progress; pair-change pricing
	// triggers are suppressed until it completes or times out.
	Flipping State = "Flipping"
)

// Quote is the published result of one pricing pass. Consumers copy it and
// never patch its fields; the orchestrator replaces it wholesale.
type Quote struct {
	SellAsset token.Asset `json:"sellAsset"`
	BuyAsset  token.Asset `json:"buyAsset"`
	InputSide Side        `json:"inputSide"`

	// Raw base-unit amounts; zero means the field is empty.
	AmountIn  uint64 `json:"amountIn"`
	AmountOut uint64 `json:"amountOut"`

	// BoundAmount is the minimum acceptable output (Sell-anchored) or the
	// maximum acceptable input (Buy-anchored) after slippage.
	BoundAmount uint64 `json:"boundAmount"`
	SlippageBps uint16 `json:"slippageBps"`

	Pool      *amm.Pool `json:"pool,omitempty"`
	RequestID uint64    `json:"requestId"`

	// Display only.
	PriceImpact float64 `json:"priceImpact"`
}

// Valid reports whether the quote refers to a priceable pair at all.
func (q *Quote) Valid() bool {
	return q.Pool != nil && !q.SellAsset.Same(q.BuyAsset)
}

// Snapshot is the reactive value exposed to the UI layer.
type Snapshot struct {
	Quote       Quote  `json:"quote"`
	State       State  `json:"state"`
	PoolLoading bool   `json:"poolLoading"`
	SellBalance uint64 `json:"sellBalance"`
}

var (
	// ErrNoPool: no liquidity for the pair. A terminal state, not a fault.
	ErrNoPool = errors.New("no pool found for pair")
	// ErrUnpriced: a pool exists but the pair could not be priced.
	ErrUnpriced = errors.New("price unavailable")
	// ErrNoAmount: no positive trade amount entered.
	ErrNoAmount = errors.New("trade amount missing")
	// ErrInsufficientBalance: the sell amount exceeds the tracked balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrDebounced: a duplicate confirmation tap inside the debounce window.
	ErrDebounced = errors.New("duplicate submission ignored")
)

// CheckExecutable applies the eligibility gate to a snapshot.
func (s *Snapshot) CheckExecutable() error {
	if s.Quote.Pool == nil {
		return ErrNoPool
	}
	if s.Quote.AmountIn == 0 || s.Quote.AmountOut == 0 {
		return ErrNoAmount
	}
	if s.Quote.AmountIn > s.SellBalance {
		return ErrInsufficientBalance
	}
	return nil
}
