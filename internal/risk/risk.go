package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/umair-farooq/solana-swap-engine/internal/quote"
)

// Config defines risk management parameters for trade execution.
type Config struct {
	// Per-transaction limit in SOL value
	MaxTradeSOL float64

	// Rolling 24h limit in SOL value
	DailyLimitSOL float64

	// Max price impact in bps (e.g. 500 = 5%)
	MaxPriceImpactBps uint16

	// Max allowed slippage in bps
	MaxSlippageBps uint16

	// Mint whitelist (empty = allow all)
	AllowedMints []string
}

// DefaultConfig returns conservative limits.
func DefaultConfig() Config {
	return Config{
		MaxTradeSOL:       1.0,
		DailyLimitSOL:     10.0,
		MaxPriceImpactBps: 500,
		MaxSlippageBps:    1000,
	}
}

// Manager enforces risk limits over a stream of trades. Safe for concurrent
// use.
type Manager struct {
	cfg     Config
	tracker *dailyTracker
}

func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, tracker: newDailyTracker()}
}

// CheckTrade validates a priced trade against the limits. A non-nil error
// names the violated rule; execution must not proceed.
func (m *Manager) CheckTrade(q *quote.Quote) error {
	value := tradeValueSOL(q)

	if m.cfg.MaxTradeSOL > 0 && value > m.cfg.MaxTradeSOL {
		return fmt.Errorf("trade value %.4f SOL exceeds per-trade limit %.4f SOL", value, m.cfg.MaxTradeSOL)
	}

	if m.cfg.DailyLimitSOL > 0 {
		used := m.tracker.usage()
		if used+value > m.cfg.DailyLimitSOL {
			return fmt.Errorf("daily limit exceeded: %.4f + %.4f > %.4f SOL", used, value, m.cfg.DailyLimitSOL)
		}
	}

	if len(m.cfg.AllowedMints) > 0 {
		if !m.mintAllowed(q.SellAsset.Mint.String()) || !m.mintAllowed(q.BuyAsset.Mint.String()) {
			return fmt.Errorf("mint not whitelisted: %s or %s", q.SellAsset.Mint, q.BuyAsset.Mint)
		}
	}

	if m.cfg.MaxPriceImpactBps > 0 && q.PriceImpact*10_000 > float64(m.cfg.MaxPriceImpactBps) {
		return fmt.Errorf("price impact %.2f%% exceeds max %.2f%%",
			q.PriceImpact*100, float64(m.cfg.MaxPriceImpactBps)/100)
	}

	if m.cfg.MaxSlippageBps > 0 && q.SlippageBps > m.cfg.MaxSlippageBps {
		return fmt.Errorf("slippage %d bps exceeds max %d bps", q.SlippageBps, m.cfg.MaxSlippageBps)
	}

	return nil
}

// RecordTrade adds an executed trade to the rolling daily usage.
func (m *Manager) RecordTrade(q *quote.Quote) {
	m.tracker.record(tradeValueSOL(q))
}

func (m *Manager) mintAllowed(mint string) bool {
	for _, allowed := range m.cfg.AllowedMints {
		if allowed == mint {
			return true
		}
	}
	return false
}

// tradeValueSOL estimates the SOL value of a trade. Only trades with a native
// leg can be valued exactly; others count as a small nominal value so the
// daily tracker still sees them.
func tradeValueSOL(q *quote.Quote) float64 {
	if q.SellAsset.IsNative() {
		v, _ := decimal.NewFromUint64(q.AmountIn).Shift(-9).Float64()
		return v
	}
	if q.BuyAsset.IsNative() {
		v, _ := decimal.NewFromUint64(q.AmountOut).Shift(-9).Float64()
		return v
	}
	return 0.01
}

// dailyTracker tracks rolling 24-hour usage.
type dailyTracker struct {
	mu     sync.Mutex
	trades []tradeRecord
}

type tradeRecord struct {
	at       time.Time
	valueSOL float64
}

func newDailyTracker() *dailyTracker {
	return &dailyTracker{}
}

func (t *dailyTracker) record(valueSOL float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.trades = append(t.trades, tradeRecord{at: time.Now(), valueSOL: valueSOL})
	t.cleanupLocked()
}

func (t *dailyTracker) usage() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanupLocked()

	total := 0.0
	for _, tr := range t.trades {
		total += tr.valueSOL
	}
	return total
}

func (t *dailyTracker) cleanupLocked() {
	cutoff := time.Now().Add(-24 * time.Hour)
	kept := t.trades[:0]
	for _, tr := range t.trades {
		if tr.at.After(cutoff) {
			kept = append(kept, tr)
		}
	}
	t.trades = kept
}
