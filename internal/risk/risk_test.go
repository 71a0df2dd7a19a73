package risk

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"github.com/umair-farooq/solana-swap-engine/internal/quote"
	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

var usdc = token.Asset{
	Mint:     solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
	Symbol:   "USDC",
	Decimals: 6,
}

func solSell(lamports uint64) *quote.Quote {
	return &quote.Quote{
		SellAsset:   token.SOL,
		BuyAsset:    usdc,
		InputSide:   quote.Sell,
		AmountIn:    lamports,
		AmountOut:   150_000_000,
		SlippageBps: 100,
	}
}

func TestPerTradeLimit(t *testing.T) {
	m := NewManager(Config{MaxTradeSOL: 1.0})

	assert.NoError(t, m.CheckTrade(solSell(500_000_000)))
	assert.NoError(t, m.CheckTrade(solSell(1_000_000_000)))
	assert.Error(t, m.CheckTrade(solSell(1_500_000_000)))
}

func TestDailyLimit(t *testing.T) {
	m := NewManager(Config{DailyLimitSOL: 2.0})

	q := solSell(900_000_000)
	assert.NoError(t, m.CheckTrade(q))
	m.RecordTrade(q)
	m.RecordTrade(q)

	// 1.8 used, 0.9 more would cross 2.0.
	assert.Error(t, m.CheckTrade(q))
	assert.NoError(t, m.CheckTrade(solSell(100_000_000)))
}

func TestBuySideValuation(t *testing.T) {
	m := NewManager(Config{MaxTradeSOL: 1.0})

	// SOL on the buy side: value comes from the output amount.
	q := &quote.Quote{
		SellAsset: usdc,
		BuyAsset:  token.SOL,
		InputSide: quote.Sell,
		AmountIn:  300_000_000,
		AmountOut: 2_000_000_000,
	}
	assert.Error(t, m.CheckTrade(q))

	q.AmountOut = 500_000_000
	assert.NoError(t, m.CheckTrade(q))
}

func TestMintWhitelist(t *testing.T) {
	m := NewManager(Config{AllowedMints: []string{
		token.SOL.Mint.String(),
		usdc.Mint.String(),
	}})
	assert.NoError(t, m.CheckTrade(solSell(100_000_000)))

	other := token.Asset{
		Mint:     solana.MustPublicKeyFromBase58("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"),
		Symbol:   "BONK",
		Decimals: 5,
	}
	q := solSell(100_000_000)
	q.BuyAsset = other
	assert.Error(t, m.CheckTrade(q))
}

func TestPriceImpactLimit(t *testing.T) {
	m := NewManager(Config{MaxPriceImpactBps: 500})

	q := solSell(100_000_000)
	q.PriceImpact = 0.03
	assert.NoError(t, m.CheckTrade(q))

	q.PriceImpact = 0.06
	assert.Error(t, m.CheckTrade(q))
}

func TestSlippageLimit(t *testing.T) {
	m := NewManager(Config{MaxSlippageBps: 1000})

	q := solSell(100_000_000)
	assert.NoError(t, m.CheckTrade(q))

	q.SlippageBps = 2000
	assert.Error(t, m.CheckTrade(q))
}

func TestZeroLimitsDisableChecks(t *testing.T) {
	m := NewManager(Config{})
	q := solSell(50_000_000_000)
	q.PriceImpact = 0.5
	q.SlippageBps = 9_000
	assert.NoError(t, m.CheckTrade(q))
}
