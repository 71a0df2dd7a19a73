package raydium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
)

const (
	wsolAddr  = "So11111111111111111111111111111111111111112"
	usdcAddr  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	ammV4Addr = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	clmmAddr  = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
)

func ptr(f float64) *float64 { return &f }

func standardInfo() apiPoolInfo {
	return apiPoolInfo{
		Type:        "Standard",
		ProgramID:   ammV4Addr,
		ID:          "pool-1",
		MintA:       apiMint{Address: wsolAddr, Symbol: "WSOL", Decimals: 9},
		MintB:       apiMint{Address: usdcAddr, Symbol: "USDC", Decimals: 6},
		Price:       ptr(150.0),
		MintAmountA: ptr(1000.0),
		MintAmountB: ptr(150000.0),
		FeeRate:     0.0025,
		TVL:         300000,
	}
}

func TestNormalizePool_Standard(t *testing.T) {
	p, err := normalizePool(standardInfo())
	require.NoError(t, err)

	assert.Equal(t, amm.Standard, p.Kind)
	assert.True(t, p.HasReserves)
	assert.Equal(t, uint64(1_000_000_000_000), p.ReserveA)  // 1000 SOL at 9 decimals
	assert.Equal(t, uint64(150_000_000_000), p.ReserveB)    // 150k USDC at 6 decimals
	assert.True(t, p.HasPrice)
	assert.Equal(t, 150.0, p.Price)
	assert.Equal(t, 0.0025, p.FeeRate)
	assert.Equal(t, "WSOL", p.MintA.Symbol)
	assert.Equal(t, uint8(6), p.MintB.Decimals)
}

func TestNormalizePool_StandardPriceOnly(t *testing.T) {
	raw := standardInfo()
	raw.MintAmountA = nil
	raw.MintAmountB = nil

	p, err := normalizePool(raw)
	require.NoError(t, err)
	assert.False(t, p.HasReserves)
	assert.True(t, p.HasPrice)
}

func TestNormalizePool_StandardWithoutPricing(t *testing.T) {
	raw := standardInfo()
	raw.Price = nil
	raw.MintAmountA = nil
	raw.MintAmountB = nil

	_, err := normalizePool(raw)
	assert.Error(t, err)
}

func TestNormalizePool_Concentrated(t *testing.T) {
	raw := standardInfo()
	raw.Type = "Concentrated"
	raw.ProgramID = clmmAddr

	p, err := normalizePool(raw)
	require.NoError(t, err)

	assert.Equal(t, amm.Concentrated, p.Kind)
	// Concentrated vault totals are not curve reserves and must not be
	// carried into the quoting math.
	assert.False(t, p.HasReserves)
	assert.True(t, p.HasPrice)
}

func TestNormalizePool_PercentFee(t *testing.T) {
	raw := standardInfo()
	raw.FeeRate = 25 // percent form

	p, err := normalizePool(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.25, p.FeeRate)
}

func TestNormalizePool_UnknownType(t *testing.T) {
	raw := standardInfo()
	raw.Type = "Stable"

	_, err := normalizePool(raw)
	assert.Error(t, err)
}

func TestParsePoolKeys(t *testing.T) {
	raw := apiPoolKeys{
		ID:        "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R",
		ProgramID: ammV4Addr,
		MintA:     apiMint{Address: wsolAddr},
		MintB:     apiMint{Address: usdcAddr},
		Authority: "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1",
		Vault: struct {
			A string `json:"A"`
			B string `json:"B"`
		}{
			A: "DQyrAcCrDXQ7NeoqGgDCZwBvWDcYmFCjSb9JtteuvPpz",
			B: "HLmqeL62xR1QoZ1HKKbXRrdN1p3phKpxRMb2VVopvBBz",
		},
		OpenOrders:   "HRk9CMrpq7Jn9sh7mzxE8CChHG8dneX9p475QKz4Fsfc",
		TargetOrders: "CZza3Ej4Mc58MnxWA385itCC9jCo3L1D7zc3LKy1bZMR",
	}

	keys, err := parsePoolKeys(raw)
	require.NoError(t, err)
	assert.False(t, keys.ID.IsZero())
	assert.False(t, keys.VaultA.IsZero())
	assert.False(t, keys.OpenOrders.IsZero())
	assert.True(t, keys.ObservationID.IsZero())

	raw.Vault.A = ""
	_, err = parsePoolKeys(raw)
	assert.Error(t, err)
}
