package models

import "time"

// SwapRecord is the persisted record of one executed swap. Amounts are raw
// base units; the decimals travel alongside so consumers can render them.
type SwapRecord struct {
	Signature string    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
	Wallet    string    `json:"wallet"`

	Pair         string `json:"pair"` // e.g. "SOL/USDC"
	SellMint     string `json:"sell_mint"`
	BuyMint      string `json:"buy_mint"`
	SellDecimals uint8  `json:"sell_decimals"`
	BuyDecimals  uint8  `json:"buy_decimals"`

	Side      string `json:"side"` // anchored side: "Sell" | "Buy"
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
	FeePaid   uint64 `json:"fee_paid"`

	PoolID      string  `json:"pool_id"`
	PoolKind    string  `json:"pool_kind"` // "Standard" | "Concentrated"
	PriceImpact float64 `json:"price_impact"`
	SlippageBps uint16  `json:"slippage_bps"`

	Status string `json:"status"` // "Succeeded" | "Unconfirmed" | "Failed"
}
