package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK     bool   `json:"ok"`     // Service health status
	Wallet string `json:"wallet"` // Active trading wallet address
}

// AssetView is the wire form of one side of a quote
type AssetView struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
}

// QuoteResponse represents a priced trade
type QuoteResponse struct {
	SellAsset AssetView `json:"sellAsset"`
	BuyAsset  AssetView `json:"buyAsset"`
	Side      string    `json:"side"` // anchored side: "Sell" | "Buy"

	AmountIn    uint64  `json:"amountIn"`  // raw base units
	AmountOut   uint64  `json:"amountOut"` // raw base units
	AmountInUI  string  `json:"amountInUi,omitempty"`
	AmountOutUI string  `json:"amountOutUi,omitempty"`
	BoundAmount uint64  `json:"boundAmount"` // min-out or max-in after slippage
	SlippageBps uint16  `json:"slippageBps"`
	PriceImpact float64 `json:"priceImpact"`

	PoolID   string `json:"poolId"`
	PoolKind string `json:"poolKind"`
}

// SwapRequest represents a request to execute a swap
type SwapRequest struct {
	InputMint   string `json:"inputMint"`  // mint address, or "SOL" for native
	OutputMint  string `json:"outputMint"` // mint address, or "SOL" for native
	Amount      string `json:"amount"`     // raw base units of the anchored side
	Side        string `json:"side"`       // "Sell" (default) | "Buy"
	SlippageBps uint16 `json:"slippageBps,omitempty"`
}

// SwapResponse represents the outcome of an executed swap
type SwapResponse struct {
	Status    string `json:"status"`
	Signature string `json:"signature,omitempty"`
	AmountIn  uint64 `json:"amountIn"`
	AmountOut uint64 `json:"amountOut"`
	FeePaid   uint64 `json:"feePaid"`
	PoolID    string `json:"poolId"`
}

// PriceResponse represents cached pair price information
type PriceResponse struct {
	Pair  string  `json:"pair"`
	Price float64 `json:"price"`
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`   // Flag key (must match regex pattern)
	Value bool   `json:"value"` // Flag value (true/false)
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value bool `json:"value"` // New flag value
}
