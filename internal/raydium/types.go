package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// apiMint is the aggregator's token descriptor.
type apiMint struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// apiPoolInfo is the raw pool shape returned by /pools/info/mint. Reserve and
// price fields are optional depending on pool type; normalization sorts that
// out once so nothing downstream sniffs field presence.
type apiPoolInfo struct {
	Type      string  `json:"type"` // "Standard" | "Concentrated"
	ProgramID string  `json:"programId"`
	ID        string  `json:"id"`
	MintA     apiMint `json:"mintA"`
	MintB     apiMint `json:"mintB"`

	Price       *float64 `json:"price,omitempty"`
	MintAmountA *float64 `json:"mintAmountA,omitempty"`
	MintAmountB *float64 `json:"mintAmountB,omitempty"`
	FeeRate     float64  `json:"feeRate"`
	TVL         float64  `json:"tvl"`
}

type poolsByMintResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Count int           `json:"count"`
		Data  []apiPoolInfo `json:"data"`
	} `json:"data"`
}

type poolsByIDResponse struct {
	Success bool          `json:"success"`
	Data    []apiPoolInfo `json:"data"`
}

// apiPoolKeys is the raw execution-account shape from /pools/key/ids.
type apiPoolKeys struct {
	ID        string  `json:"id"`
	ProgramID string  `json:"programId"`
	MintA     apiMint `json:"mintA"`
	MintB     apiMint `json:"mintB"`
	Authority string  `json:"authority"`
	Vault     struct {
		A string `json:"A"`
		B string `json:"B"`
	} `json:"vault"`
	OpenOrders    string `json:"openOrders,omitempty"`
	TargetOrders  string `json:"targetOrders,omitempty"`
	Config        string `json:"config,omitempty"`        // CLMM amm config
	ObservationID string `json:"observationId,omitempty"` // CLMM observation state
	ExBitmap      string `json:"exBitmapAccount,omitempty"`
}

type poolKeysResponse struct {
	Success bool          `json:"success"`
	Data    []apiPoolKeys `json:"data"`
}

// PoolKeys holds the parsed on-chain accounts needed to execute against a pool.
type PoolKeys struct {
	ID        solana.PublicKey
	ProgramID solana.PublicKey
	Authority solana.PublicKey
	VaultA    solana.PublicKey
	VaultB    solana.PublicKey
	MintA     solana.PublicKey
	MintB     solana.PublicKey

	// Standard-pool market accounts.
	OpenOrders   solana.PublicKey
	TargetOrders solana.PublicKey

	// Concentrated-pool accounts.
	AmmConfig     solana.PublicKey
	ObservationID solana.PublicKey
	ExBitmap      solana.PublicKey
}

// SwapSettings is the remotely-configured fee-skim policy.
type SwapSettings struct {
	FeeBps   uint16 `json:"feeBps"`
	Receiver string `json:"receiver"`
}
