package token

import (
	"github.com/gagliardetto/solana-go"
)

// Sentinel mints. Native SOL is not an SPL token, so it is represented by the
// system program id; pools only ever quote its wrapped counterpart.
var (
	NativeMint     = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	WrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

// Asset describes one fungible token the engine can trade.
type Asset struct {
	Mint     solana.PublicKey `json:"mint"`
	Symbol   string           `json:"symbol"`
	Decimals uint8            `json:"decimals"`
	Image    string           `json:"image,omitempty"`
}

// SOL is the native asset.
var SOL = Asset{Mint: NativeMint, Symbol: "SOL", Decimals: 9}

// IsNative reports whether the asset is native SOL (no token-account machinery).
func (a Asset) IsNative() bool {
	return a.Mint.Equals(NativeMint)
}

// QueryMint returns the mint to use when querying pools: pools never quote
// native SOL directly, only wrapped SOL.
func (a Asset) QueryMint() solana.PublicKey {
	if a.IsNative() {
		return WrappedSOLMint
	}
	return a.Mint
}

// SettleMint returns the mint whose token account actually holds the balance
// during a swap. Identical to QueryMint; named separately because callers use
// it for account setup rather than pool lookup.
func (a Asset) SettleMint() solana.PublicKey {
	return a.QueryMint()
}

// Same reports whether two assets refer to the same tradable token, treating
// native SOL and wrapped SOL as distinct (a SOL->wSOL wrap is not a swap).
func (a Asset) Same(b Asset) bool {
	return a.Mint.Equals(b.Mint)
}
