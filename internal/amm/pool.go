package amm

import (
	"github.com/gagliardetto/solana-go"

	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

// Kind tags the pool curve type. Standard pools are quoted locally with
// constant-product math; Concentrated pools are only priced via their scalar
// price and routed to a different instruction builder at execution time.
type Kind string

const (
	Standard     Kind = "Standard"
	Concentrated Kind = "Concentrated"
)

// Pool is the normalized view of one liquidity pool, produced exactly once at
// the aggregator boundary. The math in this package never sees raw responses.
type Pool struct {
	ID    string
	Kind  Kind
	MintA token.Asset
	MintB token.Asset

	// Raw base-unit reserves. Valid only when HasReserves is set; standard
	// pools expose either reserves or a scalar price, never neither.
	ReserveA    uint64
	ReserveB    uint64
	HasReserves bool

	// Scalar price in human units: MintB per one MintA.
	Price    float64
	HasPrice bool

	// Trade fee as a fraction in [0,1), already normalized.
	FeeRate float64

	// Liquidity score from the aggregator, used only for ranking.
	Liquidity float64

	ProgramID solana.PublicKey
}

// Side reports whether the given mint is the pool's A side, B side, or
// foreign to the pool. Callers query with QueryMint(), so the pool sides are
// normalized the same way: a side denominated in native SOL matches its
// wrapped mint.
func (p *Pool) side(mint solana.PublicKey) (isA, ok bool) {
	switch {
	case p.MintA.QueryMint().Equals(mint):
		return true, true
	case p.MintB.QueryMint().Equals(mint):
		return false, true
	default:
		return false, false
	}
}

// ReservesFor orients the reserves for a trade selling the given asset.
func (p *Pool) ReservesFor(sell token.Asset) (reserveIn, reserveOut uint64, ok bool) {
	if !p.HasReserves {
		return 0, 0, false
	}
	isA, ok := p.side(sell.QueryMint())
	if !ok {
		return 0, 0, false
	}
	if isA {
		return p.ReserveA, p.ReserveB, true
	}
	return p.ReserveB, p.ReserveA, true
}

// OutAsset returns the pool asset on the opposite side of sell.
func (p *Pool) OutAsset(sell token.Asset) (token.Asset, bool) {
	isA, ok := p.side(sell.QueryMint())
	if !ok {
		return token.Asset{}, false
	}
	if isA {
		return p.MintB, true
	}
	return p.MintA, true
}

// PriceFor orients the scalar price for a trade selling the given asset:
// human units of output per one human unit of input.
func (p *Pool) PriceFor(sell token.Asset) (float64, bool) {
	if !p.HasPrice || p.Price <= 0 {
		return 0, false
	}
	isA, ok := p.side(sell.QueryMint())
	if !ok {
		return 0, false
	}
	if isA {
		return p.Price, true
	}
	return 1 / p.Price, true
}

// Contains reports whether both assets of a pair are sides of this pool.
func (p *Pool) Contains(a, b token.Asset) bool {
	_, okA := p.side(a.QueryMint())
	_, okB := p.side(b.QueryMint())
	return okA && okB
}
