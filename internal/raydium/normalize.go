package raydium

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/umair-farooq/solana-swap-engine/internal/amm"
)

// normalizePool converts a raw aggregator entry into the tagged pool union.
// This is the single place where field presence is inspected; past here a
// Standard pool always has reserves or a price, and a Concentrated pool is
// only ever priced by its scalar price.
func normalizePool(raw apiPoolInfo) (*amm.Pool, error) {
	mintA, err := assetFromMint(raw.MintA)
	if err != nil {
		return nil, err
	}
	mintB, err := assetFromMint(raw.MintB)
	if err != nil {
		return nil, err
	}

	program, err := solana.PublicKeyFromBase58(raw.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("pool %s: invalid programId: %w", raw.ID, err)
	}

	p := &amm.Pool{
		ID:        raw.ID,
		MintA:     mintA,
		MintB:     mintB,
		FeeRate:   amm.NormalizeFee(raw.FeeRate),
		Liquidity: raw.TVL,
		ProgramID: program,
	}

	switch raw.Type {
	case "Standard":
		p.Kind = amm.Standard
	case "Concentrated":
		p.Kind = amm.Concentrated
	default:
		return nil, fmt.Errorf("pool %s: unknown pool type %q", raw.ID, raw.Type)
	}

	if raw.Price != nil && *raw.Price > 0 {
		p.Price = *raw.Price
		p.HasPrice = true
	}

	// Reserves arrive in human units; convert to raw base units so quoting
	// stays in integer arithmetic. Concentrated reserve amounts are vault
	// totals, not curve liquidity, so they are deliberately not carried over.
	if p.Kind == amm.Standard && raw.MintAmountA != nil && raw.MintAmountB != nil {
		ra, okA := humanToRaw(*raw.MintAmountA, mintA.Decimals)
		rb, okB := humanToRaw(*raw.MintAmountB, mintB.Decimals)
		if okA && okB && ra > 0 && rb > 0 {
			p.ReserveA = ra
			p.ReserveB = rb
			p.HasReserves = true
		}
	}

	if p.Kind == amm.Standard && !p.HasReserves && !p.HasPrice {
		return nil, fmt.Errorf("pool %s: standard pool with neither reserves nor price", raw.ID)
	}

	return p, nil
}

func humanToRaw(amount float64, decimals uint8) (uint64, bool) {
	if amount <= 0 {
		return 0, false
	}
	raw := decimal.NewFromFloat(amount).Shift(int32(decimals)).Truncate(0)
	if !raw.BigInt().IsUint64() {
		return 0, false
	}
	return raw.BigInt().Uint64(), true
}

func parsePoolKeys(raw apiPoolKeys) (*PoolKeys, error) {
	parse := func(name, s string) (solana.PublicKey, error) {
		if s == "" {
			return solana.PublicKey{}, nil
		}
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("pool keys %s: invalid %s: %w", raw.ID, name, err)
		}
		return pk, nil
	}

	keys := &PoolKeys{}
	var err error
	if keys.ID, err = parse("id", raw.ID); err != nil {
		return nil, err
	}
	if keys.ProgramID, err = parse("programId", raw.ProgramID); err != nil {
		return nil, err
	}
	if keys.Authority, err = parse("authority", raw.Authority); err != nil {
		return nil, err
	}
	if keys.VaultA, err = parse("vault.A", raw.Vault.A); err != nil {
		return nil, err
	}
	if keys.VaultB, err = parse("vault.B", raw.Vault.B); err != nil {
		return nil, err
	}
	if keys.MintA, err = parse("mintA", raw.MintA.Address); err != nil {
		return nil, err
	}
	if keys.MintB, err = parse("mintB", raw.MintB.Address); err != nil {
		return nil, err
	}
	if keys.OpenOrders, err = parse("openOrders", raw.OpenOrders); err != nil {
		return nil, err
	}
	if keys.TargetOrders, err = parse("targetOrders", raw.TargetOrders); err != nil {
		return nil, err
	}
	if keys.AmmConfig, err = parse("config", raw.Config); err != nil {
		return nil, err
	}
	if keys.ObservationID, err = parse("observationId", raw.ObservationID); err != nil {
		return nil, err
	}
	if keys.ExBitmap, err = parse("exBitmapAccount", raw.ExBitmap); err != nil {
		return nil, err
	}

	if keys.ID.IsZero() || keys.ProgramID.IsZero() || keys.VaultA.IsZero() || keys.VaultB.IsZero() {
		return nil, fmt.Errorf("pool keys %s: missing required accounts", raw.ID)
	}
	return keys, nil
}
