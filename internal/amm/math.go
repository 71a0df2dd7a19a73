package amm

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/umair-farooq/solana-swap-engine/internal/token"
)

var (
	// ErrUnpriceable means no pricing data exists for the pair on this pool.
	ErrUnpriceable = errors.New("pair cannot be priced on this pool")
	// ErrUnsatisfiable means the desired output meets or exceeds the pool's
	// reserve and no trade size can produce it.
	ErrUnsatisfiable = errors.New("desired output exceeds pool reserves")
)

// Fee arithmetic runs on integers with fees expressed in parts-per-million.
const feeDenomPPM = 1_000_000

// NormalizeFee accepts a fee expressed either as a fraction (0 < f < 1) or as
// a percentage (1 <= f <= 100) and returns a fraction in [0,1). Absent or
// unrecognized values normalize to zero.
func NormalizeFee(f float64) float64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	case f > 0 && f < 1:
		return f
	case f >= 1 && f <= 100:
		return f / 100
	default:
		return 0
	}
}

func feePPM(feeRate float64) uint64 {
	f := NormalizeFee(feeRate)
	ppm := uint64(math.Round(f * feeDenomPPM))
	if ppm >= feeDenomPPM {
		return feeDenomPPM - 1
	}
	return ppm
}

// ComputeOutputFromSell quotes the output amount for selling amountIn of the
// sell asset into the pool. Standard pools with known reserves use the
// constant-product curve with the fee deducted from the input; otherwise the
// pool's scalar price is used. Returns ErrUnpriceable when neither source of
// pricing exists.
func ComputeOutputFromSell(p *Pool, amountIn uint64, sell token.Asset) (uint64, error) {
	if p == nil {
		return 0, ErrUnpriceable
	}
	if amountIn == 0 {
		return 0, fmt.Errorf("amount in must be > 0")
	}

	if p.Kind == Standard {
		if ri, ro, ok := p.ReservesFor(sell); ok && ri > 0 && ro > 0 {
			out := curveOut(amountIn, ri, ro, feePPM(p.FeeRate))
			if out > 0 {
				return out, nil
			}
			// Dust-sized input on the curve; let the scalar price decide.
		}
	}

	return scalarOut(p, amountIn, sell)
}

// ComputeSellFromBuy is the algebraic inverse: the input amount needed to
// receive desiredOut of the buy side. Returns ErrUnsatisfiable when the
// desired output would drain the pool.
func ComputeSellFromBuy(p *Pool, desiredOut uint64, sell token.Asset) (uint64, error) {
	if p == nil {
		return 0, ErrUnpriceable
	}
	if desiredOut == 0 {
		return 0, fmt.Errorf("desired amount out must be > 0")
	}

	if p.Kind == Standard {
		if ri, ro, ok := p.ReservesFor(sell); ok && ri > 0 && ro > 0 {
			if desiredOut >= ro {
				return 0, ErrUnsatisfiable
			}
			in := curveIn(desiredOut, ri, ro, feePPM(p.FeeRate))
			if in > 0 {
				return in, nil
			}
		}
	}

	return scalarIn(p, desiredOut, sell)
}

// curveOut: out = (in*(1-fee) * Ro) / (Ri + in*(1-fee)), all in big.Int.
func curveOut(amountIn, reserveIn, reserveOut, fee uint64) uint64 {
	inAfterFee := new(big.Int).SetUint64(amountIn)
	inAfterFee.Mul(inAfterFee, big.NewInt(feeDenomPPM-int64(fee)))
	inAfterFee.Div(inAfterFee, big.NewInt(feeDenomPPM))

	num := new(big.Int).Mul(inAfterFee, new(big.Int).SetUint64(reserveOut))
	den := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), inAfterFee)
	out := num.Div(num, den)
	if !out.IsUint64() {
		return 0
	}
	return out.Uint64()
}

// curveIn: in = ceil(Ri*out / (Ro-out)) / (1-fee), rounded up at both steps so
// the quoted input is never too small to produce the requested output.
func curveIn(desiredOut, reserveIn, reserveOut, fee uint64) uint64 {
	num := new(big.Int).Mul(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(desiredOut))
	den := new(big.Int).SetUint64(reserveOut - desiredOut)
	gross := ceilDiv(num, den)

	gross.Mul(gross, big.NewInt(feeDenomPPM))
	in := ceilDiv(gross, big.NewInt(feeDenomPPM-int64(fee)))
	if !in.IsUint64() {
		return 0
	}
	return in.Uint64()
}

func ceilDiv(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// scalarOut quotes via the pool's oriented scalar price, converting between
// decimal scales through shopspring/decimal so no raw float ever reaches the
// on-chain amounts.
func scalarOut(p *Pool, amountIn uint64, sell token.Asset) (uint64, error) {
	price, ok := p.PriceFor(sell)
	if !ok {
		return 0, ErrUnpriceable
	}
	out, ok := p.OutAsset(sell)
	if !ok {
		return 0, ErrUnpriceable
	}

	fee := decimal.NewFromFloat(NormalizeFee(p.FeeRate))
	human := decimal.NewFromUint64(amountIn).
		Shift(-int32(sell.Decimals)).
		Mul(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromInt(1).Sub(fee))

	raw := human.Shift(int32(out.Decimals)).Truncate(0)
	if raw.Sign() <= 0 || !raw.BigInt().IsUint64() {
		return 0, ErrUnpriceable
	}
	return raw.BigInt().Uint64(), nil
}

func scalarIn(p *Pool, desiredOut uint64, sell token.Asset) (uint64, error) {
	price, ok := p.PriceFor(sell)
	if !ok || price <= 0 {
		return 0, ErrUnpriceable
	}
	out, ok := p.OutAsset(sell)
	if !ok {
		return 0, ErrUnpriceable
	}

	oneMinusFee := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(NormalizeFee(p.FeeRate)))
	if oneMinusFee.Sign() <= 0 {
		return 0, ErrUnpriceable
	}

	human := decimal.NewFromUint64(desiredOut).
		Shift(-int32(out.Decimals)).
		Div(decimal.NewFromFloat(price)).
		Div(oneMinusFee)

	raw := human.Shift(int32(sell.Decimals)).Ceil()
	if raw.Sign() <= 0 || !raw.BigInt().IsUint64() {
		return 0, ErrUnpriceable
	}
	return raw.BigInt().Uint64(), nil
}

// PriceImpact estimates the relative loss against the pool's spot rate.
// Display only; never feeds the on-chain bound.
func PriceImpact(reserveIn, reserveOut, amountIn, amountOut uint64) float64 {
	if reserveIn == 0 || amountIn == 0 {
		return 0
	}
	ideal := float64(reserveOut) / float64(reserveIn)
	if ideal <= 0 {
		return 0
	}
	exec := float64(amountOut) / float64(amountIn)
	return math.Max(0, 1-exec/ideal)
}
