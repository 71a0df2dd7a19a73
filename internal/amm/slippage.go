package amm

import "math/big"

// MinAmountOut applies a slippage tolerance to a sell-anchored quote:
// the minimum output the trader will accept.
func MinAmountOut(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0
	}
	v := new(big.Int).SetUint64(amountOut)
	v.Mul(v, big.NewInt(int64(10000-slippageBps)))
	v.Div(v, big.NewInt(10000))
	return v.Uint64()
}

// MaxAmountIn applies a slippage tolerance to a buy-anchored quote:
// the maximum input the trader will pay. Rounded up so the bound is never
// tighter than the tolerance.
func MaxAmountIn(amountIn uint64, slippageBps uint16) uint64 {
	v := new(big.Int).SetUint64(amountIn)
	v.Mul(v, big.NewInt(int64(10000)+int64(slippageBps)))
	out := ceilDiv(v, big.NewInt(10000))
	if !out.IsUint64() {
		return amountIn
	}
	return out.Uint64()
}
