// Package sizing converts wallet balance and slot accounting into an
// exchange-legal contract quantity.
package sizing

import (
	"github.com/shopspring/decimal"
)

// MaxBalanceFraction caps a single slice so one signal can never commit more
// than half the wallet, regardless of slot accounting.
const MaxBalanceFraction = 0.5

// Result is the outcome of sizing one prospective trade.
type Result struct {
	SliceUSDT float64
	Qty       float64
}

// SliceAmount splits the available balance across the remaining position
// slots. currentOpenCount includes trades opened earlier in the same scan.
// The result is always in [0, MaxBalanceFraction*availableBalance].
func SliceAmount(availableBalance float64, maxSlices, currentOpenCount int) float64 {
	if availableBalance <= 0 {
		return 0
	}

	remainingSlots := maxSlices - currentOpenCount
	if remainingSlots < 1 {
		remainingSlots = 1
	}

	slice := availableBalance / float64(remainingSlots)
	if maxSlice := availableBalance * MaxBalanceFraction; slice > maxSlice {
		slice = maxSlice
	}
	return slice
}

// NormalizeQuantity converts a margin slice into a contract quantity:
// notional = slice * leverage, raw = notional / price, floored to the
// nearest multiple of stepSize. Flooring never rounds up, so the order can
// never exceed the affordable notional; the cost is under-sizing by at most
// one step. A zero return means "do not trade this symbol this tick".
func NormalizeQuantity(sliceUSDT float64, leverage int, price, stepSize float64) float64 {
	if price <= 0 || sliceUSDT <= 0 || leverage <= 0 {
		return 0
	}
	if stepSize <= 0 {
		stepSize = 1
	}

	notional := decimal.NewFromFloat(sliceUSDT).Mul(decimal.NewFromInt(int64(leverage)))
	raw := notional.Div(decimal.NewFromFloat(price))
	step := decimal.NewFromFloat(stepSize)

	// Floor raw to a whole number of steps.
	qty := raw.Div(step).Floor().Mul(step)
	if qty.Sign() <= 0 {
		return 0
	}

	out, _ := qty.Float64()
	return out
}
