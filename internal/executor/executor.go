// Package executor converts a breakout signal into a capital-sized,
// exchange-compliant order sequence: margin/leverage setup, market entry,
// reduce-only take-profit exit.
package executor

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/amirphl/spike-trader/internal/exchange"
	"github.com/amirphl/spike-trader/internal/metrics"
	"github.com/amirphl/spike-trader/internal/sizing"
	"github.com/amirphl/spike-trader/internal/strategy"
)

// WarningCode identifies a non-fatal degradation inside the pipeline.
type WarningCode string

const (
	// WarnMarginMode: isolated-margin setup failed; the symbol may already
	// be configured or restricted.
	WarnMarginMode WarningCode = "margin_mode"

	// WarnBalanceFallback: the balance read failed and the conservative
	// placeholder balance was used for sizing.
	WarnBalanceFallback WarningCode = "balance_fallback"

	// WarnPriceFallback: the live ticker read failed and the signal's
	// estimated entry price was used instead.
	WarnPriceFallback WarningCode = "price_fallback"

	// WarnFillFallback: the entry order reported no average fill price and
	// the pre-trade reference price was recorded as the fill.
	WarnFillFallback WarningCode = "fill_fallback"

	// WarnMissingTP: the take-profit order could not be placed; the entry
	// stands unprotected.
	WarnMissingTP WarningCode = "missing_tp"
)

// Warning is a recoverable failure the caller may branch on.
type Warning struct {
	Code WarningCode
	Err  string
}

// Outcome is the terminal artifact of the pipeline for one symbol.
// OK with a nil TPPrice means the position is open but has no protective
// exit order.
type Outcome struct {
	OK        bool
	FillPrice float64
	Qty       float64
	TPPrice   *float64
	SliceUSDT float64
	Err       string
	Warnings  []Warning
}

// HasWarning reports whether a warning with the given code was recorded.
func (o Outcome) HasWarning(code WarningCode) bool {
	for _, w := range o.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Config holds the fixed trade policy.
type Config struct {
	Leverage        int     // fixed leverage applied to every trade
	TPPct           float64 // take-profit fraction, e.g. 0.03
	MaxSlices       int     // maximum concurrent position slots
	FallbackBalance float64 // balance substituted when the wallet read fails
	QuoteAsset      string  // e.g. "USDT"
	AllIn           bool    // alternate profile: ignore slot accounting
}

// DefaultConfig mirrors the policy constants the strategy was tuned with.
func DefaultConfig() Config {
	return Config{
		Leverage:        5,
		TPPct:           0.03,
		MaxSlices:       10,
		FallbackBalance: 1000,
		QuoteAsset:      "USDT",
	}
}

type Executor struct {
	cfg Config
	ex  exchange.Exchange
}

func New(cfg Config, ex exchange.Exchange) *Executor {
	if cfg.Leverage <= 0 {
		cfg.Leverage = 5
	}
	if cfg.MaxSlices <= 0 {
		cfg.MaxSlices = 1
	}
	if cfg.FallbackBalance <= 0 {
		cfg.FallbackBalance = 1000
	}
	if cfg.QuoteAsset == "" {
		cfg.QuoteAsset = "USDT"
	}
	return &Executor{cfg: cfg, ex: ex}
}

// OpenTrade runs the per-symbol state machine:
//
//	ConfigureMargin -> ConfigureLeverage -> Size -> PlaceEntry -> PlaceExit
//
// No state is revisited. Margin and exit failures degrade to warnings;
// leverage, sizing, and entry failures abort. currentOpenCount includes
// trades opened earlier in the same scan and is passed by value; the
// executor never mutates slot accounting.
func (e *Executor) OpenTrade(ctx context.Context, sig strategy.Signal, stepSize float64, currentOpenCount int) Outcome {
	var out Outcome

	// 1) Isolated margin, best-effort.
	if err := e.ex.SetMarginType(ctx, sig.Symbol, exchange.MarginIsolated); err != nil {
		log.Printf("Executor | %s margin type change: %v", sig.Symbol, err)
		out.Warnings = append(out.Warnings, Warning{Code: WarnMarginMode, Err: err.Error()})
	}

	// 2) Leverage. Failure here is fatal for this symbol.
	if err := e.ex.SetLeverage(ctx, sig.Symbol, e.cfg.Leverage); err != nil {
		log.Printf("Executor | %s failed to set leverage: %v", sig.Symbol, err)
		out.Err = fmt.Sprintf("set leverage: %v", err)
		return out
	}

	// 3) Slice amount from wallet balance and remaining slots.
	balance, err := e.ex.FetchBalance(ctx, e.cfg.QuoteAsset)
	if err != nil {
		log.Printf("Executor | %s failed to read balance, using fallback %.2f: %v",
			sig.Symbol, e.cfg.FallbackBalance, err)
		balance = e.cfg.FallbackBalance
		out.Warnings = append(out.Warnings, Warning{Code: WarnBalanceFallback, Err: err.Error()})
	}

	maxSlices, openCount := e.cfg.MaxSlices, currentOpenCount
	if e.cfg.AllIn {
		maxSlices, openCount = 1, 0
	}
	out.SliceUSDT = sizing.SliceAmount(balance, maxSlices, openCount)

	// 4) Contract quantity from a live price, falling back to the signal's
	// estimate.
	refPrice, err := e.ex.FetchPrice(ctx, sig.Symbol)
	if err != nil || refPrice <= 0 {
		reason := "non-positive ticker price"
		if err != nil {
			reason = err.Error()
		}
		refPrice = sig.EntryPriceEst
		out.Warnings = append(out.Warnings, Warning{Code: WarnPriceFallback, Err: reason})
	}

	out.Qty = sizing.NormalizeQuantity(out.SliceUSDT, e.cfg.Leverage, refPrice, stepSize)
	if out.Qty <= 0 {
		out.Err = "computed qty <= 0"
		return out
	}

	// 5) Market entry. Failure is fatal for this symbol.
	entry, err := e.ex.SubmitOrder(ctx, exchange.NewMarketOrder(sig.Symbol, sig.Direction.EntrySide(), out.Qty))
	if err != nil {
		log.Printf("Executor | %s entry order failed: %v", sig.Symbol, err)
		out.Err = fmt.Sprintf("entry order: %v", err)
		return out
	}
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, sig.Direction.EntrySide(), "market").Inc()

	out.FillPrice = entry.AvgPrice
	if out.FillPrice <= 0 {
		out.FillPrice = refPrice
		out.Warnings = append(out.Warnings, Warning{Code: WarnFillFallback, Err: "no average fill price reported"})
	}

	// 6) Reduce-only GTC take-profit. Failure is non-fatal: the entry
	// stands, the caller sees a nil TPPrice.
	tpPrice := takeProfitPrice(out.FillPrice, e.cfg.TPPct, sig.Direction)
	_, err = e.ex.SubmitOrder(ctx, exchange.NewReduceOnlyLimit(sig.Symbol, sig.Direction.ExitSide(), out.Qty, tpPrice))
	if err != nil {
		log.Printf("Executor | %s failed to place TP order: %v", sig.Symbol, err)
		out.Warnings = append(out.Warnings, Warning{Code: WarnMissingTP, Err: err.Error()})
		out.OK = true
		return out
	}
	metrics.OrdersTotal.WithLabelValues(sig.Symbol, sig.Direction.ExitSide(), "limit").Inc()

	out.TPPrice = &tpPrice
	out.OK = true
	return out
}

// takeProfitPrice is fill*(1+tp) for longs and fill*(1-tp) for shorts,
// rounded to 8 decimal places.
func takeProfitPrice(fillPrice, tpPct float64, direction strategy.Direction) float64 {
	fill := decimal.NewFromFloat(fillPrice)
	pct := decimal.NewFromFloat(tpPct)

	var tp decimal.Decimal
	if direction == strategy.Short {
		tp = fill.Mul(decimal.NewFromInt(1).Sub(pct))
	} else {
		tp = fill.Mul(decimal.NewFromInt(1).Add(pct))
	}

	out, _ := tp.Round(8).Float64()
	return out
}
