// Package exchange
package exchange

import (
	"context"
	"time"

	"github.com/amirphl/spike-trader/internal/candle"
)

// Instrument is one tradable contract with its quantity granularity.
type Instrument struct {
	Symbol   string
	StepSize float64 // lot size increment; 0 means unknown
}

// Order is the normalized response from the exchange for a submitted order.
type Order struct {
	OrderID   string
	Status    string
	FilledQty float64
	AvgPrice  float64 // 0 when the venue did not report an average fill
	Timestamp time.Time
	Symbol    string
	Side      string
	Type      string
	Price     float64
	Quantity  float64
}

// MarginIsolated is the only margin mode this bot configures.
const MarginIsolated = "ISOLATED"

// Exchange is the interface for all supported futures venues.
type Exchange interface {
	Name() string

	// FetchInstruments returns the tradable USDT-margined perpetual universe.
	FetchInstruments(ctx context.Context) ([]Instrument, error)

	// FetchLatestCandles returns the most recent count candles, oldest first.
	// An error or a short result means the symbol must be skipped this tick.
	FetchLatestCandles(ctx context.Context, symbol, interval string, count int) ([]candle.Candle, error)

	// FetchBalance returns the available balance of the given asset.
	FetchBalance(ctx context.Context, asset string) (float64, error)

	// FetchPrice returns the latest traded price for the symbol.
	FetchPrice(ctx context.Context, symbol string) (float64, error)

	SetMarginType(ctx context.Context, symbol, marginType string) error
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	SubmitOrder(ctx context.Context, req OrderRequest) (Order, error)

	// ServerTime returns the venue's clock, used by the scan gate.
	ServerTime(ctx context.Context) (time.Time, error)
}
