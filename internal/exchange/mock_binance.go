// Package exchange
package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/spike-trader/internal/candle"
)

// MockBinanceFutures proxies market-data calls to a real adapter while
// answering account and order calls locally. Used for dry runs: real
// universe, real candles, no orders ever reach the venue.
type MockBinanceFutures struct {
	realExchange Exchange
	balance      float64
	orderCounter int64
}

// NewMockBinanceFutures wraps a real adapter for dry-run mode. balance is
// the simulated available USDT balance.
func NewMockBinanceFutures(real Exchange, balance float64) *MockBinanceFutures {
	return &MockBinanceFutures{
		realExchange: real,
		balance:      balance,
		orderCounter: 1000,
	}
}

func (m *MockBinanceFutures) Name() string { return "mock-binance-futures" }

// ===== PROXY FUNCTIONS - These call the real adapter =====

func (m *MockBinanceFutures) FetchInstruments(ctx context.Context) ([]Instrument, error) {
	return m.realExchange.FetchInstruments(ctx)
}

func (m *MockBinanceFutures) FetchLatestCandles(ctx context.Context, symbol, interval string, count int) ([]candle.Candle, error) {
	return m.realExchange.FetchLatestCandles(ctx, symbol, interval, count)
}

func (m *MockBinanceFutures) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	return m.realExchange.FetchPrice(ctx, symbol)
}

func (m *MockBinanceFutures) ServerTime(ctx context.Context) (time.Time, error) {
	return m.realExchange.ServerTime(ctx)
}

// ===== MOCK FUNCTIONS - These answer locally =====

func (m *MockBinanceFutures) FetchBalance(ctx context.Context, asset string) (float64, error) {
	return m.balance, nil
}

func (m *MockBinanceFutures) SetMarginType(ctx context.Context, symbol, marginType string) error {
	return nil
}

func (m *MockBinanceFutures) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}

func (m *MockBinanceFutures) SubmitOrder(ctx context.Context, req OrderRequest) (Order, error) {
	select {
	case <-ctx.Done():
		return Order{}, ctx.Err()
	default:
	}

	fillPrice := req.Price
	if req.Type == "market" {
		// Fill market orders at the last traded price.
		price, err := m.realExchange.FetchPrice(ctx, req.Symbol)
		if err != nil {
			return Order{}, fmt.Errorf("mock fill price: %w", err)
		}
		fillPrice = price
	}

	m.orderCounter++
	return Order{
		OrderID:   fmt.Sprintf("mock_%d_%d", time.Now().Unix(), m.orderCounter),
		Status:    "FILLED",
		FilledQty: req.Quantity,
		AvgPrice:  fillPrice,
		Timestamp: time.Now().UTC(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Type:      req.Type,
		Price:     req.Price,
		Quantity:  req.Quantity,
	}, nil
}
