// Package candle
package candle

import (
	"errors"
	"fmt"
	"time"
)

// Candle represents a single kline with OHLCV data.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
}

// Validate checks if a candle has valid data.
// The current (still-forming) candle is allowed to have Close == 0 on some
// venues, so only OHLC relationships and volume sign are enforced.
func (c *Candle) Validate() error {
	if c.OpenTime.IsZero() {
		return errors.New("candle open time is zero")
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 {
		return errors.New("candle prices must be positive")
	}
	if c.High < c.Low {
		return errors.New("candle high cannot be less than low")
	}
	if c.Open < c.Low || c.Open > c.High {
		return errors.New("candle open price must be between high and low")
	}
	if c.Volume < 0 {
		return errors.New("candle volume cannot be negative")
	}
	return nil
}

// Window is the three-candle evaluation window consumed by the detector,
// oldest to newest: C1 (reference), C2 (signal), C3 (in-progress).
type Window struct {
	C1, C2, C3 Candle
}

// NewWindow builds a Window from the three most recent candles.
// The slice must hold at least three valid candles in chronological order.
func NewWindow(candles []Candle) (Window, error) {
	if len(candles) < 3 {
		return Window{}, errors.New("need at least three candles")
	}
	last := candles[len(candles)-3:]
	for i := range last {
		if err := last[i].Validate(); err != nil {
			return Window{}, fmt.Errorf("candle %d: %w", i+1, err)
		}
	}
	if last[0].OpenTime.After(last[1].OpenTime) || last[1].OpenTime.After(last[2].OpenTime) {
		return Window{}, errors.New("candles are not in chronological order")
	}
	return Window{C1: last[0], C2: last[1], C3: last[2]}, nil
}
