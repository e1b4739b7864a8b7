// Package strategy
package strategy

import (
	"time"
)

// Direction is the side of a detected breakout.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Entry side on the exchange for this direction.
func (d Direction) EntrySide() string {
	if d == Short {
		return "sell"
	}
	return "buy"
}

// ExitSide is the side of the reduce-only take-profit order.
func (d Direction) ExitSide() string {
	if d == Short {
		return "buy"
	}
	return "sell"
}

// Signal is a detected volume-spike breakout on a single symbol.
// EntryPriceEst is the open of the still-forming candle (C3) and is only an
// estimate; the executor prefers a live price when it can get one.
type Signal struct {
	Symbol        string    `json:"symbol"`
	Direction     Direction `json:"direction"`
	EntryPriceEst float64   `json:"entry_price_est"`
	EntryTime     time.Time `json:"entry_time"` // open time of the signal candle (C2)

	// Diagnostics, journaled with the signal.
	C1Dollar float64 `json:"c1_dollar"`
	UpMove   float64 `json:"up_move"`
	DownMove float64 `json:"down_move"`
	C1Volume float64 `json:"c1_volume"`
	C2Volume float64 `json:"c2_volume"`
}
