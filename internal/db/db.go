// Package db
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/amirphl/spike-trader/internal/journal"
	"github.com/amirphl/spike-trader/internal/strategy"
)

// Trade is one row of the append-only trade ledger. No uniqueness is
// enforced on symbol; the same symbol can be opened repeatedly.
type Trade struct {
	ID         int64
	Symbol     string
	Direction  strategy.Direction
	EntryTime  time.Time
	EntryPrice float64
	Qty        float64
	TPPrice    *float64 // nil when the protective exit was not placed
	SliceUSDT  float64
	Open       bool
	CreatedAt  time.Time
}

func directionFromString(s string) strategy.Direction {
	if s == string(strategy.Short) {
		return strategy.Short
	}
	return strategy.Long
}

// Storage is the interface for all persistent storage.
type Storage interface {
	GetDB() *sql.DB

	SaveTrade(ctx context.Context, trade Trade) (int64, error)
	GetOpenTrades(ctx context.Context) ([]Trade, error)
	CloseTrade(ctx context.Context, id int64) error

	journal.Journaler
}
