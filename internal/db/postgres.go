package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/amirphl/spike-trader/internal/db/conf"
	"github.com/amirphl/spike-trader/internal/journal"
)

// Transaction context key
type txKey struct{}

// WithTransaction adds a transaction to the context
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction retrieves a transaction from context, or returns nil if not present
func GetTransaction(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return nil
}

type Default struct {
	db *sql.DB
}

func New(c conf.Config) (*Default, error) {
	return &Default{db: c.DB}, nil
}

func (p *Default) GetDB() *sql.DB {
	return p.db
}

// executeWithTransaction executes a function with proper transaction management.
// If a transaction exists in context, it uses that. Otherwise, it creates a new one.
func (p *Default) executeWithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	if tx := GetTransaction(ctx); tx != nil {
		return fn(tx)
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if fnErr := fn(tx); fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %w (original error: %v)", rbErr, fnErr)
		}
		return fnErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("transaction commit failed: %w", commitErr)
	}
	return nil
}

// queryWithTransaction executes a query using transaction from context if available
func (p *Default) queryWithTransaction(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if tx := GetTransaction(ctx); tx != nil {
		return tx.QueryContext(ctx, query, args...)
	}
	return p.db.QueryContext(ctx, query, args...)
}

// SaveTrade appends a trade to the ledger and returns its row ID.
func (p *Default) SaveTrade(ctx context.Context, trade Trade) (int64, error) {
	var id int64
	err := p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
		INSERT INTO trades (symbol, direction, entry_time, entry_price, qty, tp_price, slice_usdt, open)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id`,
			trade.Symbol, string(trade.Direction), trade.EntryTime, trade.EntryPrice,
			trade.Qty, trade.TPPrice, trade.SliceUSDT, trade.Open)
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("failed to save trade for %s: %w", trade.Symbol, err)
		}
		return nil
	})
	return id, err
}

// GetOpenTrades returns all ledger rows still marked open, oldest first.
func (p *Default) GetOpenTrades(ctx context.Context) ([]Trade, error) {
	rows, err := p.queryWithTransaction(ctx, `
		SELECT id, symbol, direction, entry_time, entry_price, qty, tp_price, slice_usdt, open, created_at
		FROM trades WHERE open ORDER BY entry_time ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		var direction string
		var tpPrice sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Symbol, &direction, &t.EntryTime, &t.EntryPrice,
			&t.Qty, &tpPrice, &t.SliceUSDT, &t.Open, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Direction = directionFromString(direction)
		if tpPrice.Valid {
			v := tpPrice.Float64
			t.TPPrice = &v
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// CloseTrade marks a ledger row as no longer open.
func (p *Default) CloseTrade(ctx context.Context, id int64) error {
	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE trades SET open = FALSE WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to close trade %d: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("trade %d not found", id)
		}
		return nil
	})
}

// LogEvent appends an event to the journal.
func (p *Default) LogEvent(ctx context.Context, event journal.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	return p.executeWithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO events (time, type, description, data)
		VALUES ($1,$2,$3,$4)`,
			event.Time, event.Type, event.Description, data)
		if err != nil {
			return fmt.Errorf("failed to log event: %w", err)
		}
		return nil
	})
}

// GetEvents returns journaled events of the given type within [start, end).
// An empty eventType matches all types.
func (p *Default) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error) {
	rows, err := p.queryWithTransaction(ctx, `
		SELECT time, type, description, data FROM events
		WHERE ($1 = '' OR type = $1) AND time >= $2 AND time < $3
		ORDER BY time ASC`, eventType, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	defer rows.Close()

	var events []journal.Event
	for rows.Next() {
		var e journal.Event
		var data []byte
		if err := rows.Scan(&e.Time, &e.Type, &e.Description, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
