package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amirphl/spike-trader/internal/journal"
)

// MemoryStorage is an in-memory Storage used by tests and dry runs.
type MemoryStorage struct {
	mu sync.RWMutex

	// Trades by ID and auto-increment counter
	trades      map[int64]Trade
	nextTradeID int64

	// Events (append-only)
	events []journal.Event
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		trades: make(map[int64]Trade),
		events: make([]journal.Event, 0, 1024),
	}
}

// GetDB returns nil for in-memory storage (no SQL database)
func (m *MemoryStorage) GetDB() *sql.DB { return nil }

func (m *MemoryStorage) SaveTrade(ctx context.Context, trade Trade) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTradeID++
	trade.ID = m.nextTradeID
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = time.Now().UTC()
	}
	m.trades[trade.ID] = trade
	return trade.ID, nil
}

func (m *MemoryStorage) GetOpenTrades(ctx context.Context) ([]Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var trades []Trade
	for _, t := range m.trades {
		if t.Open {
			trades = append(trades, t)
		}
	}
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].EntryTime.Before(trades[j].EntryTime)
	})
	return trades, nil
}

func (m *MemoryStorage) CloseTrade(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trades[id]
	if !ok {
		return fmt.Errorf("trade %d not found", id)
	}
	t.Open = false
	m.trades[id] = t
	return nil
}

func (m *MemoryStorage) LogEvent(ctx context.Context, event journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStorage) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []journal.Event
	for _, e := range m.events {
		if eventType != "" && e.Type != eventType {
			continue
		}
		if e.Time.Before(start) || !e.Time.Before(end) {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
