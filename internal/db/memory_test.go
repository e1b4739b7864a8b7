package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/spike-trader/internal/journal"
	"github.com/amirphl/spike-trader/internal/strategy"
)

func TestMemoryStorage_TradeLedger(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tp := 103.0
	id1, err := m.SaveTrade(ctx, Trade{
		Symbol:     "BTCUSDT",
		Direction:  strategy.Long,
		EntryTime:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		EntryPrice: 100,
		Qty:        2,
		TPPrice:    &tp,
		SliceUSDT:  40,
		Open:       true,
	})
	require.NoError(t, err)

	id2, err := m.SaveTrade(ctx, Trade{
		Symbol:    "ETHUSDT",
		Direction: strategy.Short,
		EntryTime: time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
		Qty:       1,
		Open:      true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	open, err := m.GetOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)

	// Ordered by entry time, oldest first.
	assert.Equal(t, "ETHUSDT", open[0].Symbol)
	assert.Equal(t, "BTCUSDT", open[1].Symbol)
	require.NotNil(t, open[1].TPPrice)
	assert.Equal(t, 103.0, *open[1].TPPrice)
	assert.Nil(t, open[0].TPPrice)

	require.NoError(t, m.CloseTrade(ctx, id2))
	open, err = m.GetOpenTrades(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "BTCUSDT", open[0].Symbol)

	assert.Error(t, m.CloseTrade(ctx, 9999))
}

func TestMemoryStorage_Events(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.LogEvent(ctx, journal.Event{
		Time: base, Type: journal.EventSignal, Description: "long breakout",
		Data: map[string]any{"symbol": "BTCUSDT"},
	}))
	require.NoError(t, m.LogEvent(ctx, journal.Event{
		Time: base.Add(time.Minute), Type: journal.EventOrder, Description: "entry filled",
	}))
	require.NoError(t, m.LogEvent(ctx, journal.Event{
		Time: base.Add(2 * time.Minute), Type: journal.EventSignal, Description: "short breakdown",
	}))

	signals, err := m.GetEvents(ctx, journal.EventSignal, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, signals, 2)

	all, err := m.GetEvents(ctx, "", base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// End bound is exclusive.
	window, err := m.GetEvents(ctx, "", base, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, window, 2)
}
