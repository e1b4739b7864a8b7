package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/spike-trader/internal/candle"
)

func testWindow(c1Open, c1Vol, c2High, c2Low, c2Vol, c3Open float64) candle.Window {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return candle.Window{
		C1: candle.Candle{
			OpenTime: base,
			Open:     c1Open,
			High:     c1Open * 1.01,
			Low:      c1Open * 0.99,
			Close:    c1Open,
			Volume:   c1Vol,
		},
		C2: candle.Candle{
			OpenTime: base.Add(3 * time.Minute),
			Open:     c1Open,
			High:     c2High,
			Low:      c2Low,
			Close:    c2High,
			Volume:   c2Vol,
		},
		C3: candle.Candle{
			OpenTime: base.Add(6 * time.Minute),
			Open:     c3Open,
			High:     c3Open,
			Low:      c3Open,
			Volume:   0,
		},
	}
}

func TestVolumeSpikeDetector_Evaluate(t *testing.T) {
	tests := []struct {
		name          string
		window        candle.Window
		multiplier    float64
		c1DollarMin   float64
		wantSignal    bool
		wantDirection Direction
	}{
		{
			name:          "long breakout",
			window:        testWindow(1.0, 10000, 1.20, 0.95, 200000, 1.16),
			multiplier:    15,
			c1DollarMin:   5555,
			wantSignal:    true,
			wantDirection: Long,
		},
		{
			name:          "short breakdown",
			window:        testWindow(1.0, 10000, 1.05, 0.80, 200000, 0.84),
			multiplier:    15,
			c1DollarMin:   5555,
			wantSignal:    true,
			wantDirection: Short,
		},
		{
			name:        "moves below threshold",
			window:      testWindow(1.0, 10000, 1.10, 0.90, 200000, 1.05),
			multiplier:  15,
			c1DollarMin: 5555,
			wantSignal:  false,
		},
		{
			name:        "volume explosion missing",
			window:      testWindow(1.0, 10000, 1.20, 0.95, 149999, 1.16),
			multiplier:  15,
			c1DollarMin: 5555,
			wantSignal:  false,
		},
		{
			name:        "c1 dollar volume too small",
			window:      testWindow(0.5, 10000, 0.62, 0.40, 200000, 0.60),
			multiplier:  15,
			c1DollarMin: 5555,
			wantSignal:  false,
		},
		{
			name:        "zero c1 volume",
			window:      testWindow(1.0, 0, 1.20, 0.95, 200000, 1.16),
			multiplier:  15,
			c1DollarMin: 5555,
			wantSignal:  false,
		},
		{
			name:          "both thresholds met resolves long",
			window:        testWindow(1.0, 10000, 1.20, 0.80, 200000, 1.10),
			multiplier:    15,
			c1DollarMin:   5555,
			wantSignal:    true,
			wantDirection: Long,
		},
		{
			name:          "exactly at volume multiplier boundary",
			window:        testWindow(1.0, 10000, 1.20, 0.95, 150000, 1.16),
			multiplier:    15,
			c1DollarMin:   5555,
			wantSignal:    true,
			wantDirection: Long,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewVolumeSpikeDetector(tt.multiplier, tt.c1DollarMin)
			sig, ok := d.Evaluate("TESTUSDT", tt.window)
			assert.Equal(t, tt.wantSignal, ok)
			if tt.wantSignal {
				assert.Equal(t, tt.wantDirection, sig.Direction)
				assert.Equal(t, "TESTUSDT", sig.Symbol)
				assert.Equal(t, tt.window.C3.Open, sig.EntryPriceEst)
				assert.Equal(t, tt.window.C2.OpenTime, sig.EntryTime)
			}
		})
	}
}

func TestVolumeSpikeDetector_Diagnostics(t *testing.T) {
	w := testWindow(1.0, 10000, 1.20, 0.95, 200000, 1.16)
	d := NewVolumeSpikeDetector(15, 5555)

	sig, ok := d.Evaluate("TESTUSDT", w)
	require.True(t, ok)

	assert.InDelta(t, 10000.0, sig.C1Dollar, 1e-9)
	assert.InDelta(t, 0.20, sig.UpMove, 1e-9)
	assert.InDelta(t, 0.05, sig.DownMove, 1e-9)
	assert.Equal(t, 10000.0, sig.C1Volume)
	assert.Equal(t, 200000.0, sig.C2Volume)
}

func TestNewVolumeSpikeDetector_Defaults(t *testing.T) {
	d := NewVolumeSpikeDetector(0, -1)
	assert.Equal(t, DefaultVolumeMultiplier, d.VolumeMultiplier)
	assert.Equal(t, DefaultC1DollarMin, d.C1DollarMin)
}

func TestDirection_Sides(t *testing.T) {
	assert.Equal(t, "buy", Long.EntrySide())
	assert.Equal(t, "sell", Long.ExitSide())
	assert.Equal(t, "sell", Short.EntrySide())
	assert.Equal(t, "buy", Short.ExitSide())
}
