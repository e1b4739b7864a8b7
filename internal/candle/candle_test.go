package candle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCandle(openTime time.Time) Candle {
	return Candle{
		OpenTime: openTime,
		Open:     1.0,
		High:     1.05,
		Low:      0.98,
		Close:    1.02,
		Volume:   10000,
	}
}

func TestCandle_Validate(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*Candle)
		wantErr string
	}{
		{"valid", func(c *Candle) {}, ""},
		{"forming candle without close", func(c *Candle) { c.Close = 0 }, ""},
		{"zero open time", func(c *Candle) { c.OpenTime = time.Time{} }, "open time"},
		{"zero open price", func(c *Candle) { c.Open = 0 }, "positive"},
		{"high below low", func(c *Candle) { c.High = 0.98; c.Low = 1.05 }, "high cannot be less than low"},
		{"open above high", func(c *Candle) { c.Open = 1.10 }, "between high and low"},
		{"open below low", func(c *Candle) { c.Open = 0.90 }, "between high and low"},
		{"negative volume", func(c *Candle) { c.Volume = -1 }, "volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandle(base)
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewWindow(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	candles := []Candle{
		validCandle(base),
		validCandle(base.Add(3 * time.Minute)),
		validCandle(base.Add(6 * time.Minute)),
	}

	w, err := NewWindow(candles)
	require.NoError(t, err)
	assert.Equal(t, base, w.C1.OpenTime)
	assert.Equal(t, base.Add(6*time.Minute), w.C3.OpenTime)
}

func TestNewWindow_TakesLastThree(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	candles := []Candle{
		validCandle(base.Add(-3 * time.Minute)),
		validCandle(base),
		validCandle(base.Add(3 * time.Minute)),
		validCandle(base.Add(6 * time.Minute)),
	}

	w, err := NewWindow(candles)
	require.NoError(t, err)
	assert.Equal(t, base, w.C1.OpenTime)
	assert.Equal(t, base.Add(6*time.Minute), w.C3.OpenTime)
}

func TestNewWindow_Errors(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := NewWindow([]Candle{validCandle(base), validCandle(base.Add(3 * time.Minute))})
	assert.ErrorContains(t, err, "at least three")

	outOfOrder := []Candle{
		validCandle(base.Add(3 * time.Minute)),
		validCandle(base),
		validCandle(base.Add(6 * time.Minute)),
	}
	_, err = NewWindow(outOfOrder)
	assert.ErrorContains(t, err, "chronological order")

	corrupt := []Candle{
		validCandle(base),
		validCandle(base.Add(3 * time.Minute)),
		validCandle(base.Add(6 * time.Minute)),
	}
	corrupt[1].High = 0 // bad venue row must reject the whole window
	_, err = NewWindow(corrupt)
	assert.ErrorContains(t, err, "candle 2")
}
