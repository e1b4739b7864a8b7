package strategy

import (
	"github.com/amirphl/spike-trader/internal/candle"
)

const (
	// DefaultVolumeMultiplier is how many times C1's volume C2 must print.
	DefaultVolumeMultiplier = 18.0

	// DefaultC1DollarMin filters illiquid symbols by C1 notional volume.
	DefaultC1DollarMin = 5555.0

	// MoveThreshold is the minimum relative move of C2 against C1's open.
	MoveThreshold = 0.15
)

// VolumeSpikeDetector classifies a three-candle window into a directional
// breakout signal. It is a pure function of its inputs: no I/O, no state.
type VolumeSpikeDetector struct {
	VolumeMultiplier float64
	C1DollarMin      float64
}

// NewVolumeSpikeDetector builds a detector, substituting defaults for
// non-positive parameters.
func NewVolumeSpikeDetector(volumeMultiplier, c1DollarMin float64) VolumeSpikeDetector {
	if volumeMultiplier <= 0 {
		volumeMultiplier = DefaultVolumeMultiplier
	}
	if c1DollarMin <= 0 {
		c1DollarMin = DefaultC1DollarMin
	}
	return VolumeSpikeDetector{
		VolumeMultiplier: volumeMultiplier,
		C1DollarMin:      c1DollarMin,
	}
}

func (d VolumeSpikeDetector) Name() string { return "Volume Spike Breakout" }

// Evaluate applies the detection gates in order and short-circuits on the
// first failing one. The second return value reports whether a signal fired.
//
// Gates:
//  1. C1 dollar-volume minimum (liquidity filter)
//  2. Volume explosion: C2.volume >= C1.volume * multiplier
//  3. C1.open must be positive
//  4. Relative move of C2 against C1.open >= MoveThreshold, long checked
//     before short (a window clearing both thresholds resolves LONG)
func (d VolumeSpikeDetector) Evaluate(symbol string, w candle.Window) (Signal, bool) {
	c1Dollar := w.C1.Volume * w.C1.Open
	if c1Dollar < d.C1DollarMin {
		return Signal{}, false
	}

	if w.C1.Volume <= 0 || w.C2.Volume < w.C1.Volume*d.VolumeMultiplier {
		return Signal{}, false
	}

	if w.C1.Open <= 0 {
		return Signal{}, false
	}

	upMove := (w.C2.High - w.C1.Open) / w.C1.Open
	downMove := (w.C1.Open - w.C2.Low) / w.C1.Open

	var direction Direction
	switch {
	case upMove >= MoveThreshold:
		direction = Long
	case downMove >= MoveThreshold:
		direction = Short
	default:
		return Signal{}, false
	}

	return Signal{
		Symbol:        symbol,
		Direction:     direction,
		EntryPriceEst: w.C3.Open,
		EntryTime:     w.C2.OpenTime,
		C1Dollar:      c1Dollar,
		UpMove:        upMove,
		DownMove:      downMove,
		C1Volume:      w.C1.Volume,
		C2Volume:      w.C2.Volume,
	}, true
}
