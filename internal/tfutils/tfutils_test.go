package tfutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalDuration(t *testing.T) {
	assert.Equal(t, time.Minute, IntervalDuration("1m"))
	assert.Equal(t, 3*time.Minute, IntervalDuration("3m"))
	assert.Equal(t, 15*time.Minute, IntervalDuration("15m"))
	assert.Equal(t, time.Hour, IntervalDuration("1h"))
	assert.Equal(t, time.Duration(0), IntervalDuration("2m"))
	assert.Equal(t, time.Duration(0), IntervalDuration(""))
}

func TestIntervalMinutes(t *testing.T) {
	assert.Equal(t, 3, IntervalMinutes("3m"))
	assert.Equal(t, 30, IntervalMinutes("30m"))
	assert.Equal(t, 60, IntervalMinutes("1h"))
	assert.Equal(t, 0, IntervalMinutes("7m"))
}

func TestIsValidInterval(t *testing.T) {
	assert.True(t, IsValidInterval("5m"))
	assert.True(t, IsValidInterval("1h"))
	assert.False(t, IsValidInterval("4h"))
	assert.False(t, IsValidInterval("3"))
}
