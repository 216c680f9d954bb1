package s2_signals

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/pkg/logger"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day(i)
	}
	return out
}

// directZ computes the z-score of the last element from the textbook formula
func directZ(win []float64) float64 {
	n := float64(len(win))
	sum := 0.0
	for _, v := range win {
		sum += v
	}
	mean := sum / n
	ss := 0.0
	for _, v := range win {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / (n - 1))
	return (win[len(win)-1] - mean) / std
}

func TestZScore_WarmUpUndefined(t *testing.T) {
	calc := NewZScoreCalculator(5, logger.Nop())
	prices := []float64{10, 11, 12, 13, 14, 15, 16}

	z := calc.Calculate(prices)

	require.Len(t, z, len(prices))
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(z[i]), "index %d should be undefined", i)
	}
	for i := 4; i < len(prices); i++ {
		assert.InDelta(t, directZ(prices[i-4:i+1]), z[i], 1e-12)
	}
}

func TestZScore_ScaleAndShiftInvariant(t *testing.T) {
	calc := NewZScoreCalculator(4, logger.Nop())
	prices := []float64{20, 21.5, 19.8, 22.1, 23.4, 18.9, 20.2}

	scaled := make([]float64, len(prices))
	for i, p := range prices {
		scaled[i] = 3.5*p + 100
	}

	z := calc.Calculate(prices)
	zs := calc.Calculate(scaled)

	for i := 3; i < len(prices); i++ {
		assert.InDelta(t, directZ(prices[i-3:i+1]), z[i], 1e-9)
		assert.InDelta(t, directZ(scaled[i-3:i+1]), zs[i], 1e-9)
		assert.InDelta(t, z[i], zs[i], 1e-9)
	}
}

func TestZScore_ZeroStdUndefined(t *testing.T) {
	calc := NewZScoreCalculator(3, logger.Nop())

	z := calc.Calculate([]float64{100, 100, 100, 100})

	for _, v := range z {
		assert.True(t, math.IsNaN(v))
	}
}

func TestZScore_GapRestartsWindow(t *testing.T) {
	calc := NewZScoreCalculator(3, logger.Nop())
	nan := math.NaN()

	z := calc.Calculate([]float64{1, 2, 3, nan, 4, 5, 7, 6})

	assert.False(t, math.IsNaN(z[2]))
	assert.True(t, math.IsNaN(z[3]))
	assert.True(t, math.IsNaN(z[4]), "window not refilled after gap")
	assert.True(t, math.IsNaN(z[5]), "window not refilled after gap")
	assert.InDelta(t, directZ([]float64{4, 5, 7}), z[6], 1e-12)
	assert.InDelta(t, directZ([]float64{5, 7, 6}), z[7], 1e-12)
}

func TestZScore_NoLookAhead(t *testing.T) {
	calc := NewZScoreCalculator(3, logger.Nop())
	base := []float64{1, 3, 2, 5, 4}
	changed := []float64{1, 3, 2, 5, 400}

	z1 := calc.Calculate(base)
	z2 := calc.Calculate(changed)

	// 미래 가격 변경이 과거 z-score에 영향 없음
	for i := 0; i < 4; i++ {
		if math.IsNaN(z1[i]) {
			assert.True(t, math.IsNaN(z2[i]))
			continue
		}
		assert.Equal(t, z1[i], z2[i])
	}
}

func TestZScore_CalculateFrame(t *testing.T) {
	prices := contracts.NewFrame(dates(3), []string{"PETR4", "VALE3"})
	for i, p := range []float64{1, 2, 4} {
		prices.Set("PETR4", i, p)
		prices.Set("VALE3", i, p*2)
	}

	z := NewZScoreCalculator(2, logger.Nop()).CalculateFrame(prices, []string{"VALE3"})

	assert.Equal(t, []string{"VALE3"}, z.Symbols)
	assert.True(t, math.IsNaN(z.At("VALE3", 0)))
	assert.InDelta(t, directZ([]float64{2, 4}), z.At("VALE3", 1), 1e-12)
	assert.False(t, z.HasSymbol("PETR4"))
}
