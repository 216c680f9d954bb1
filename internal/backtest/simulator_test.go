package backtest

import (
	"errors"
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

// fixture builds aligned price and signal frames from per-symbol columns
func fixture(t *testing.T, prices map[string][]float64, signals map[string][]contracts.Signal, symbols ...string) (*contracts.Frame, *contracts.SignalFrame) {
	t.Helper()
	n := len(prices[symbols[0]])
	d := dates(n)

	pf := contracts.NewFrame(d, symbols)
	sf := contracts.NewSignalFrame(d, symbols)
	for _, s := range symbols {
		require.Len(t, prices[s], n)
		copy(pf.Values[s], prices[s])
		if sig, ok := signals[s]; ok {
			require.Len(t, sig, n)
			copy(sf.Signals[s], sig)
		}
	}
	return pf, sf
}

const (
	H = contracts.SignalHold
	B = contracts.SignalBuy
	S = contracts.SignalSell
)

func newTestSimulator(capital, size float64) *Simulator {
	return NewSimulator(SimulatorConfig{InitialCapital: capital, PositionSize: size}, logger.Nop())
}

func TestSimulator_BuyOnDropThenSell(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{"PETR4": {100, 100, 80, 90, 100}},
		map[string][]contracts.Signal{"PETR4": {H, H, B, H, S}},
		"PETR4",
	)

	result, err := newTestSimulator(1_000_000, 50_000).Run(prices, signals, []string{"PETR4"})
	require.NoError(t, err)

	require.Len(t, result.Fills, 2)
	buy := result.Fills[0]
	assert.Equal(t, contracts.OrderSideBuy, buy.Side)
	assert.Equal(t, day(2), buy.Date)
	assert.InDelta(t, 625.0, buy.Qty, 1e-9) // 50000 / 80
	assert.InDelta(t, 950_000.0, buy.CashAfter, 1e-6)

	sell := result.Fills[1]
	assert.Equal(t, contracts.OrderSideSell, sell.Side)
	assert.InDelta(t, 62_500.0, sell.Value, 1e-6)
	assert.InDelta(t, 12_500.0, sell.PnL, 1e-6)
	assert.InDelta(t, 1_012_500.0, sell.CashAfter, 1e-6)

	// 평가는 주문 전: day 2 값은 매수 전 현금 그대로
	values := result.History.Values()
	require.Len(t, values, 5)
	assert.InDelta(t, 1_000_000.0, values[2], 1e-6)
	assert.InDelta(t, 950_000.0+625*90, values[3], 1e-6)
	assert.InDelta(t, 950_000.0+625*100, values[4], 1e-6)

	assert.Equal(t, 1, result.Stats.Buys)
	assert.Equal(t, 1, result.Stats.Sells)
	assert.Equal(t, 1, result.Stats.WinningTrades)
	assert.Equal(t, 0, result.Stats.OpenPositions)
	assert.InDelta(t, 1_012_500.0, result.Stats.FinalCash, 1e-6)
	assert.InDelta(t, 1.0, result.Stats.WinRate(), 1e-12)
}

func TestSimulator_ValueEqualsCashPlusHoldings(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{
			"PETR4": {30, 28, 27, 29, 31, 26},
			"VALE3": {70, 72, 65, 66, 68, 71},
		},
		map[string][]contracts.Signal{
			"PETR4": {H, B, H, S, B, H},
			"VALE3": {H, H, B, H, H, S},
		},
		"PETR4", "VALE3",
	)

	result, err := newTestSimulator(100_000, 10_000).Run(prices, signals, []string{"PETR4", "VALE3"})
	require.NoError(t, err)

	// 체결 기록으로 보유 수량을 재구성해서 평가액과 비교
	qty := map[string]float64{}
	cash := 100_000.0
	fillIdx := 0
	for i, point := range result.History.Points {
		mtm := cash
		for sym, q := range qty {
			mtm += q * prices.At(sym, i)
		}
		assert.InDelta(t, mtm, point.Value, 1e-6, "day %d", i)
		assert.GreaterOrEqual(t, point.Cash, 0.0)

		for fillIdx < len(result.Fills) && result.Fills[fillIdx].Date.Equal(point.Date) {
			f := result.Fills[fillIdx]
			if f.IsBuy() {
				qty[f.Symbol] = f.Qty
				cash -= f.Value
			} else {
				delete(qty, f.Symbol)
				cash += f.Value
			}
			assert.InDelta(t, cash, f.CashAfter, 1e-6)
			fillIdx++
		}
	}
	assert.Equal(t, len(result.Fills), fillIdx)
	assert.Equal(t, 1, result.Stats.OpenPositions)
	require.Len(t, result.Positions, 1)
	assert.Equal(t, "PETR4", result.Positions[0].Symbol)
}

func TestSimulator_InsufficientCashSkipsBuy(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{
			"A": {10, 10, 10},
			"B": {20, 20, 20},
			"C": {40, 40, 40},
		},
		map[string][]contracts.Signal{
			"A": {B, H, H},
			"B": {B, H, H},
			"C": {B, H, H},
		},
		"A", "B", "C",
	)

	result, err := newTestSimulator(25_000, 10_000).Run(prices, signals, []string{"A", "B", "C"})
	require.NoError(t, err)

	// 처리 순서 A → B → C, C 매수 시 현금 5000 < 10000
	require.Len(t, result.Fills, 2)
	assert.Equal(t, "A", result.Fills[0].Symbol)
	assert.Equal(t, "B", result.Fills[1].Symbol)
	assert.Equal(t, 1, result.Stats.SkippedBuys)
	assert.InDelta(t, 5_000.0, result.Stats.FinalCash, 1e-9)
}

func TestSimulator_RepeatedSignalsDoNotPyramid(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{"A": {10, 8, 6, 9, 12}},
		map[string][]contracts.Signal{"A": {B, B, B, S, S}},
		"A",
	)

	result, err := newTestSimulator(100_000, 10_000).Run(prices, signals, []string{"A"})
	require.NoError(t, err)

	require.Len(t, result.Fills, 2)
	assert.Equal(t, contracts.OrderSideBuy, result.Fills[0].Side)
	assert.Equal(t, contracts.OrderSideSell, result.Fills[1].Side)
	assert.Equal(t, day(3), result.Fills[1].Date)
}

func TestSimulator_SellWithoutPositionIsNoop(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{"A": {10, 11, 12}},
		map[string][]contracts.Signal{"A": {S, S, H}},
		"A",
	)

	result, err := newTestSimulator(1_000, 100).Run(prices, signals, []string{"A"})
	require.NoError(t, err)

	assert.Empty(t, result.Fills)
	for _, v := range result.History.Values() {
		assert.InDelta(t, 1_000.0, v, 1e-12)
	}
}

func TestSimulator_UnpricedPosition(t *testing.T) {
	nan := math.NaN()
	prices, signals := fixture(t,
		map[string][]float64{"A": {10, nan, 12, nan}},
		map[string][]contracts.Signal{"A": {B, S, H, H}},
		"A",
	)

	result, err := newTestSimulator(1_000, 100).Run(prices, signals, []string{"A"})
	require.NoError(t, err)

	// day 1: 가격 없음 → 평가 제외, 매도 생략
	require.Len(t, result.Fills, 1)
	assert.Equal(t, 1, result.Stats.SkippedUnpriced)

	points := result.History.Points
	assert.InDelta(t, 900.0, points[1].Value, 1e-9)
	assert.Equal(t, 1, points[1].Unpriced)
	assert.InDelta(t, 900.0+10*12, points[2].Value, 1e-9)
	assert.Equal(t, 0, points[2].Unpriced)
	assert.Equal(t, 1, points[3].Unpriced)
	for _, v := range result.History.Values() {
		assert.False(t, math.IsNaN(v))
	}
}

func TestSimulator_UnpricedNoopOrdersNotCounted(t *testing.T) {
	nan := math.NaN()
	prices, signals := fixture(t,
		map[string][]float64{
			"A": {10, nan, 12},
			"B": {nan, 20, 20},
		},
		map[string][]contracts.Signal{
			"A": {B, B, H}, // 보유 중 Buy
			"B": {S, H, H}, // 미보유 Sell
		},
		"A", "B",
	)

	result, err := newTestSimulator(1_000, 100).Run(prices, signals, []string{"A", "B"})
	require.NoError(t, err)

	require.Len(t, result.Fills, 1)
	assert.Equal(t, 0, result.Stats.SkippedUnpriced)
}

func TestStats_WinRateWithoutClosedTrades(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{"A": {10, 11, 12}},
		map[string][]contracts.Signal{"A": {H, H, H}},
		"A",
	)

	result, err := newTestSimulator(1_000, 100).Run(prices, signals, []string{"A"})
	require.NoError(t, err)

	assert.Empty(t, result.Fills)
	assert.True(t, math.IsNaN(result.Stats.WinRate()))
	assert.True(t, math.IsNaN(Stats{}.WinRate()))
	assert.InDelta(t, 0.5, Stats{WinningTrades: 1, LosingTrades: 1}.WinRate(), 1e-12)
}

func TestSimulator_Deterministic(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{
			"A": {10, 9, 8, 9, 11, 10},
			"B": {50, 49, 52, 47, 48, 55},
		},
		map[string][]contracts.Signal{
			"A": {H, B, H, S, B, H},
			"B": {B, H, S, B, H, S},
		},
		"A", "B",
	)

	sim := newTestSimulator(10_000, 3_000)
	first, err := sim.Run(prices, signals, []string{"A", "B"})
	require.NoError(t, err)
	second, err := sim.Run(prices, signals, []string{"A", "B"})
	require.NoError(t, err)

	assert.Equal(t, first.History, second.History)
	assert.Equal(t, first.Fills, second.Fills)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestSimulator_InputErrors(t *testing.T) {
	prices, signals := fixture(t,
		map[string][]float64{"A": {10, 11}},
		map[string][]contracts.Signal{"A": {H, H}},
		"A",
	)
	sim := newTestSimulator(1_000, 100)

	t.Run("no signals", func(t *testing.T) {
		_, err := sim.Run(prices, nil, []string{"A"})
		assert.True(t, errors.Is(err, contracts.ErrMissingInput))
	})

	t.Run("no prices", func(t *testing.T) {
		_, err := sim.Run(contracts.NewFrame(nil, []string{"A"}), signals, []string{"A"})
		assert.True(t, errors.Is(err, contracts.ErrMissingInput))
	})

	t.Run("symbol without signals", func(t *testing.T) {
		p2, _ := fixture(t, map[string][]float64{"A": {1, 2}, "B": {3, 4}}, nil, "A", "B")
		_, err := sim.Run(p2, signals, []string{"A", "B"})
		assert.True(t, errors.Is(err, contracts.ErrMissingInput))
	})

	t.Run("dates differ", func(t *testing.T) {
		shifted := contracts.NewSignalFrame([]time.Time{day(1), day(2)}, []string{"A"})
		_, err := sim.Run(prices, shifted, []string{"A"})
		assert.True(t, errors.Is(err, contracts.ErrMisaligned))
	})

	t.Run("invalid sizing", func(t *testing.T) {
		_, err := newTestSimulator(1_000, 0).Run(prices, signals, []string{"A"})
		assert.Error(t, err)
	})
}
