package audit

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zreversion/internal/contracts"
)

func TestSelectZScores(t *testing.T) {
	z := contracts.NewFrame(dates(3), []string{"PETR4", "VALE3"})
	z.Set("PETR4", 0, -2.5)
	z.Set("PETR4", 1, -2.0) // 경계값 제외
	z.Set("PETR4", 2, 0.5)
	z.Set("VALE3", 1, 2.1)
	z.Set("VALE3", 2, -3.0)
	th := contracts.Thresholds{Lower: -2, Upper: 2}

	assert.Equal(t, []float64{-2.5, -3.0}, SelectZScores(z, SideBuy, th))
	assert.Equal(t, []float64{2.1}, SelectZScores(z, SideSell, th))

	// 청산 0.0 변형
	exitMean := contracts.Thresholds{Lower: -2, Upper: 0}
	assert.Equal(t, []float64{2.1, 0.5}, SelectZScores(z, SideSell, exitMean))
}

func TestSelectTradeLog(t *testing.T) {
	log := []contracts.TradeSignal{
		{Symbol: "PETR4", ZScore: -2.2, Signal: contracts.SignalBuy},
		{Symbol: "VALE3", ZScore: 2.4, Signal: contracts.SignalSell},
		{Symbol: "ITUB4", ZScore: math.NaN(), Signal: contracts.SignalBuy},
	}

	assert.Equal(t, []float64{-2.2}, SelectTradeLog(log, SideBuy))
	assert.Equal(t, []float64{2.4}, SelectTradeLog(log, SideSell))
}

func TestFitDistribution(t *testing.T) {
	values := []float64{-2.1, -2.3, -2.5, -3.1, -2.0001}

	d, err := FitDistribution(values, SideBuy, -2, 4)
	require.NoError(t, err)

	assert.Equal(t, 5, d.Count)
	assert.InDelta(t, -2.40002, d.Mean, 1e-9)

	// 모표준편차 (n)
	ss := 0.0
	for _, v := range values {
		ss += (v - d.Mean) * (v - d.Mean)
	}
	assert.InDelta(t, math.Sqrt(ss/5), d.StdDev, 1e-12)

	require.Len(t, d.Bins, 4)
	total := 0
	area := 0.0
	for _, b := range d.Bins {
		total += b.Count
		area += b.Density * (b.Upper - b.Lower)
	}
	assert.Equal(t, 5, total, "max value falls in the last bin")
	assert.InDelta(t, 1.0, area, 1e-9)
	assert.Equal(t, -3.1, d.Bins[0].Lower)
	assert.Equal(t, -2.0001, d.Bins[3].Upper)

	assert.InDelta(t, 1/(d.StdDev*math.Sqrt(2*math.Pi)), d.PDF(d.Mean), 1e-12)
}

func TestFitDistribution_SingleValue(t *testing.T) {
	d, err := FitDistribution([]float64{2.5}, SideSell, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, 0.0, d.StdDev)
	assert.True(t, math.IsNaN(d.PDF(2.5)))
	assert.Equal(t, 2.0, d.Bins[0].Lower)
	assert.Equal(t, 3.0, d.Bins[2].Upper)
}

func TestFitDistribution_Empty(t *testing.T) {
	_, err := FitDistribution(nil, SideBuy, -2, 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrEmptyResult))
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, SideSell, s)
	assert.Equal(t, contracts.SignalSell, s.Signal())
	assert.Equal(t, 2.0, s.Threshold(contracts.Thresholds{Lower: -2, Upper: 2}))

	_, err = ParseSide("short")
	assert.Error(t, err)
}
