package backtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
	"github.com/wonny/zreversion/internal/strategyconfig"
	"github.com/wonny/zreversion/pkg/logger"
)

// writeInputs creates a 15-day price table where PETR4 drops to 80 on the last day
// and a flat VALE3 never produces a z-score.
func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	var prices, bench strings.Builder
	prices.WriteString("Date,PETR4,VALE3\n")
	bench.WriteString("Date,Close\n")
	for i := 0; i < 15; i++ {
		petr := 100.0
		if i == 14 {
			petr = 80
		}
		d := day(i).Format(contracts.DateLayout)
		fmt.Fprintf(&prices, "%s,%g,50\n", d, petr)
		fmt.Fprintf(&bench, "%s,%d\n", d, 1000+i*10)
	}

	pricesPath := filepath.Join(dir, "prices.csv")
	benchPath := filepath.Join(dir, "benchmark.csv")
	require.NoError(t, os.WriteFile(pricesPath, []byte(prices.String()), 0644))
	require.NoError(t, os.WriteFile(benchPath, []byte(bench.String()), 0644))
	return pricesPath, benchPath
}

func testConfig(t *testing.T) *strategyconfig.Config {
	t.Helper()
	pricesPath, benchPath := writeInputs(t)

	cfg := strategyconfig.Default()
	cfg.Data.PricesPath = pricesPath
	cfg.Data.BenchmarkPath = benchPath
	cfg.Signals.Window = 10
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestEngine_Run(t *testing.T) {
	cfg := testConfig(t)
	engine := NewEngineFromConfig(cfg, logger.Nop())

	result, err := engine.Run(context.Background(), SourcesFromConfig(cfg))
	require.NoError(t, err)

	assert.Equal(t, []string{"PETR4", "VALE3"}, result.Universe.Symbols)
	assert.Equal(t, day(0), result.StartDate)
	assert.Equal(t, day(14), result.EndDate)

	// 마지막 날 PETR4 z ≈ -2.85 → Buy, VALE3 는 분산 0 → Hold
	require.Len(t, result.Signals.TradeLog, 1)
	assert.Equal(t, contracts.SignalBuy, result.Signals.TradeLog[0].Signal)
	assert.Equal(t, "PETR4", result.Signals.TradeLog[0].Symbol)

	require.Len(t, result.Simulation.Fills, 1)
	fill := result.Simulation.Fills[0]
	assert.Equal(t, day(14), fill.Date)
	assert.InDelta(t, 80.0, fill.Price, 1e-12)
	assert.InDelta(t, 625.0, fill.Qty, 1e-9)
	assert.InDelta(t, 950_000.0, fill.CashAfter, 1e-6)

	// 평가는 주문 전이므로 마지막 값도 초기 자본
	assert.InDelta(t, 0.0, result.Comparison.Strategy.TotalReturn, 1e-12)
	assert.InDelta(t, 0.14, result.Comparison.Benchmark.TotalReturn, 1e-12)
	assert.False(t, result.Comparison.IsOutperforming())
	assert.Len(t, result.StrategyDrawdown, 15)
	assert.Len(t, result.BenchmarkDrawdown, 15)
	assert.Equal(t, 0, result.Trades.ClosedTrades)

	// 14개 수익률 < MinRiskSamples
	assert.Nil(t, result.Risk.Strategy)
	assert.Nil(t, result.Risk.Benchmark)
}

func TestEngine_Deterministic(t *testing.T) {
	cfg := testConfig(t)
	engine := NewEngineFromConfig(cfg, logger.Nop())

	first, err := engine.Run(context.Background(), SourcesFromConfig(cfg))
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), SourcesFromConfig(cfg))
	require.NoError(t, err)

	assert.Equal(t, first.Simulation.History, second.Simulation.History)
	assert.Equal(t, first.Simulation.Fills, second.Simulation.Fills)
	assert.Equal(t, first.Signals.TradeLog, second.Signals.TradeLog)
}

func TestEngine_MissingBenchmark(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.BenchmarkPath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := NewEngineFromConfig(cfg, logger.Nop()).Run(context.Background(), SourcesFromConfig(cfg))
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingInput))
}

func TestEngine_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngineFromConfig(cfg, logger.Nop()).Run(ctx, SourcesFromConfig(cfg))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveArtifacts(t *testing.T) {
	cfg := testConfig(t)
	result, err := NewEngineFromConfig(cfg, logger.Nop()).Run(context.Background(), SourcesFromConfig(cfg))
	require.NoError(t, err)

	snapshot, err := strategyconfig.NewRunSnapshot(cfg, nil, result.Inputs.Paths())
	require.NoError(t, err)

	w := s0_data.NewWriter(cfg.Output.Dir)
	written, err := SaveArtifacts(result, w, cfg.Output, snapshot)
	require.NoError(t, err)

	for _, name := range []string{
		cfg.Output.ZScoresFile,
		cfg.Output.TradeSignalsFile,
		cfg.Output.EquityCurveFile,
		cfg.Output.FillsFile,
		cfg.Output.MetricsFile,
		RunSnapshotFile,
		RiskReportFile,
		TelemetryFile,
		EquityChartFile,
	} {
		assert.Contains(t, written, w.Path(name))
		assert.FileExists(t, w.Path(name))
	}

	trades, err := os.ReadFile(w.Path(cfg.Output.TradeSignalsFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(trades)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], day(14).Format(contracts.DateLayout)+",PETR4,"))
	assert.True(t, strings.HasSuffix(lines[1], ",Buy,80"))
}

func TestSaveArtifacts_NoCharts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Charts = false
	result, err := NewEngineFromConfig(cfg, logger.Nop()).Run(context.Background(), SourcesFromConfig(cfg))
	require.NoError(t, err)

	w := s0_data.NewWriter(cfg.Output.Dir)
	_, err = SaveArtifacts(result, w, cfg.Output, nil)
	require.NoError(t, err)

	assert.NoFileExists(t, w.Path(EquityChartFile))
	assert.NoFileExists(t, w.Path(RunSnapshotFile))
}

func TestSaveArtifacts_ChartFailureWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	result, err := NewEngineFromConfig(cfg, logger.Nop()).Run(context.Background(), SourcesFromConfig(cfg))
	require.NoError(t, err)

	// 빈 벤치마크 → 차트 렌더링 실패
	result.Inputs.Benchmark = &contracts.Benchmark{Symbol: "IBOV"}

	written, err := SaveArtifacts(result, s0_data.NewWriter(cfg.Output.Dir), cfg.Output, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrEmptyResult)
	assert.Empty(t, written)

	entries, err := os.ReadDir(cfg.Output.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
