package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/zreversion/internal/audit"
	"github.com/wonny/zreversion/internal/backtest"
	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
	"github.com/wonny/zreversion/internal/strategyconfig"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "백테스팅 프레임워크",
	Long: `과거 종가 데이터로 z-score 평균회귀 전략을 시뮬레이션합니다.

백테스팅은 다음을 산출합니다:
- 종목별 rolling z-score 와 Buy/Sell 시그널
- 일별 포트폴리오 가치 (현금 + 보유 평가액)
- 전략 vs 벤치마크 성과 지표 (수익률, 변동성, Sharpe, MDD)

Example:
  go run ./cmd/quant backtest run --config config/strategy/zscore_reversion.yaml
  go run ./cmd/quant backtest run --window 20 --lower -1.5 --upper 0`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `전체 파이프라인을 실행하고 산출물을 output 디렉터리에 기록합니다.

Flags (전략 YAML 값을 덮어씀, 상대 경로는 DATA_DIR 기준):
  --prices         종가 CSV
  --benchmark      벤치마크 CSV
  --window         rolling window (거래일)
  --lower          Buy 임계값 (z < lower)
  --upper          Sell 임계값 (z > upper)
  --capital        초기 자본
  --position-size  종목당 매수 금액
  --output         산출물 디렉터리
  --no-charts      PNG 차트 생략

Example:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --upper 0.0 --output output/exit_mean`,
		RunE: runBacktest,
	}

	// Flags
	overrides strategyOverrides
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)

	overrides.register(backtestRunCmd, true)
}

// strategyOverrides are flags shared by commands that run part of the pipeline
type strategyOverrides struct {
	prices       string
	benchmark    string
	window       int
	lower        float64
	upper        float64
	capital      float64
	positionSize float64
	output       string
	noCharts     bool
}

func (o *strategyOverrides) register(cmd *cobra.Command, portfolio bool) {
	cmd.Flags().StringVar(&o.prices, "prices", "", "종가 CSV 경로")
	cmd.Flags().StringVar(&o.benchmark, "benchmark", "", "벤치마크 CSV 경로")
	cmd.Flags().IntVar(&o.window, "window", 0, "rolling window (거래일)")
	cmd.Flags().Float64Var(&o.lower, "lower", 0, "Buy 임계값 (z < lower)")
	cmd.Flags().Float64Var(&o.upper, "upper", 0, "Sell 임계값 (z > upper)")
	cmd.Flags().StringVar(&o.output, "output", "", "산출물 디렉터리")
	cmd.Flags().BoolVar(&o.noCharts, "no-charts", false, "PNG 차트 생략")
	if portfolio {
		cmd.Flags().Float64Var(&o.capital, "capital", 0, "초기 자본")
		cmd.Flags().Float64Var(&o.positionSize, "position-size", 0, "종목당 매수 금액")
	}
}

// apply copies only the flags the user set
func (o *strategyOverrides) apply(cmd *cobra.Command, cfg *strategyconfig.Config) {
	flags := cmd.Flags()
	if flags.Changed("prices") {
		cfg.Data.PricesPath = o.prices
	}
	if flags.Changed("benchmark") {
		cfg.Data.BenchmarkPath = o.benchmark
	}
	if flags.Changed("window") {
		cfg.Signals.Window = o.window
	}
	if flags.Changed("lower") {
		cfg.Signals.LowerThreshold = o.lower
	}
	if flags.Changed("upper") {
		cfg.Signals.UpperThreshold = o.upper
	}
	if flags.Changed("capital") {
		cfg.Portfolio.InitialCapital = o.capital
	}
	if flags.Changed("position-size") {
		cfg.Portfolio.PositionSize = o.positionSize
	}
	if flags.Changed("output") {
		cfg.Output.Dir = o.output
	}
	if o.noCharts {
		cfg.Output.Charts = false
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	overrides.apply(cmd, rt.strategy)
	if err := rt.finalize(); err != nil {
		return err
	}
	s := rt.strategy

	PrintJobHeader(JobMetadata{
		JobType:  "Z-Score Mean-Reversion Backtest",
		Strategy: s.Meta.StrategyID,
	})
	fmt.Printf("📂 Prices:     %s\n", s.Data.PricesPath)
	fmt.Printf("📂 Benchmark:  %s\n", benchmarkSource(s))
	fmt.Printf("🪟 Window:     %d days\n", s.Signals.Window)
	fmt.Printf("🎯 Thresholds: buy z < %.2f, sell z > %.2f\n", s.Signals.LowerThreshold, s.Signals.UpperThreshold)
	fmt.Printf("💰 Capital:    %s (position %s)\n\n", formatNumber(s.Portfolio.InitialCapital), formatNumber(s.Portfolio.PositionSize))

	engine := backtest.NewEngineFromConfig(s, rt.log)

	fmt.Println("🚀 Starting backtest...")
	result, err := engine.Run(cmd.Context(), backtest.SourcesFromConfig(s))
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	snapshot, err := strategyconfig.NewRunSnapshot(s, rt.yaml, result.Inputs.Paths())
	if err != nil {
		return fmt.Errorf("run snapshot: %w", err)
	}

	written, err := backtest.SaveArtifacts(result, s0_data.NewWriter(s.Output.Dir), s.Output, snapshot)
	if err != nil {
		return fmt.Errorf("save outputs: %w", err)
	}

	printBacktestResult(result)

	fmt.Println("📁 Outputs")
	PrintList(written)

	PrintJobCompletion("Backtest", result.Duration.Seconds())
	return nil
}

func printTailRisk(tr *audit.TailRisk) {
	if tr == nil {
		PrintInfo(fmt.Sprintf("fewer than %d daily returns, skipped", audit.MinRiskSamples))
		return
	}
	for i, h := range tr.Historical {
		p := tr.Parametric[i]
		fmt.Printf("%-10s VaR %.0f%%: hist %s / normal %s   CVaR: hist %s / normal %s\n",
			tr.Name, h.Confidence*100, formatPct(h.VaR), formatPct(p.VaR), formatPct(h.CVaR), formatPct(p.CVaR))
	}
}

func benchmarkSource(s *strategyconfig.Config) string {
	if s.Data.BenchmarkPath != "" {
		return s.Data.BenchmarkPath
	}
	return fmt.Sprintf("%s (column %q)", s.Data.PricesPath, s.Data.BenchmarkColumn)
}

func printBacktestResult(result *backtest.Result) {
	fmt.Println("\n✅ Backtest Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	// Summary
	fmt.Println("📊 Summary")
	fmt.Printf("Period:       %s ~ %s (%d trading days)\n",
		result.StartDate.Format(contracts.DateLayout),
		result.EndDate.Format(contracts.DateLayout),
		result.Simulation.History.Len())
	fmt.Printf("Universe:     %d assets (%d excluded)\n", result.Universe.Count(), len(result.Universe.Excluded))
	fmt.Printf("Signals:      %d buy, %d sell\n",
		result.Signals.Signals.Count(contracts.SignalBuy),
		result.Signals.Signals.Count(contracts.SignalSell))
	fmt.Printf("Data Quality: %.2f\n", result.Quality.QualityScore)
	fmt.Println()

	// Performance
	fmt.Println("💰 Performance")
	final, _ := result.Simulation.History.Final()
	initial := result.Simulation.History.InitialCapital
	fmt.Printf("Initial Capital: %s\n", formatNumber(initial))
	fmt.Printf("Final Value:     %s\n", formatNumber(final))
	fmt.Printf("Final Cash:      %s\n", formatNumber(result.Simulation.Stats.FinalCash))
	fmt.Printf("P&L:             %s (%s)\n", formatNumber(final-initial), formatPct(result.Comparison.Strategy.TotalReturn))
	fmt.Println()

	PrintMetricsTable(result.Comparison)
	fmt.Println()

	if result.Comparison.IsOutperforming() {
		fmt.Printf("🌟 Outperformed benchmark by %s\n", formatPct(result.Comparison.ExcessReturn()))
	} else {
		fmt.Printf("❌ Underperformed benchmark by %s\n", formatPct(-result.Comparison.ExcessReturn()))
	}
	fmt.Println()

	// Trading Metrics
	stats := result.Simulation.Stats
	fmt.Println("💹 Trading Metrics")
	fmt.Printf("Fills:           %d (%d buy, %d sell)\n", stats.TotalFills, stats.Buys, stats.Sells)
	fmt.Printf("Winning Trades:  %d (%s)\n", stats.WinningTrades, formatPct(stats.WinRate()))
	fmt.Printf("Losing Trades:   %d\n", stats.LosingTrades)
	fmt.Printf("Skipped Buys:    %d (insufficient cash)\n", stats.SkippedBuys)
	fmt.Printf("Skipped Orders:  %d (no price)\n", stats.SkippedUnpriced)
	fmt.Printf("Open Positions:  %d\n", stats.OpenPositions)
	fmt.Printf("Realized P&L:    %s\n", formatNumber(stats.RealizedPnL))
	if result.Trades.ClosedTrades > 0 {
		fmt.Printf("Profit Factor:   %s\n", formatRatio(result.Trades.ProfitFactor))
		fmt.Printf("Avg Holding:     %.1f days\n", result.Trades.AvgHoldingDays)
	}
	fmt.Println()

	// Tail Risk
	fmt.Println("📉 Tail Risk (1-day, loss positive)")
	printTailRisk(result.Risk.Strategy)
	printTailRisk(result.Risk.Benchmark)
	fmt.Println()

	// Equity Curve (last 10 points)
	fmt.Println("📈 Equity Curve (Last 10 Days)")
	points := result.Simulation.History.Points
	startIdx := len(points) - 10
	if startIdx < 0 {
		startIdx = 0
	}
	for i, point := range points[startIdx:] {
		fmt.Printf("%s: %s (DD %s)\n",
			point.Date.Format(contracts.DateLayout),
			formatNumber(point.Value),
			formatPct(result.StrategyDrawdown[startIdx+i]))
	}
	fmt.Println()
}
