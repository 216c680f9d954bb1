package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/zreversion/internal/backtest"
	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
)

var zscoreCmd = &cobra.Command{
	Use:   "zscore",
	Short: "Z-score 테이블 계산",
	Long: `종목별 rolling z-score 를 계산해서 zscores.csv 로 기록합니다.

워밍업 구간과 분산 0 구간은 빈 셀(NaN)로 기록됩니다.

Example:
  go run ./cmd/quant zscore
  go run ./cmd/quant zscore --window 20 --prices data/prices.csv`,
	RunE: runZScore,
}

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Trade-signal 로그 생성",
	Long: `z-score 를 임계값으로 분류해서 Buy/Sell 행만 trade_signals.csv 로 기록합니다.

Example:
  go run ./cmd/quant signals
  go run ./cmd/quant signals --lower -2.5 --upper 0`,
	RunE: runSignals,
}

var (
	zscoreOverrides  strategyOverrides
	signalsOverrides strategyOverrides
)

func init() {
	rootCmd.AddCommand(zscoreCmd)
	rootCmd.AddCommand(signalsCmd)

	zscoreOverrides.register(zscoreCmd, false)
	signalsOverrides.register(signalsCmd, false)
}

func runZScore(cmd *cobra.Command, args []string) error {
	prepared, rt, start, err := prepareSignals(cmd, &zscoreOverrides, "Z-Score Engine")
	if err != nil {
		return err
	}
	out := rt.strategy.Output

	w := s0_data.NewWriter(out.Dir)
	if err := w.WriteFrame(out.ZScoresFile, prepared.Signals.ZScores); err != nil {
		return fmt.Errorf("write z-scores: %w", err)
	}

	z := prepared.Signals.ZScores
	widths := []int{10, 10, 12}
	PrintTableHeader([]string{"Symbol", "Defined", "Last Z"}, widths)
	for _, s := range z.Symbols {
		col, _ := z.Column(s)
		defined := 0
		for _, v := range col {
			if !contracts.Missing(v) {
				defined++
			}
		}
		PrintTableRow([]string{s, fmt.Sprintf("%d", defined), formatRatio(z.At(s, z.Len()-1))}, widths)
	}

	fmt.Println()
	PrintSuccess("Wrote " + w.Path(out.ZScoresFile))
	PrintJobCompletion("Z-score", time.Since(start).Seconds())
	return nil
}

func runSignals(cmd *cobra.Command, args []string) error {
	prepared, rt, start, err := prepareSignals(cmd, &signalsOverrides, "Signal Classifier")
	if err != nil {
		return err
	}
	out := rt.strategy.Output

	w := s0_data.NewWriter(out.Dir)
	if err := w.WriteTradeSignals(out.TradeSignalsFile, prepared.Signals.TradeLog); err != nil {
		return fmt.Errorf("write trade signals: %w", err)
	}

	sf := prepared.Signals.Signals
	PrintKeyValue("Buy signals", fmt.Sprintf("%d", sf.Count(contracts.SignalBuy)), 12)
	PrintKeyValue("Sell signals", fmt.Sprintf("%d", sf.Count(contracts.SignalSell)), 12)
	PrintKeyValue("Log rows", fmt.Sprintf("%d", len(prepared.Signals.TradeLog)), 12)

	fmt.Println()
	PrintSuccess("Wrote " + w.Path(out.TradeSignalsFile))
	PrintJobCompletion("Signals", time.Since(start).Seconds())
	return nil
}

// prepareSignals runs S0 → S2 with flag overrides applied
func prepareSignals(cmd *cobra.Command, o *strategyOverrides, title string) (*backtest.Prepared, *runtime, time.Time, error) {
	start := time.Now()

	rt, err := loadRuntime()
	if err != nil {
		return nil, nil, start, err
	}
	o.apply(cmd, rt.strategy)
	if err := rt.finalize(); err != nil {
		return nil, nil, start, err
	}
	s := rt.strategy

	PrintJobHeader(JobMetadata{JobType: title, Strategy: s.Meta.StrategyID})
	fmt.Printf("🪟 Window:     %d days\n", s.Signals.Window)
	fmt.Printf("🎯 Thresholds: buy z < %.2f, sell z > %.2f\n\n", s.Signals.LowerThreshold, s.Signals.UpperThreshold)

	engine := backtest.NewEngineFromConfig(s, rt.log)
	prepared, err := engine.Prepare(cmd.Context(), backtest.SourcesFromConfig(s))
	if err != nil {
		return nil, nil, start, fmt.Errorf("signal generation failed: %w", err)
	}
	return prepared, rt, start, nil
}
