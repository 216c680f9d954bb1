package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/zreversion/internal/audit"
	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
)

var distributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Z-score 분포 분석",
	Long: `진입 구간 z-score 의 분포를 정규분포로 적합하고 히스토그램 PNG 를 생성합니다.

Sources:
  zscores   zscores.csv 의 모든 정의된 값 중 z < lower (buy) / z > upper (sell)
  signals   trade_signals.csv 에서 Signal 이 Buy / Sell 인 행

Example:
  go run ./cmd/quant distribution --source zscores --side buy
  go run ./cmd/quant distribution --source signals --side sell --bins 30`,
	RunE: runDistribution,
}

var (
	distSource string
	distSide   string
	distInput  string
	distBins   int
)

func init() {
	rootCmd.AddCommand(distributionCmd)

	distributionCmd.Flags().StringVar(&distSource, "source", "zscores", "입력 종류 (zscores|signals)")
	distributionCmd.Flags().StringVar(&distSide, "side", "buy", "분석 구간 (buy|sell)")
	distributionCmd.Flags().StringVar(&distInput, "input", "", "입력 CSV (기본: output 디렉터리의 산출물)")
	distributionCmd.Flags().IntVar(&distBins, "bins", 0, "히스토그램 구간 수 (기본: output.histogram_bins)")
}

func runDistribution(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	if err := rt.finalize(); err != nil {
		return err
	}
	s := rt.strategy

	side, err := audit.ParseSide(distSide)
	if err != nil {
		return err
	}
	bins := s.Output.HistogramBins
	if cmd.Flags().Changed("bins") {
		bins = distBins
	}

	w := s0_data.NewWriter(s.Output.Dir)
	reader := s0_data.NewCSVReader(s.Data.DateColumn, s.Data.DateLayouts)
	th := s.Signals.Thresholds()

	var values []float64
	input := distInput
	switch strings.ToLower(distSource) {
	case "zscores":
		if input == "" {
			input = w.Path(s.Output.ZScoresFile)
		}
		frame, _, err := reader.LoadFrame(input)
		if err != nil {
			return fmt.Errorf("load z-scores: %w", err)
		}
		values = audit.SelectZScores(frame, side, th)
	case "signals":
		if input == "" {
			input = w.Path(s.Output.TradeSignalsFile)
		}
		log, _, err := reader.LoadTradeSignals(input)
		if err != nil {
			return fmt.Errorf("load trade signals: %w", err)
		}
		values = audit.SelectTradeLog(log, side)
	default:
		return fmt.Errorf("unknown source %q (zscores|signals)", distSource)
	}

	PrintJobHeader(JobMetadata{JobType: "Z-Score Distribution", Strategy: s.Meta.StrategyID})
	PrintKeyValue("Source", input, 10)
	PrintKeyValue("Side", fmt.Sprintf("%s (threshold %.2f)", side, side.Threshold(th)), 10)
	fmt.Println()

	dist, err := audit.FitDistribution(values, side, side.Threshold(th), bins)
	if errors.Is(err, contracts.ErrEmptyResult) {
		PrintWarning(fmt.Sprintf("No %s-side z-scores in %s, nothing to fit", side, input))
		return nil
	}
	if err != nil {
		return err
	}

	PrintKeyValue("Count", fmt.Sprintf("%d", dist.Count), 10)
	PrintKeyValue("Mean (μ)", fmt.Sprintf("%.4f", dist.Mean), 10)
	PrintKeyValue("StdDev (σ)", fmt.Sprintf("%.4f", dist.StdDev), 10)
	PrintKeyValue("Min", fmt.Sprintf("%.4f", dist.Min), 10)
	PrintKeyValue("Max", fmt.Sprintf("%.4f", dist.Max), 10)
	fmt.Println()

	base := fmt.Sprintf("distribution_%s_%s", strings.ToLower(distSource), side)
	if err := w.WriteJSON(base+".json", dist); err != nil {
		return fmt.Errorf("write distribution: %w", err)
	}
	PrintSuccess("Wrote " + w.Path(base+".json"))

	if s.Output.Charts {
		png, err := audit.RenderDistribution(dist)
		if err != nil {
			return err
		}
		if err := w.WriteBytes(base+".png", png); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		PrintSuccess("Wrote " + w.Path(base+".png"))
	}

	return nil
}
