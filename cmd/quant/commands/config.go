package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/zreversion/internal/strategyconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 관리",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "전략 YAML 검증",
	Long: `전략 설정을 로드하고 검증한 뒤 경고와 설정 해시를 출력합니다.

Example:
  go run ./cmd/quant config check --config config/strategy/zscore_reversion_exit_mean.yaml`,
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		PrintError(err.Error())
		return err
	}
	rt.resolvePaths()
	s := rt.strategy

	source := rt.sourcePath
	if source == "" {
		source = "(built-in default)"
	}

	PrintJobHeader(JobMetadata{JobType: "Strategy Config Check", Strategy: s.Meta.StrategyID})
	PrintKeyValue("Source", source, 16)
	PrintKeyValue("Environment", rt.cfg.Env, 16)
	PrintKeyValue("Prices", s.Data.PricesPath, 16)
	PrintKeyValue("Benchmark", benchmarkSource(s), 16)
	PrintKeyValue("Window", fmt.Sprintf("%d", s.Signals.Window), 16)
	PrintKeyValue("Buy threshold", fmt.Sprintf("z < %.2f", s.Signals.LowerThreshold), 16)
	PrintKeyValue("Sell threshold", fmt.Sprintf("z > %.2f", s.Signals.UpperThreshold), 16)
	PrintKeyValue("Capital", formatNumber(s.Portfolio.InitialCapital), 16)
	PrintKeyValue("Position size", formatNumber(s.Portfolio.PositionSize), 16)
	PrintKeyValue("Max positions", fmt.Sprintf("%d", s.Portfolio.MaxConcurrentPositions()), 16)
	PrintKeyValue("Periods/year", fmt.Sprintf("%d", s.Metrics.PeriodsPerYear), 16)
	PrintKeyValue("Output", s.Output.Dir, 16)
	fmt.Println()

	if err := strategyconfig.Validate(s); err != nil {
		PrintError(err.Error())
		return err
	}

	warnings := strategyconfig.Warn(s)
	for _, w := range warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	hash, err := strategyconfig.Hash(s)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}
	PrintKeyValue("Config hash", hash, 16)
	fmt.Println()

	PrintSuccess(fmt.Sprintf("Config valid (%d warnings)", len(warnings)))
	return nil
}
