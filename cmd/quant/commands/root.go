package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/zreversion/internal/strategyconfig"
	"github.com/wonny/zreversion/pkg/config"
	"github.com/wonny/zreversion/pkg/logger"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Z-score mean-reversion backtester",
	Long: `Z-score 평균회귀 백테스터

일별 종가 테이블에서 rolling z-score를 계산하고
Buy/Sell/Hold 시그널로 고정 금액 포지션을 시뮬레이션한 뒤
벤치마크와 성과를 비교합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant backtest run --config config/strategy/zscore_reversion.yaml
  go run ./cmd/quant zscore --prices data/prices.csv
  go run ./cmd/quant distribution --source zscores --side buy
  go run ./cmd/quant config check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "strategy YAML (default: STRATEGY_CONFIG, then built-in)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// runtime bundles process config, strategy config and logger for one command
type runtime struct {
	cfg        *config.Config
	strategy   *strategyconfig.Config
	yaml       []byte
	sourcePath string // 전략 YAML 경로 (내장 기본값이면 "")
	log        *logger.Logger
}

// loadRuntime resolves config in order: built-in defaults → env/.env → strategy YAML → flags
func loadRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	path := configFile
	if path == "" {
		path = cfg.StrategyConfig
	}

	rt := &runtime{cfg: cfg, sourcePath: path}
	if path != "" {
		strategy, data, err := strategyconfig.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load strategy: %w", err)
		}
		rt.strategy, rt.yaml = strategy, data
	} else {
		rt.strategy = strategyconfig.Default()
		rt.strategy.Output.Dir = cfg.OutputDir
	}

	if !cfg.ChartsEnabled {
		rt.strategy.Output.Charts = false
	}
	rt.log = logger.New(cfg)
	return rt, nil
}

// resolvePaths joins relative input paths onto DATA_DIR
// ⭐ YAML 과 플래그 경로 모두 같은 규칙 (플래그 적용 후 호출)
func (rt *runtime) resolvePaths() {
	rt.strategy.Data.PricesPath = rt.cfg.ResolveDataPath(rt.strategy.Data.PricesPath)
	rt.strategy.Data.BenchmarkPath = rt.cfg.ResolveDataPath(rt.strategy.Data.BenchmarkPath)
}

// finalize resolves input paths, re-validates after flag overrides and prints warnings
func (rt *runtime) finalize() error {
	rt.resolvePaths()
	if err := strategyconfig.Validate(rt.strategy); err != nil {
		return fmt.Errorf("invalid strategy config: %w", err)
	}
	for _, w := range strategyconfig.Warn(rt.strategy) {
		rt.log.WithField("code", w.Code).Warn(w.Message)
	}
	return nil
}
