package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/zreversion/internal/backtest"
	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
	"github.com/wonny/zreversion/internal/s0_data/collector"
	"github.com/wonny/zreversion/internal/s0_data/quality"
	"github.com/wonny/zreversion/internal/s1_universe"
)

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "입력 데이터 상태 확인",
	Long: `종가/벤치마크 CSV 를 로드해서 데이터 상태를 확인합니다.

확인 항목:
- 공통 거래일 수와 기간
- 종목별 가격 커버리지
- 파싱 실패 셀 수
- 유니버스 포함/제외 종목과 사유

Example:
  go run ./cmd/quant data-check
  go run ./cmd/quant data-check --prices data/prices.csv --benchmark data/ibov.csv`,
	RunE: runDataCheck,
}

var dataCheckOverrides strategyOverrides

func init() {
	rootCmd.AddCommand(dataCheckCmd)
	dataCheckOverrides.register(dataCheckCmd, false)
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	dataCheckOverrides.apply(cmd, rt.strategy)
	if err := rt.finalize(); err != nil {
		return err
	}
	s := rt.strategy

	PrintJobHeader(JobMetadata{JobType: "Input Data Check", Strategy: s.Meta.StrategyID})

	inputs, err := collector.NewCollector(s0_data.NewCSVReader(s.Data.DateColumn, s.Data.DateLayouts), rt.log.WithStage("s0_data")).
		Collect(cmd.Context(), backtest.SourcesFromConfig(s))
	if err != nil {
		PrintError(err.Error())
		return err
	}

	fmt.Println("📋 입력 파일")
	for _, r := range inputs.Reports {
		PrintKeyValue(r.Path, fmt.Sprintf("%d rows, %d dropped, %d malformed", r.Rows, r.DroppedRows, r.MalformedCells), 0)
	}
	fmt.Println()

	gate := quality.NewQualityGate(quality.Config{MinQualityScore: quality.DefaultMinQualityScore})
	snapshot, err := gate.Check(inputs.Prices, inputs.MalformedCells())
	if err != nil {
		PrintError(err.Error())
		return err
	}

	fmt.Println("📊 데이터 품질")
	PrintKeyValue("Period", fmt.Sprintf("%s ~ %s",
		snapshot.StartDate.Format(contracts.DateLayout), snapshot.EndDate.Format(contracts.DateLayout)), 14)
	PrintKeyValue("Trading days", fmt.Sprintf("%d", snapshot.TradingDays), 14)
	PrintKeyValue("Assets", fmt.Sprintf("%d (%d complete)", snapshot.TotalAssets, snapshot.ValidAssets), 14)
	PrintKeyValue("Coverage", formatPct(snapshot.CoverageRate()), 14)
	PrintKeyValue("Quality score", fmt.Sprintf("%.2f", snapshot.QualityScore), 14)
	fmt.Println()

	universe, err := s1_universe.NewBuilder(s1_universe.Config{
		DropIncomplete: s.Universe.DropIncompleteAssets,
		MinCoverage:    s.Universe.MinCoverage,
		Exclude:        s.Universe.Exclude,
	}).Build(snapshot, inputs.Prices.Symbols)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	fmt.Println("🧺 유니버스")
	widths := []int{12, 10, 24}
	PrintTableHeader([]string{"Symbol", "Coverage", "Status"}, widths)
	for _, sym := range inputs.Prices.Symbols {
		status := "✅ included"
		if excluded, reason := universe.IsExcluded(sym); excluded {
			status = "❌ " + reason
		}
		PrintTableRow([]string{sym, formatPct(snapshot.Coverage[sym]), status}, widths)
	}
	fmt.Println()

	if len(universe.Excluded) > 0 {
		excluded := make([]string, 0, len(universe.Excluded))
		for sym := range universe.Excluded {
			excluded = append(excluded, sym)
		}
		sort.Strings(excluded)
		PrintWarning(fmt.Sprintf("%d assets excluded: %v", len(excluded), excluded))
	}

	if gate.Passed(snapshot) {
		PrintSuccess(fmt.Sprintf("Data ready: %d assets over %d trading days", universe.Count(), snapshot.TradingDays))
	} else {
		PrintWarning(fmt.Sprintf("Quality score %.2f below %.2f", snapshot.QualityScore, quality.DefaultMinQualityScore))
	}
	return nil
}
