package strategyconfig

import (
	"time"

	"github.com/wonny/zreversion/internal/contracts"
)

// Config는 z-score 평균회귀 백테스트 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Data      Data      `yaml:"data" json:"data"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Signals   Signals   `yaml:"signals" json:"signals"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Metrics   Metrics   `yaml:"metrics" json:"metrics"`
	Output    Output    `yaml:"output" json:"output"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID  string `yaml:"strategy_id" json:"strategy_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Data S0: 입력 테이블
type Data struct {
	PricesPath      string   `yaml:"prices_path" json:"prices_path"`
	BenchmarkPath   string   `yaml:"benchmark_path" json:"benchmark_path"`     // 비어 있으면 prices 테이블의 컬럼 사용
	BenchmarkColumn string   `yaml:"benchmark_column" json:"benchmark_column"` // 벤치마크 가격 컬럼명
	BenchmarkSymbol string   `yaml:"benchmark_symbol" json:"benchmark_symbol"` // 리포트 표시명 (예: IBOV)
	DateColumn      string   `yaml:"date_column" json:"date_column"`
	DateLayouts     []string `yaml:"date_layouts" json:"date_layouts"`
}

// Universe S1: 백테스트 대상 종목
type Universe struct {
	DropIncompleteAssets bool     `yaml:"drop_incomplete_assets" json:"drop_incomplete_assets"` // 결측이 하나라도 있으면 제외
	MinCoverage          float64  `yaml:"min_coverage" json:"min_coverage"`                     // 0~1
	Exclude              []string `yaml:"exclude" json:"exclude"`
}

// Signals S2: z-score 시그널
type Signals struct {
	Window         int     `yaml:"window" json:"window"`
	LowerThreshold float64 `yaml:"lower_threshold" json:"lower_threshold"` // z < lower → Buy
	UpperThreshold float64 `yaml:"upper_threshold" json:"upper_threshold"` // z > upper → Sell
}

// Thresholds returns the classifier bounds
func (s Signals) Thresholds() contracts.Thresholds {
	return contracts.Thresholds{Lower: s.LowerThreshold, Upper: s.UpperThreshold}
}

// Portfolio 시뮬레이션 자본/포지션 크기
type Portfolio struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	PositionSize   float64 `yaml:"position_size" json:"position_size"` // 종목당 고정 금액
}

// MaxConcurrentPositions returns how many positions the capital can fund at once
func (p Portfolio) MaxConcurrentPositions() int {
	if p.PositionSize <= 0 {
		return 0
	}
	return int(p.InitialCapital / p.PositionSize)
}

// Metrics 성과 지표 계산 파라미터
type Metrics struct {
	PeriodsPerYear int `yaml:"periods_per_year" json:"periods_per_year"`
}

// Output 산출물
type Output struct {
	Dir              string `yaml:"dir" json:"dir"`
	ZScoresFile      string `yaml:"zscores_file" json:"zscores_file"`
	TradeSignalsFile string `yaml:"trade_signals_file" json:"trade_signals_file"`
	EquityCurveFile  string `yaml:"equity_curve_file" json:"equity_curve_file"`
	FillsFile        string `yaml:"fills_file" json:"fills_file"`
	MetricsFile      string `yaml:"metrics_file" json:"metrics_file"`
	Charts           bool   `yaml:"charts" json:"charts"`
	HistogramBins    int    `yaml:"histogram_bins" json:"histogram_bins"`
}

// Default returns the reference strategy: 50-day window, ±2.0 thresholds,
// 1,000,000 capital and 50,000 per position.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "zscore_reversion",
			Version:    "1.0.0",
		},
		Data: Data{
			PricesPath:      "prices.csv",
			BenchmarkPath:   "benchmark.csv",
			BenchmarkColumn: "Close",
			BenchmarkSymbol: "IBOV",
			DateColumn:      "Date",
			DateLayouts:     []string{contracts.DateLayout, "2006-01-02 15:04:05", time.RFC3339},
		},
		Universe: Universe{
			DropIncompleteAssets: true,
			MinCoverage:          0,
		},
		Signals: Signals{
			Window:         50,
			LowerThreshold: -2.0,
			UpperThreshold: 2.0,
		},
		Portfolio: Portfolio{
			InitialCapital: 1_000_000,
			PositionSize:   50_000,
		},
		Metrics: Metrics{
			PeriodsPerYear: 252,
		},
		Output: Output{
			Dir:              "output",
			ZScoresFile:      "zscores.csv",
			TradeSignalsFile: "trade_signals.csv",
			EquityCurveFile:  "equity_curve.csv",
			FillsFile:        "fills.csv",
			MetricsFile:      "metrics.csv",
			Charts:           true,
			HistogramBins:    50,
		},
	}
}

// RunSnapshot 실행 스냅샷 (재현성용)
type RunSnapshot struct {
	RunID      string    `json:"run_id"`
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml,omitempty"`
	StrategyID string    `json:"strategy_id"`
	Inputs     []string  `json:"inputs"`
	CreatedAt  time.Time `json:"created_at"`
}
