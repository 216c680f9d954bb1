package audit

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/pkg/logger"
)

// Analyzer derives performance metrics from equity series
// ⭐ SSOT: 성과 분석 로직은 여기서만
// 정의되지 않는 값은 NaN으로 노출 (0으로 대체 금지)
type Analyzer struct {
	periodsPerYear int
	logger         *logger.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(periodsPerYear int, log *logger.Logger) *Analyzer {
	return &Analyzer{
		periodsPerYear: periodsPerYear,
		logger:         log,
	}
}

// Evaluate computes metrics for one series. base is the reference value for total return
// (initial capital for the strategy, first observation for the benchmark).
func (a *Analyzer) Evaluate(name string, dates []time.Time, values []float64, base float64) (contracts.PerformanceMetrics, error) {
	m := contracts.PerformanceMetrics{Name: name, Observations: len(values)}
	if len(values) == 0 {
		return m, fmt.Errorf("evaluate %s: %w", name, contracts.ErrEmptyResult)
	}
	if len(dates) == len(values) {
		m.StartDate = dates[0]
		m.EndDate = dates[len(dates)-1]
	}

	// 수익률
	m.TotalReturn = values[len(values)-1]/base - 1
	m.AnnualizedReturn = a.annualize(m.TotalReturn, len(values))

	// 리스크 지표
	m.Volatility = a.calculateVolatility(DailyReturns(values))
	m.SharpeRatio = calculateSharpe(m.AnnualizedReturn, m.Volatility)
	m.MaxDrawdown = MaxDrawdown(values)

	return m, nil
}

// Compare evaluates the strategy equity curve and the benchmark with the same formulas
func (a *Analyzer) Compare(history *contracts.PortfolioHistory, bench *contracts.Benchmark) (*contracts.Comparison, error) {
	dates := make([]time.Time, history.Len())
	for i, p := range history.Points {
		dates[i] = p.Date
	}

	strategy, err := a.Evaluate("Strategy", dates, history.Values(), history.InitialCapital)
	if err != nil {
		return nil, err
	}

	if bench == nil || bench.Len() == 0 {
		return nil, &contracts.MissingInputError{Path: "benchmark", Err: contracts.ErrEmptyResult}
	}
	benchmark, err := a.Evaluate(bench.Symbol, bench.Dates, bench.Values, bench.Values[0])
	if err != nil {
		return nil, err
	}

	cmp := &contracts.Comparison{Strategy: strategy, Benchmark: benchmark}

	a.logger.WithFields(map[string]interface{}{
		"total_return":     strategy.TotalReturn,
		"sharpe":           strategy.SharpeRatio,
		"max_drawdown":     strategy.MaxDrawdown,
		"benchmark_return": benchmark.TotalReturn,
		"excess_return":    cmp.ExcessReturn(),
	}).Info("Performance analysis completed")

	if !strategy.HasSharpe() {
		a.logger.WithField("volatility", strategy.Volatility).Warn("Strategy Sharpe ratio undefined")
	}

	return cmp, nil
}

// annualize converts a total return over n observations to an annual rate
func (a *Analyzer) annualize(totalReturn float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return math.Pow(1.0+totalReturn, float64(a.periodsPerYear)/float64(n)) - 1.0
}

// calculateVolatility returns the annualized sample std of daily returns (NaN with < 2 returns)
func (a *Analyzer) calculateVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return math.NaN()
	}
	return stat.StdDev(dailyReturns, nil) * math.Sqrt(float64(a.periodsPerYear))
}

// calculateSharpe returns annual return / volatility without a risk-free rate.
// Zero or undefined volatility yields NaN.
func calculateSharpe(annualReturn, volatility float64) float64 {
	if volatility == 0 || math.IsNaN(volatility) {
		return math.NaN()
	}
	return annualReturn / volatility
}

// DailyReturns returns the period-over-period percent change
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// DrawdownSeries returns cum / running peak - 1 per observation, cum = value / value[0]
func DrawdownSeries(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	peak := 1.0
	for i, v := range values {
		cum := v / values[0]
		if cum > peak {
			peak = cum
		}
		out[i] = cum/peak - 1
	}
	return out
}

// MaxDrawdown returns the minimum of the drawdown series (≤ 0)
func MaxDrawdown(values []float64) float64 {
	dd := DrawdownSeries(values)
	if len(dd) == 0 {
		return math.NaN()
	}
	maxDD := 0.0
	for _, d := range dd {
		if d < maxDD {
			maxDD = d
		}
	}
	return maxDD
}
