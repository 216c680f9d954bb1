package contracts

import (
	"math"
	"time"
)

// PerformanceMetrics represents the evaluator output for one equity series
// ⭐ SSOT: Audit 성과 지표
// 정의되지 않는 값(변동성 0 등)은 NaN으로 그대로 노출
type PerformanceMetrics struct {
	Name             string    `json:"name"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	Observations     int       `json:"observations"`
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	Volatility       float64   `json:"volatility"` // 연환산
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"` // ≤ 0
}

// HasSharpe reports whether the Sharpe ratio is defined
func (m *PerformanceMetrics) HasSharpe() bool {
	return !math.IsNaN(m.SharpeRatio) && !math.IsInf(m.SharpeRatio, 0)
}

// Comparison pairs strategy and benchmark metrics
type Comparison struct {
	Strategy  PerformanceMetrics `json:"strategy"`
	Benchmark PerformanceMetrics `json:"benchmark"`
}

// ExcessReturn returns strategy total return minus benchmark total return
func (c *Comparison) ExcessReturn() float64 {
	return c.Strategy.TotalReturn - c.Benchmark.TotalReturn
}

// IsOutperforming checks if the strategy beat the benchmark over the period
func (c *Comparison) IsOutperforming() bool {
	return c.ExcessReturn() > 0
}
