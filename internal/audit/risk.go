package audit

import (
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=0.05 → 5% 손실 가능)
const VaRConvention = "loss_positive"

// MinRiskSamples 일별 수익률이 이보다 적으면 tail risk 를 계산하지 않음 (fail-closed)
const MinRiskSamples = 30

// DefaultConfidenceLevels 기본 신뢰수준
var DefaultConfidenceLevels = []float64{0.95, 0.99}

// VaRResult holds one-day VaR and CVaR at a confidence level.
// Losses are positive.
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"` // Expected Shortfall
}

// TailRisk is the historical and parametric VaR of one equity series
type TailRisk struct {
	Name       string      `json:"name"`
	Samples    int         `json:"samples"`
	Historical []VaRResult `json:"historical"`
	Parametric []VaRResult `json:"parametric"`
}

// RiskReport pairs strategy and benchmark tail risk
type RiskReport struct {
	Convention string    `json:"convention"`
	Strategy   *TailRisk `json:"strategy,omitempty"`
	Benchmark  *TailRisk `json:"benchmark,omitempty"`
}

// AssessRisk computes tail risk of strategy and benchmark daily returns.
// A series with fewer than MinRiskSamples returns is left nil.
func AssessRisk(strategyValues, benchmarkValues []float64, levels []float64) RiskReport {
	return RiskReport{
		Convention: VaRConvention,
		Strategy:   TailRiskOf("strategy", DailyReturns(strategyValues), levels),
		Benchmark:  TailRiskOf("benchmark", DailyReturns(benchmarkValues), levels),
	}
}

// TailRiskOf returns nil when there are too few returns
func TailRiskOf(name string, returns []float64, levels []float64) *TailRisk {
	if len(returns) < MinRiskSamples {
		return nil
	}

	tr := &TailRisk{
		Name:       name,
		Samples:    len(returns),
		Historical: make([]VaRResult, 0, len(levels)),
		Parametric: make([]VaRResult, 0, len(levels)),
	}
	mean, std := stat.MeanStdDev(returns, nil)
	for _, c := range levels {
		tr.Historical = append(tr.Historical, HistoricalVaR(returns, c))
		tr.Parametric = append(tr.Parametric, ParametricVaR(mean, std, c))
	}
	return tr
}

// HistoricalVaR 과거 수익률 기반 VaR 계산 (Historical Simulation)
// VaR = (1-confidence) 백분위수의 손실, CVaR = 그 이하 tail 평균 손실
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence}
	}

	// 수익률 정렬 (오름차순: 손실이 앞에)
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	q := stat.Quantile(1-confidence, stat.Empirical, sorted, nil)

	var tail []float64
	for _, r := range sorted {
		if r > q {
			break
		}
		tail = append(tail, r)
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossOf(q),
		CVaR:       lossOf(stat.Mean(tail, nil)),
	}
}

// ParametricVaR 정규분포 가정 VaR 계산
// VaR = -(μ + σ·Φ⁻¹(1-c)), CVaR = -μ + σ·φ(z)/(1-c)
func ParametricVaR(mean, stdDev, confidence float64) VaRResult {
	if !(stdDev > 0) {
		return VaRResult{Confidence: confidence, VaR: lossOf(mean), CVaR: lossOf(mean)}
	}

	unit := distuv.UnitNormal
	z := unit.Quantile(confidence)

	return VaRResult{
		Confidence: confidence,
		VaR:        lossOf(mean - z*stdDev),
		CVaR:       lossOf(mean - stdDev*unit.Prob(z)/(1-confidence)),
	}
}

// lossOf 수익률을 손실(양수)로 변환, 이익이면 0
func lossOf(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
