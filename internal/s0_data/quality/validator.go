package quality

import (
	"fmt"

	"github.com/wonny/zreversion/internal/contracts"
)

// QualityGate validates an aligned price table and generates snapshots
type QualityGate struct {
	config Config
}

// Config holds quality gate thresholds
type Config struct {
	MinQualityScore float64 `yaml:"min_quality_score"` // 0.0 ~ 1.0, 미달 시 경고
}

// DefaultMinQualityScore 이 값 미만이면 경고
const DefaultMinQualityScore = 0.9

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(config Config) *QualityGate {
	return &QualityGate{config: config}
}

// Check measures per-asset price coverage over the table's dates
// ⭐ SSOT: S0 → S1 품질 검증
func (g *QualityGate) Check(frame *contracts.Frame, malformedCells int) (*contracts.DataQualitySnapshot, error) {
	if frame.Len() == 0 || len(frame.Symbols) == 0 {
		return nil, fmt.Errorf("quality check: %w: %d dates, %d assets",
			contracts.ErrEmptyResult, frame.Len(), len(frame.Symbols))
	}

	snapshot := &contracts.DataQualitySnapshot{
		StartDate:      frame.Dates[0],
		EndDate:        frame.Dates[frame.Len()-1],
		TradingDays:    frame.Len(),
		TotalAssets:    len(frame.Symbols),
		Coverage:       make(map[string]float64, len(frame.Symbols)),
		MalformedCells: malformedCells,
	}

	// 1. 종목별 커버리지
	for _, s := range frame.Symbols {
		cov := coverage(frame, s)
		snapshot.Coverage[s] = cov
		if cov == 1.0 {
			snapshot.ValidAssets++
		}
	}

	// 2. 품질 점수 계산
	snapshot.QualityScore = g.calculateScore(snapshot)

	return snapshot, nil
}

// Passed reports whether the snapshot meets the configured minimum score
func (g *QualityGate) Passed(snapshot *contracts.DataQualitySnapshot) bool {
	return snapshot.QualityScore >= g.config.MinQualityScore
}

// coverage returns the share of dates with a defined price
func coverage(frame *contracts.Frame, symbol string) float64 {
	col, ok := frame.Column(symbol)
	if !ok || len(col) == 0 {
		return 0
	}
	valid := 0
	for _, v := range col {
		if !contracts.Missing(v) {
			valid++
		}
	}
	return float64(valid) / float64(len(col))
}

// calculateScore calculates overall quality score using weighted average
func (g *QualityGate) calculateScore(snapshot *contracts.DataQualitySnapshot) float64 {
	// 가중치 (합계 = 1.0)
	const (
		coverageWeight = 0.7 // 평균 가격 커버리지
		completeWeight = 0.3 // 결측 없는 종목 비율
	)

	complete := float64(snapshot.ValidAssets) / float64(snapshot.TotalAssets)
	return snapshot.CoverageRate()*coverageWeight + complete*completeWeight
}
