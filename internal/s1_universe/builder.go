package s1_universe

import (
	"fmt"

	"github.com/wonny/zreversion/internal/contracts"
)

// Builder constructs the backtest universe from the aligned price table
type Builder struct {
	config Config
}

// Config holds universe filter criteria
type Config struct {
	DropIncomplete bool     `yaml:"drop_incomplete_assets"` // 결측이 하나라도 있는 종목 제외
	MinCoverage    float64  `yaml:"min_coverage"`           // 최소 가격 커버리지 (0~1)
	Exclude        []string `yaml:"exclude"`                // 명시적 제외 종목
}

// NewBuilder creates a new Universe Builder
func NewBuilder(config Config) *Builder {
	return &Builder{config: config}
}

// Build constructs the universe based on the quality snapshot.
// Symbols keep the price table's column order.
// ⭐ SSOT: S1 → S2 유니버스 생성
func (b *Builder) Build(snapshot *contracts.DataQualitySnapshot, symbols []string) (*contracts.Universe, error) {
	// Quality gate 통과 확인
	if !snapshot.IsValid() {
		return nil, fmt.Errorf("data quality gate not passed: %w: score=%.2f", contracts.ErrEmptyResult, snapshot.QualityScore)
	}

	universe := &contracts.Universe{
		Symbols:    make([]string, 0, len(symbols)),
		Excluded:   make(map[string]string),
		TotalCount: len(symbols),
	}

	for _, symbol := range symbols {
		reason := b.checkExclusion(symbol, snapshot.Coverage[symbol])
		if reason != "" {
			universe.Excluded[symbol] = reason
			continue
		}
		universe.Symbols = append(universe.Symbols, symbol)
	}

	if universe.Count() == 0 {
		return nil, fmt.Errorf("universe: %w: all %d assets excluded", contracts.ErrEmptyResult, len(symbols))
	}

	return universe, nil
}

// checkExclusion checks if a symbol should be excluded and returns the reason
func (b *Builder) checkExclusion(symbol string, coverage float64) string {
	// 우선순위 순서로 체크

	// 1. 명시적 제외
	for _, ex := range b.config.Exclude {
		if ex == symbol {
			return "설정 제외"
		}
	}

	// 2. 가격 없음
	if coverage == 0 {
		return "가격 데이터 없음"
	}

	// 3. 결측 포함
	if b.config.DropIncomplete && coverage < 1.0 {
		return fmt.Sprintf("결측 포함 (커버리지 %.1f%%)", coverage*100)
	}

	// 4. 커버리지 미달
	if coverage < b.config.MinCoverage {
		return fmt.Sprintf("커버리지 미달 (%.1f%%)", coverage*100)
	}

	return ""
}
