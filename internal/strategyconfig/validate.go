package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Data ===
	if cfg.Data.DateColumn == "" {
		return ValidationError{"data.date_column", "required"}
	}
	if len(cfg.Data.DateLayouts) == 0 {
		return ValidationError{"data.date_layouts", "must not be empty"}
	}

	// === Universe ===
	if err := validatePctRange(cfg.Universe.MinCoverage, "universe.min_coverage"); err != nil {
		return err
	}

	// === Signals ===
	// 표본 표준편차는 관측치 2개 이상 필요
	if cfg.Signals.Window < 2 {
		return ValidationError{"signals.window", "must be >= 2"}
	}
	if !isFinite(cfg.Signals.LowerThreshold) {
		return ValidationError{"signals.lower_threshold", "must be finite"}
	}
	if !isFinite(cfg.Signals.UpperThreshold) {
		return ValidationError{"signals.upper_threshold", "must be finite"}
	}
	if cfg.Signals.LowerThreshold > cfg.Signals.UpperThreshold {
		return ValidationError{"signals", "lower_threshold must be <= upper_threshold"}
	}

	// === Portfolio ===
	if !(cfg.Portfolio.InitialCapital > 0) {
		return ValidationError{"portfolio.initial_capital", "must be > 0"}
	}
	if !(cfg.Portfolio.PositionSize > 0) {
		return ValidationError{"portfolio.position_size", "must be > 0"}
	}

	// === Metrics ===
	if cfg.Metrics.PeriodsPerYear <= 0 {
		return ValidationError{"metrics.periods_per_year", "must be > 0"}
	}

	// === Output ===
	if cfg.Output.Dir == "" {
		return ValidationError{"output.dir", "required"}
	}
	if cfg.Output.HistogramBins <= 0 {
		return ValidationError{"output.histogram_bins", "must be > 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 진입/청산 임계값 비대칭 (청산 0.0 vs +2.0 변형이 공존)
	if !cfg.Signals.Thresholds().IsSymmetric() {
		warnings = append(warnings, Warning{
			Code: "ASYMMETRIC_THRESHOLDS",
			Message: fmt.Sprintf("lower=%.2f upper=%.2f: exit is not the mirror of entry, results differ from the symmetric variant",
				cfg.Signals.LowerThreshold, cfg.Signals.UpperThreshold),
		})
	}

	// 포지션 크기 > 자본이면 매수 불가
	if cfg.Portfolio.PositionSize > cfg.Portfolio.InitialCapital {
		warnings = append(warnings, Warning{
			Code:    "POSITION_EXCEEDS_CAPITAL",
			Message: "position_size > initial_capital: no buy can ever execute",
		})
	}

	// 짧은 윈도우는 z-score 노이즈가 큼
	if cfg.Signals.Window < 10 {
		warnings = append(warnings, Warning{
			Code:    "SHORT_WINDOW",
			Message: fmt.Sprintf("window=%d < 10: z-scores are noisy", cfg.Signals.Window),
		})
	}

	if cfg.Metrics.PeriodsPerYear != 252 {
		warnings = append(warnings, Warning{
			Code:    "NONSTANDARD_ANNUALIZATION",
			Message: fmt.Sprintf("periods_per_year=%d (daily equities use 252)", cfg.Metrics.PeriodsPerYear),
		})
	}

	return warnings
}

// === Helper Functions ===

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validatePctRange는 비율 값이 0~1 범위인지 검증
func validatePctRange(pct float64, field string) error {
	if math.IsNaN(pct) || pct < 0 || pct > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}
