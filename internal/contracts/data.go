package contracts

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the date format used by every tabular input and output
const DateLayout = "2006-01-02"

// Missing reports whether v is the undefined-value sentinel (NaN)
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// Frame is a date-indexed table with one float column per symbol.
// Used for prices and z-scores passed between stages.
// ⭐ SSOT: S0 → S2 → Backtest 가격/지표 테이블 전달
type Frame struct {
	Dates   []time.Time          `json:"dates"`   // 오름차순, 중복 없음
	Symbols []string             `json:"symbols"` // 컬럼 순서 = 처리 순서
	Values  map[string][]float64 `json:"values"`  // NaN = 결측
}

// NewFrame creates a frame with every cell set to NaN
func NewFrame(dates []time.Time, symbols []string) *Frame {
	f := &Frame{
		Dates:   dates,
		Symbols: symbols,
		Values:  make(map[string][]float64, len(symbols)),
	}
	for _, s := range symbols {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		f.Values[s] = col
	}
	return f
}

// Len returns the number of dates
func (f *Frame) Len() int {
	return len(f.Dates)
}

// Column returns the values for a symbol
func (f *Frame) Column(symbol string) ([]float64, bool) {
	col, ok := f.Values[symbol]
	return col, ok
}

// At returns the value at (symbol, date index), NaN when absent
func (f *Frame) At(symbol string, i int) float64 {
	col, ok := f.Values[symbol]
	if !ok || i < 0 || i >= len(col) {
		return math.NaN()
	}
	return col[i]
}

// Set stores a value at (symbol, date index)
func (f *Frame) Set(symbol string, i int, v float64) {
	if col, ok := f.Values[symbol]; ok && i >= 0 && i < len(col) {
		col[i] = v
	}
}

// HasSymbol checks if the frame has a column for symbol
func (f *Frame) HasSymbol(symbol string) bool {
	_, ok := f.Values[symbol]
	return ok
}

// Select returns a frame restricted to the given symbols, in that order.
// Columns are shared, not copied.
func (f *Frame) Select(symbols []string) *Frame {
	out := &Frame{
		Dates:   f.Dates,
		Symbols: make([]string, 0, len(symbols)),
		Values:  make(map[string][]float64, len(symbols)),
	}
	for _, s := range symbols {
		if col, ok := f.Values[s]; ok {
			out.Symbols = append(out.Symbols, s)
			out.Values[s] = col
		}
	}
	return out
}

// Validate checks the invariants every stage relies on
func (f *Frame) Validate() error {
	for i := 1; i < len(f.Dates); i++ {
		if !f.Dates[i].After(f.Dates[i-1]) {
			return fmt.Errorf("%w: date %s not after %s", ErrMisaligned,
				f.Dates[i].Format(DateLayout), f.Dates[i-1].Format(DateLayout))
		}
	}
	for _, s := range f.Symbols {
		col, ok := f.Values[s]
		if !ok {
			return fmt.Errorf("%w: column %s missing", ErrMisaligned, s)
		}
		if len(col) != len(f.Dates) {
			return fmt.Errorf("%w: column %s has %d values for %d dates", ErrMisaligned, s, len(col), len(f.Dates))
		}
	}
	return nil
}

// Benchmark is the index series the strategy is compared against
type Benchmark struct {
	Symbol string      `json:"symbol"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"` // 숫자로 파싱된 행만 포함
}

// Len returns the number of observations
func (b *Benchmark) Len() int {
	return len(b.Values)
}

// DataQualitySnapshot represents data quality information passed from S0 to S1
// ⭐ SSOT: S0 → S1 데이터 품질 정보 전달
type DataQualitySnapshot struct {
	StartDate      time.Time          `json:"start_date"`
	EndDate        time.Time          `json:"end_date"`
	TradingDays    int                `json:"trading_days"`
	TotalAssets    int                `json:"total_assets"`
	ValidAssets    int                `json:"valid_assets"`    // 결측 없는 종목 수
	Coverage       map[string]float64 `json:"coverage"`        // 종목별 가격 커버리지
	MalformedCells int                `json:"malformed_cells"` // 파싱 실패 → NaN 처리된 셀
	QualityScore   float64            `json:"quality_score"`   // 0.0 ~ 1.0
}

// IsValid checks if the snapshot has anything to trade on
func (d *DataQualitySnapshot) IsValid() bool {
	return d.TradingDays > 0 && d.TotalAssets > 0
}

// CoverageRate returns the average coverage rate across all assets
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
