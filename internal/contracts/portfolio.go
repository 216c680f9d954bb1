package contracts

import "time"

// EquityPoint is one daily portfolio valuation
// ⭐ 계약: 당일 주문 실행 전에 평가한 값 (전일 결정 + 당일 시가평가)
type EquityPoint struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`     // 현금 + 보유 종목 평가액
	Cash      float64   `json:"cash"`      // 평가 시점 현금
	Positions int       `json:"positions"` // 평가 시점 보유 종목 수
	Unpriced  int       `json:"unpriced"`  // 가격 결측으로 평가에서 제외된 보유 종목 수
}

// PortfolioHistory is the append-only equity curve produced by the simulator
type PortfolioHistory struct {
	InitialCapital float64       `json:"initial_capital"`
	Points         []EquityPoint `json:"points"`
}

// Len returns the number of snapshots
func (h *PortfolioHistory) Len() int {
	return len(h.Points)
}

// Values returns the portfolio values in date order
func (h *PortfolioHistory) Values() []float64 {
	values := make([]float64, len(h.Points))
	for i, p := range h.Points {
		values[i] = p.Value
	}
	return values
}

// Final returns the last snapshot value
func (h *PortfolioHistory) Final() (float64, bool) {
	if len(h.Points) == 0 {
		return 0, false
	}
	return h.Points[len(h.Points)-1].Value, true
}

// Base100 returns value / initial capital × 100 per point
func (h *PortfolioHistory) Base100() []float64 {
	out := make([]float64, len(h.Points))
	for i, p := range h.Points {
		out[i] = p.Value / h.InitialCapital * 100
	}
	return out
}
