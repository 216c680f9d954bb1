package contracts

import "time"

// Fill represents an order executed by the simulator
// ⭐ SSOT: Backtest → Audit 체결 기록 전달
type Fill struct {
	Date      time.Time `json:"date"`
	Symbol    string    `json:"symbol"`
	Side      OrderSide `json:"side"`
	Qty       float64   `json:"qty"`
	Price     float64   `json:"price"`
	Value     float64   `json:"value"`      // qty × price
	CashAfter float64   `json:"cash_after"` // 체결 후 현금
	PnL       float64   `json:"pnl"`        // 매도 시 실현 손익 (매수는 0)
}

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// IsBuy checks if the fill opened a position
func (f *Fill) IsBuy() bool {
	return f.Side == OrderSideBuy
}
