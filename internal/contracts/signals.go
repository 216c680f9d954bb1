package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Signal is the discrete trading decision for one (symbol, date)
type Signal int

const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

// String returns the label written to trade logs
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "Buy"
	case SignalSell:
		return "Sell"
	default:
		return "Hold"
	}
}

// ParseSignal parses a trade-log label (case-insensitive)
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SignalBuy, nil
	case "sell":
		return SignalSell, nil
	case "hold", "":
		return SignalHold, nil
	default:
		return SignalHold, fmt.Errorf("unknown signal %q", s)
	}
}

// SignalFrame holds one signal per (symbol, date), aligned with the z-score frame
// ⭐ SSOT: S2 → Backtest 시그널 전달
type SignalFrame struct {
	Dates   []time.Time         `json:"dates"`
	Symbols []string            `json:"symbols"`
	Signals map[string][]Signal `json:"signals"`
}

// NewSignalFrame creates a frame where every cell is Hold
func NewSignalFrame(dates []time.Time, symbols []string) *SignalFrame {
	sf := &SignalFrame{
		Dates:   dates,
		Symbols: symbols,
		Signals: make(map[string][]Signal, len(symbols)),
	}
	for _, s := range symbols {
		sf.Signals[s] = make([]Signal, len(dates))
	}
	return sf
}

// At returns the signal for (symbol, date index); Hold when absent
func (sf *SignalFrame) At(symbol string, i int) Signal {
	col, ok := sf.Signals[symbol]
	if !ok || i < 0 || i >= len(col) {
		return SignalHold
	}
	return col[i]
}

// Count returns the number of cells holding the given signal
func (sf *SignalFrame) Count(sig Signal) int {
	n := 0
	for _, col := range sf.Signals {
		for _, s := range col {
			if s == sig {
				n++
			}
		}
	}
	return n
}

// TradeSignal is one row of the trade-signal audit log
type TradeSignal struct {
	Date   time.Time `json:"date"`
	Symbol string    `json:"symbol"`
	ZScore float64   `json:"zscore"`
	Signal Signal    `json:"signal"`
	Price  float64   `json:"price"`
}

// Thresholds are the classifier bounds.
// Lower and Upper are independent; they are not assumed symmetric.
type Thresholds struct {
	Lower float64 `json:"lower"` // z < Lower → Buy
	Upper float64 `json:"upper"` // z > Upper → Sell
}

// IsSymmetric reports whether Upper == -Lower
func (t Thresholds) IsSymmetric() bool {
	return t.Upper == -t.Lower
}
