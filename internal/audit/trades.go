package audit

import (
	"math"
	"time"

	"github.com/wonny/zreversion/internal/contracts"
)

// Trade represents a closed round trip (buy then full sell)
type Trade struct {
	Symbol     string    `json:"symbol"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	PnL        float64   `json:"pnl"`
}

// HoldingDays returns calendar days between entry and exit
func (t Trade) HoldingDays() float64 {
	return t.ExitDate.Sub(t.EntryDate).Hours() / 24
}

// TradeReport summarizes closed round trips
type TradeReport struct {
	ClosedTrades   int     `json:"closed_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	ProfitFactor   float64 `json:"profit_factor"` // 손실 없으면 NaN
	AvgHoldingDays float64 `json:"avg_holding_days"`
}

// RoundTrips pairs each sell fill with the open buy of the same symbol
func RoundTrips(fills []contracts.Fill) []Trade {
	open := make(map[string]contracts.Fill)
	var trades []Trade

	for _, f := range fills {
		if f.IsBuy() {
			open[f.Symbol] = f
			continue
		}
		entry, ok := open[f.Symbol]
		if !ok {
			continue
		}
		delete(open, f.Symbol)
		trades = append(trades, Trade{
			Symbol:     f.Symbol,
			EntryDate:  entry.Date,
			ExitDate:   f.Date,
			EntryPrice: entry.Price,
			ExitPrice:  f.Price,
			Quantity:   f.Qty,
			PnL:        f.PnL,
		})
	}

	return trades
}

// AnalyzeTrades computes win/loss statistics over closed round trips
func AnalyzeTrades(trades []Trade) TradeReport {
	report := TradeReport{ClosedTrades: len(trades)}
	if len(trades) == 0 {
		report.WinRate = math.NaN()
		report.ProfitFactor = math.NaN()
		report.AvgHoldingDays = math.NaN()
		return report
	}

	var sumWin, sumLoss, holding float64
	var countWin, countLoss int

	for _, t := range trades {
		holding += t.HoldingDays()
		if t.PnL > 0 {
			sumWin += t.PnL
			countWin++
		} else if t.PnL < 0 {
			sumLoss += t.PnL
			countLoss++
		}
	}

	report.WinRate = float64(countWin) / float64(len(trades))
	if countWin > 0 {
		report.AvgWin = sumWin / float64(countWin)
	}
	if countLoss > 0 {
		report.AvgLoss = sumLoss / float64(countLoss)
		report.ProfitFactor = sumWin / math.Abs(sumLoss)
	} else {
		report.ProfitFactor = math.NaN()
	}
	report.AvgHoldingDays = holding / float64(len(trades))

	return report
}
