package s2_signals

import (
	"sort"

	"github.com/wonny/zreversion/internal/contracts"
)

// BuildTradeLog lists every Buy/Sell cell with its z-score and price, sorted by date then symbol
func BuildTradeLog(zscores *contracts.Frame, signals *contracts.SignalFrame, prices *contracts.Frame) []contracts.TradeSignal {
	var log []contracts.TradeSignal

	for i, date := range signals.Dates {
		for _, symbol := range signals.Symbols {
			sig := signals.At(symbol, i)
			if sig == contracts.SignalHold {
				continue
			}
			log = append(log, contracts.TradeSignal{
				Date:   date,
				Symbol: symbol,
				ZScore: zscores.At(symbol, i),
				Signal: sig,
				Price:  prices.At(symbol, i),
			})
		}
	}

	sort.SliceStable(log, func(a, b int) bool {
		if !log[a].Date.Equal(log[b].Date) {
			return log[a].Date.Before(log[b].Date)
		}
		return log[a].Symbol < log[b].Symbol
	})

	return log
}

// FilterTradeLog keeps the entries with the given signal
func FilterTradeLog(log []contracts.TradeSignal, sig contracts.Signal) []contracts.TradeSignal {
	var out []contracts.TradeSignal
	for _, ts := range log {
		if ts.Signal == sig {
			out = append(out, ts)
		}
	}
	return out
}
