package s2_signals

import (
	"github.com/wonny/zreversion/internal/contracts"
)

// Classify maps a z-score to a signal: z < Lower → Buy, z > Upper → Sell, otherwise Hold.
// Undefined z and exact threshold ties are Hold.
func Classify(z float64, th contracts.Thresholds) contracts.Signal {
	switch {
	case contracts.Missing(z):
		return contracts.SignalHold
	case z < th.Lower:
		return contracts.SignalBuy
	case z > th.Upper:
		return contracts.SignalSell
	default:
		return contracts.SignalHold
	}
}

// Classifier applies fixed thresholds to a z-score table
type Classifier struct {
	thresholds contracts.Thresholds
}

// NewClassifier creates a classifier
func NewClassifier(th contracts.Thresholds) *Classifier {
	return &Classifier{thresholds: th}
}

// Thresholds returns the classifier bounds
func (c *Classifier) Thresholds() contracts.Thresholds {
	return c.thresholds
}

// ClassifyFrame returns one signal per (symbol, date) of the z-score table
func (c *Classifier) ClassifyFrame(zscores *contracts.Frame) *contracts.SignalFrame {
	signals := contracts.NewSignalFrame(zscores.Dates, zscores.Symbols)
	for _, symbol := range zscores.Symbols {
		col := signals.Signals[symbol]
		for i := range col {
			col[i] = Classify(zscores.At(symbol, i), c.thresholds)
		}
	}
	return signals
}
