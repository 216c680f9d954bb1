package s2_signals

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/pkg/logger"
)

// ZScoreCalculator computes rolling z-scores
// ⭐ SSOT: z-score 계산은 여기서만
type ZScoreCalculator struct {
	window int
	logger *logger.Logger
}

// NewZScoreCalculator creates a calculator for a trailing window of the given length
func NewZScoreCalculator(window int, log *logger.Logger) *ZScoreCalculator {
	return &ZScoreCalculator{
		window: window,
		logger: log,
	}
}

// Window returns the lookback length
func (c *ZScoreCalculator) Window() int {
	return c.window
}

// Calculate returns (price - mean) / std over the trailing window ending at each date.
// The window includes the current date and must hold `window` consecutive defined prices;
// std is the sample standard deviation (n-1). Undefined cells are NaN, including std == 0.
func (c *ZScoreCalculator) Calculate(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if c.window < 2 {
		return out
	}

	// 직전 결측 이후 연속 유효 가격 수
	run := 0
	for i, p := range prices {
		if contracts.Missing(p) {
			run = 0
			continue
		}
		run++
		if run < c.window {
			continue
		}

		win := prices[i-c.window+1 : i+1]
		mean, std := stat.MeanStdDev(win, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		out[i] = (p - mean) / std
	}

	return out
}

// CalculateFrame computes z-scores for each symbol, in the given order
func (c *ZScoreCalculator) CalculateFrame(prices *contracts.Frame, symbols []string) *contracts.Frame {
	zscores := contracts.NewFrame(prices.Dates, symbols)

	for _, symbol := range symbols {
		col, ok := prices.Column(symbol)
		if !ok {
			continue
		}
		zscores.Values[symbol] = c.Calculate(col)

		c.logger.WithFields(map[string]interface{}{
			"symbol":  symbol,
			"defined": countDefined(zscores.Values[symbol]),
		}).Debug("Calculated z-scores")
	}

	return zscores
}

func countDefined(values []float64) int {
	n := 0
	for _, v := range values {
		if !contracts.Missing(v) {
			n++
		}
	}
	return n
}
