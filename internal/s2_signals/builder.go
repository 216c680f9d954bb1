package s2_signals

import (
	"context"
	"fmt"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/pkg/logger"
)

// Builder orchestrates z-score calculation and classification
// ⭐ SSOT: 시그널 생성 오케스트레이션은 여기서만
type Builder struct {
	zscore     *ZScoreCalculator
	classifier *Classifier
	logger     *logger.Logger
}

// Result bundles the S2 outputs
type Result struct {
	ZScores  *contracts.Frame
	Signals  *contracts.SignalFrame
	TradeLog []contracts.TradeSignal
}

// NewBuilder creates a new signal builder
func NewBuilder(zscore *ZScoreCalculator, classifier *Classifier, log *logger.Logger) *Builder {
	return &Builder{
		zscore:     zscore,
		classifier: classifier,
		logger:     log,
	}
}

// Build computes z-scores, signals and the trade log for every symbol in the universe
func (b *Builder) Build(ctx context.Context, prices *contracts.Frame, universe *contracts.Universe) (*Result, error) {
	if prices == nil || prices.Len() == 0 {
		return nil, &contracts.MissingInputError{Path: "prices", Err: fmt.Errorf("empty price table")}
	}

	th := b.classifier.Thresholds()
	b.logger.WithFields(map[string]interface{}{
		"symbols": universe.Count(),
		"dates":   prices.Len(),
		"window":  b.zscore.Window(),
		"lower":   th.Lower,
		"upper":   th.Upper,
	}).Info("Starting signal generation")

	if prices.Len() < b.zscore.Window() {
		b.logger.WithFields(map[string]interface{}{
			"dates":  prices.Len(),
			"window": b.zscore.Window(),
		}).Warn("History shorter than window, every z-score is undefined")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zscores := b.zscore.CalculateFrame(prices, universe.Symbols)
	signals := b.classifier.ClassifyFrame(zscores)
	tradeLog := BuildTradeLog(zscores, signals, prices)

	b.logger.WithFields(map[string]interface{}{
		"buys":  signals.Count(contracts.SignalBuy),
		"sells": signals.Count(contracts.SignalSell),
	}).Info("Signal generation completed")

	return &Result{
		ZScores:  zscores,
		Signals:  signals,
		TradeLog: tradeLog,
	}, nil
}
