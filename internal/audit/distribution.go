package audit

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wonny/zreversion/internal/contracts"
)

// Side selects which tail of the z-score distribution is analyzed
type Side string

const (
	SideBuy  Side = "buy"  // z < lower
	SideSell Side = "sell" // z > upper
)

// ParseSide parses "buy" or "sell"
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown side %q (want buy or sell)", s)
	}
}

// Threshold returns the bound that defines the side
func (s Side) Threshold(th contracts.Thresholds) float64 {
	if s == SideBuy {
		return th.Lower
	}
	return th.Upper
}

// Signal returns the trade-log signal matching the side
func (s Side) Signal() contracts.Signal {
	if s == SideBuy {
		return contracts.SignalBuy
	}
	return contracts.SignalSell
}

// Bin is one histogram bucket
type Bin struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	Count   int     `json:"count"`
	Density float64 `json:"density"` // count / (n × width)
}

// Center returns the bin midpoint
func (b Bin) Center() float64 {
	return (b.Lower + b.Upper) / 2
}

// Distribution is a fitted normal plus a density histogram of selected z-scores
type Distribution struct {
	Side      Side    `json:"side"`
	Threshold float64 `json:"threshold"`
	Count     int     `json:"count"`
	Mean      float64 `json:"mean"`   // 최대우도 μ
	StdDev    float64 `json:"stddev"` // 최대우도 σ (모표준편차)
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Bins      []Bin   `json:"bins"`
}

// PDF returns the fitted normal density at x (NaN when σ is 0)
func (d *Distribution) PDF(x float64) float64 {
	if !(d.StdDev > 0) {
		return math.NaN()
	}
	return distuv.Normal{Mu: d.Mean, Sigma: d.StdDev}.Prob(x)
}

// SelectZScores returns every defined z-score in the tail beyond the side's threshold.
// Cells are read date by date, symbol by symbol.
func SelectZScores(zscores *contracts.Frame, side Side, th contracts.Thresholds) []float64 {
	bound := side.Threshold(th)
	var out []float64
	for i := range zscores.Dates {
		for _, s := range zscores.Symbols {
			z := zscores.At(s, i)
			if contracts.Missing(z) {
				continue
			}
			if (side == SideBuy && z < bound) || (side == SideSell && z > bound) {
				out = append(out, z)
			}
		}
	}
	return out
}

// SelectTradeLog returns the z-scores of trade-log entries matching the side's signal
func SelectTradeLog(log []contracts.TradeSignal, side Side) []float64 {
	var out []float64
	for _, ts := range log {
		if ts.Signal == side.Signal() && !contracts.Missing(ts.ZScore) {
			out = append(out, ts.ZScore)
		}
	}
	return out
}

// FitDistribution fits a normal distribution and builds a density histogram.
// An empty selection is ErrEmptyResult.
func FitDistribution(values []float64, side Side, threshold float64, bins int) (*Distribution, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s side: %w: no z-scores selected", side, contracts.ErrEmptyResult)
	}
	if bins <= 0 {
		return nil, fmt.Errorf("bins must be > 0, got %d", bins)
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	d := &Distribution{
		Side:      side,
		Threshold: threshold,
		Count:     len(values),
		Mean:      mean,
		StdDev:    std,
		Min:       floats.Min(values),
		Max:       floats.Max(values),
	}
	d.Bins = histogram(values, d.Min, d.Max, bins)

	return d, nil
}

// histogram buckets values into equal-width bins over [lo, hi]; the last bin is closed.
// A degenerate range is widened to [lo-0.5, hi+0.5].
func histogram(values []float64, lo, hi float64, bins int) []Bin {
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram은 마지막 경계 미만만 집계 → 최댓값 포함하도록 확장
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)

	n := float64(len(values))
	out := make([]Bin, bins)
	for i := range out {
		upper := dividers[i+1]
		if i == bins-1 {
			upper = hi
		}
		width := upper - dividers[i]
		out[i] = Bin{
			Lower:   dividers[i],
			Upper:   upper,
			Count:   int(counts[i]),
			Density: counts[i] / (n * width),
		}
	}
	return out
}
