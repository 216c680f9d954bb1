package audit

import (
	"fmt"
	"math"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/wonny/zreversion/internal/contracts"
)

// RenderEquityCurve draws strategy and benchmark, both rebased to 100, as a PNG
func RenderEquityCurve(history *contracts.PortfolioHistory, bench *contracts.Benchmark) ([]byte, error) {
	if history.Len() == 0 || bench.Len() == 0 {
		return nil, fmt.Errorf("equity curve: %w", contracts.ErrEmptyResult)
	}

	benchBase := make(map[int64]float64, bench.Len())
	for i, d := range bench.Dates {
		benchBase[d.Unix()] = bench.Values[i] / bench.Values[0] * 100
	}

	strategy := history.Base100()
	benchmark := make([]float64, history.Len())
	xLabels := make([]string, history.Len())
	for i, p := range history.Points {
		xLabels[i] = p.Date.Format(contracts.DateLayout)
		if v, ok := benchBase[p.Date.Unix()]; ok {
			benchmark[i] = v
		} else {
			benchmark[i] = charts.GetNullValue()
		}
	}

	yMin, yMax := bounds(strategy, benchmark)
	names := []string{"Strategy", bench.Symbol}
	seriesList := charts.NewSeriesListDataFromValues([][]float64{strategy, benchmark}, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc("Z-Score Reversion vs "+bench.Symbol, "base 100"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return painter.Bytes()
}

// RenderDistribution draws the density histogram with the fitted normal pdf as a PNG
func RenderDistribution(d *Distribution) ([]byte, error) {
	if d == nil || len(d.Bins) == 0 {
		return nil, fmt.Errorf("distribution chart: %w", contracts.ErrEmptyResult)
	}

	density := make([]float64, len(d.Bins))
	pdf := make([]float64, len(d.Bins))
	xLabels := make([]string, len(d.Bins))
	for i, b := range d.Bins {
		density[i] = b.Density
		xLabels[i] = fmt.Sprintf("%.2f", b.Center())
		if p := d.PDF(b.Center()); !math.IsNaN(p) {
			pdf[i] = p
		} else {
			pdf[i] = charts.GetNullValue()
		}
	}

	names := []string{"density", fmt.Sprintf("normal fit (μ=%.2f, σ=%.2f)", d.Mean, d.StdDev)}
	seriesList := charts.NewSeriesListDataFromValues([][]float64{density, pdf}, charts.ChartTypeBar)
	seriesList[1].Type = charts.ChartTypeLine
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}

	title := "Z-Score Distribution • " + string(d.Side)
	subtitle := fmt.Sprintf("threshold %.2f • n=%d", d.Threshold, d.Count)

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, SplitNumber: 10}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return painter.Bytes()
}

// bounds returns padded min/max across the defined values of all series
func bounds(series ...[]float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	null := charts.GetNullValue()
	for _, s := range series {
		for _, v := range s {
			if v == null || math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 100
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
