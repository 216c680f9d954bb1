package s0_data

import (
	"fmt"
	"time"

	"github.com/wonny/zreversion/internal/contracts"
)

// ExtractBenchmark moves the benchmark column out of a price table.
// Dates where the benchmark is not numeric are dropped from the series only.
func ExtractBenchmark(frame *contracts.Frame, column, symbol string) (*contracts.Frame, *contracts.Benchmark, error) {
	col, ok := frame.Column(column)
	if !ok {
		return nil, nil, &contracts.MissingInputError{
			Path: column,
			Err:  fmt.Errorf("benchmark column %q not in price table", column),
		}
	}

	bench := &contracts.Benchmark{Symbol: symbol}
	for i, v := range col {
		if contracts.Missing(v) {
			continue
		}
		bench.Dates = append(bench.Dates, frame.Dates[i])
		bench.Values = append(bench.Values, v)
	}
	if bench.Len() == 0 {
		return nil, nil, &contracts.MissingInputError{Path: column, Err: contracts.ErrEmptyResult}
	}

	assets := make([]string, 0, len(frame.Symbols))
	for _, s := range frame.Symbols {
		if s != column {
			assets = append(assets, s)
		}
	}

	return frame.Select(assets), bench, nil
}

// AlignWithBenchmark keeps only the dates present in both the price table
// and the benchmark (inner join), preserving ascending order.
func AlignWithBenchmark(frame *contracts.Frame, bench *contracts.Benchmark) (*contracts.Frame, *contracts.Benchmark, error) {
	benchIdx := make(map[time.Time]int, bench.Len())
	for i, d := range bench.Dates {
		benchIdx[d] = i
	}

	var (
		dates    []time.Time
		frameRow []int
		benchRow []int
	)
	for i, d := range frame.Dates {
		if j, ok := benchIdx[d]; ok {
			dates = append(dates, d)
			frameRow = append(frameRow, i)
			benchRow = append(benchRow, j)
		}
	}
	if len(dates) == 0 {
		return nil, nil, fmt.Errorf("%w: no common dates between prices and %s", contracts.ErrEmptyResult, bench.Symbol)
	}

	aligned := contracts.NewFrame(dates, append([]string(nil), frame.Symbols...))
	for _, s := range frame.Symbols {
		for k, i := range frameRow {
			aligned.Set(s, k, frame.At(s, i))
		}
	}

	out := &contracts.Benchmark{
		Symbol: bench.Symbol,
		Dates:  dates,
		Values: make([]float64, len(dates)),
	}
	for k, j := range benchRow {
		out.Values[k] = bench.Values[j]
	}

	if err := aligned.Validate(); err != nil {
		return nil, nil, err
	}

	return aligned, out, nil
}
