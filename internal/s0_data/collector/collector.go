package collector

import (
	"context"
	"fmt"

	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
	"github.com/wonny/zreversion/pkg/logger"
)

// Collector gathers every input table a backtest needs before the run starts
// ⭐ SSOT: 입력 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	reader *s0_data.CSVReader
	logger *logger.Logger
}

// Sources names the input tables
type Sources struct {
	PricesPath      string
	BenchmarkPath   string // 비어 있으면 PricesPath 안의 BenchmarkColumn 사용
	BenchmarkColumn string
	BenchmarkSymbol string
}

// Inputs is the aligned price table and benchmark, ready for S1
type Inputs struct {
	Prices    *contracts.Frame
	Benchmark *contracts.Benchmark
	Reports   []*s0_data.LoadReport
}

// MalformedCells sums malformed cells across all loaded tables
func (in *Inputs) MalformedCells() int {
	n := 0
	for _, r := range in.Reports {
		n += r.MalformedCells
	}
	return n
}

// Paths returns the input file paths (for the run snapshot)
func (in *Inputs) Paths() []string {
	paths := make([]string, 0, len(in.Reports))
	for _, r := range in.Reports {
		paths = append(paths, r.Path)
	}
	return paths
}

// NewCollector creates a new Collector instance
func NewCollector(reader *s0_data.CSVReader, log *logger.Logger) *Collector {
	return &Collector{
		reader: reader,
		logger: log.WithField("module", "collector"),
	}
}

// Collect loads prices and benchmark, then inner-joins them on date.
// Any missing input aborts the run.
func (c *Collector) Collect(ctx context.Context, src Sources) (*Inputs, error) {
	if src.PricesPath == "" {
		return nil, &contracts.MissingInputError{Path: "prices", Err: fmt.Errorf("no price table configured")}
	}

	prices, priceReport, err := c.reader.LoadFrame(src.PricesPath)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	reports := []*s0_data.LoadReport{priceReport}

	c.logger.WithFields(map[string]interface{}{
		"path":      src.PricesPath,
		"rows":      priceReport.Rows,
		"symbols":   len(prices.Symbols),
		"dropped":   priceReport.DroppedRows,
		"malformed": priceReport.MalformedCells,
	}).Info("Loaded price table")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var bench *contracts.Benchmark
	if src.BenchmarkPath != "" {
		b, benchReport, err := c.reader.LoadBenchmark(src.BenchmarkPath, src.BenchmarkColumn, src.BenchmarkSymbol)
		if err != nil {
			return nil, fmt.Errorf("load benchmark: %w", err)
		}
		bench = b
		reports = append(reports, benchReport)

		c.logger.WithFields(map[string]interface{}{
			"path":    src.BenchmarkPath,
			"rows":    benchReport.Rows,
			"dropped": benchReport.DroppedRows,
		}).Info("Loaded benchmark")
	} else {
		assets, b, err := s0_data.ExtractBenchmark(prices, src.BenchmarkColumn, src.BenchmarkSymbol)
		if err != nil {
			return nil, fmt.Errorf("extract benchmark: %w", err)
		}
		prices, bench = assets, b

		c.logger.WithFields(map[string]interface{}{
			"column": src.BenchmarkColumn,
			"rows":   bench.Len(),
		}).Info("Extracted benchmark column")
	}

	if len(prices.Symbols) == 0 {
		return nil, &contracts.MissingInputError{Path: src.PricesPath, Err: fmt.Errorf("no asset columns")}
	}

	aligned, alignedBench, err := s0_data.AlignWithBenchmark(prices, bench)
	if err != nil {
		return nil, fmt.Errorf("align benchmark: %w", err)
	}

	if dropped := prices.Len() - aligned.Len(); dropped > 0 {
		c.logger.WithFields(map[string]interface{}{
			"dropped_dates": dropped,
			"common_dates":  aligned.Len(),
		}).Warn("Dates without benchmark dropped")
	}

	return &Inputs{
		Prices:    aligned,
		Benchmark: alignedBench,
		Reports:   reports,
	}, nil
}
