package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/zreversion/internal/audit"
	"github.com/wonny/zreversion/internal/contracts"
	"github.com/wonny/zreversion/internal/s0_data"
	"github.com/wonny/zreversion/internal/s0_data/collector"
	"github.com/wonny/zreversion/internal/s0_data/quality"
	"github.com/wonny/zreversion/internal/s1_universe"
	"github.com/wonny/zreversion/internal/s2_signals"
	"github.com/wonny/zreversion/internal/strategyconfig"
	"github.com/wonny/zreversion/pkg/logger"
)

// Engine runs the pipeline: prices → z-scores → signals → simulated portfolio → metrics
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	collector *collector.Collector
	gate      *quality.QualityGate
	universe  *s1_universe.Builder
	signals   *s2_signals.Builder
	simulator *Simulator
	analyzer  *audit.Analyzer
	logger    *logger.Logger
}

// Prepared holds everything up to and including S2
type Prepared struct {
	Inputs   *collector.Inputs
	Quality  *contracts.DataQualitySnapshot
	Universe *contracts.Universe
	Signals  *s2_signals.Result
}

// Result holds backtest results
type Result struct {
	*Prepared

	StartDate time.Time
	EndDate   time.Time
	Duration  time.Duration

	Simulation *SimulationResult
	Comparison *contracts.Comparison
	Trades     audit.TradeReport
	Risk       audit.RiskReport

	StrategyDrawdown  []float64
	BenchmarkDrawdown []float64

	Telemetry *Telemetry // Run 에서만 채워짐
}

// NewEngine creates a new backtest engine
func NewEngine(
	collector *collector.Collector,
	gate *quality.QualityGate,
	universe *s1_universe.Builder,
	signals *s2_signals.Builder,
	simulator *Simulator,
	analyzer *audit.Analyzer,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		collector: collector,
		gate:      gate,
		universe:  universe,
		signals:   signals,
		simulator: simulator,
		analyzer:  analyzer,
		logger:    logger,
	}
}

// NewEngineFromConfig wires every stage from a strategy config
func NewEngineFromConfig(cfg *strategyconfig.Config, log *logger.Logger) *Engine {
	reader := s0_data.NewCSVReader(cfg.Data.DateColumn, cfg.Data.DateLayouts)

	return NewEngine(
		collector.NewCollector(reader, log.WithStage("s0_data")),
		quality.NewQualityGate(quality.Config{MinQualityScore: quality.DefaultMinQualityScore}),
		s1_universe.NewBuilder(s1_universe.Config{
			DropIncomplete: cfg.Universe.DropIncompleteAssets,
			MinCoverage:    cfg.Universe.MinCoverage,
			Exclude:        cfg.Universe.Exclude,
		}),
		s2_signals.NewBuilder(
			s2_signals.NewZScoreCalculator(cfg.Signals.Window, log.WithStage("s2_signals")),
			s2_signals.NewClassifier(cfg.Signals.Thresholds()),
			log.WithStage("s2_signals"),
		),
		NewSimulator(SimulatorConfig{
			InitialCapital: cfg.Portfolio.InitialCapital,
			PositionSize:   cfg.Portfolio.PositionSize,
		}, log.WithStage("simulate")),
		audit.NewAnalyzer(cfg.Metrics.PeriodsPerYear, log.WithStage("audit")),
		log.WithStage("backtest"),
	)
}

// SourcesFromConfig maps the data section to collector sources
func SourcesFromConfig(cfg *strategyconfig.Config) collector.Sources {
	return collector.Sources{
		PricesPath:      cfg.Data.PricesPath,
		BenchmarkPath:   cfg.Data.BenchmarkPath,
		BenchmarkColumn: cfg.Data.BenchmarkColumn,
		BenchmarkSymbol: cfg.Data.BenchmarkSymbol,
	}
}

// Prepare loads inputs and runs S0 → S2
func (e *Engine) Prepare(ctx context.Context, src collector.Sources) (*Prepared, error) {
	return e.prepare(ctx, src, nil)
}

func (e *Engine) prepare(ctx context.Context, src collector.Sources, tel *Telemetry) (*Prepared, error) {
	stageStart := time.Now()
	inputs, err := e.collector.Collect(ctx, src)
	if err != nil {
		return nil, err
	}
	tel.ObserveStage("s0_data", stageStart)

	stageStart = time.Now()
	snapshot, err := e.gate.Check(inputs.Prices, inputs.MalformedCells())
	if err != nil {
		return nil, err
	}
	if !e.gate.Passed(snapshot) {
		e.logger.WithField("quality_score", snapshot.QualityScore).Warn("Data quality below threshold")
	}
	if snapshot.MalformedCells > 0 {
		e.logger.WithField("malformed_cells", snapshot.MalformedCells).Warn("Malformed cells coerced to NaN")
	}

	universe, err := e.universe.Build(snapshot, inputs.Prices.Symbols)
	if err != nil {
		return nil, err
	}
	tel.ObserveStage("s1_universe", stageStart)

	e.logger.WithFields(map[string]interface{}{
		"start":         snapshot.StartDate.Format(contracts.DateLayout),
		"end":           snapshot.EndDate.Format(contracts.DateLayout),
		"trading_days":  snapshot.TradingDays,
		"universe":      universe.Count(),
		"excluded":      len(universe.Excluded),
		"quality_score": snapshot.QualityScore,
	}).Info("Universe built")

	stageStart = time.Now()
	signals, err := e.signals.Build(ctx, inputs.Prices, universe)
	if err != nil {
		return nil, err
	}
	tel.ObserveStage("s2_signals", stageStart)

	return &Prepared{
		Inputs:   inputs,
		Quality:  snapshot,
		Universe: universe,
		Signals:  signals,
	}, nil
}

// Run executes a backtest simulation
func (e *Engine) Run(ctx context.Context, src collector.Sources) (*Result, error) {
	startTime := time.Now()
	tel := NewTelemetry()

	prepared, err := e.prepare(ctx, src, tel)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart := time.Now()
	result, err := e.Simulate(prepared)
	if err != nil {
		return nil, err
	}
	tel.ObserveStage("simulate", stageStart)
	tel.ObserveStage("total", startTime)

	result.Duration = time.Since(startTime)
	result.Telemetry = tel
	tel.RecordResult(result)

	e.logger.WithFields(map[string]interface{}{
		"duration":     result.Duration.Seconds(),
		"trading_days": result.Simulation.History.Len(),
		"total_return": fmt.Sprintf("%.2f%%", result.Comparison.Strategy.TotalReturn*100),
		"sharpe_ratio": fmt.Sprintf("%.2f", result.Comparison.Strategy.SharpeRatio),
		"max_drawdown": fmt.Sprintf("%.2f%%", result.Comparison.Strategy.MaxDrawdown*100),
	}).Info("Backtest completed")

	return result, nil
}

// Simulate runs the portfolio simulation and metrics on prepared inputs
func (e *Engine) Simulate(prepared *Prepared) (*Result, error) {
	prices := prepared.Inputs.Prices
	sim, err := e.simulator.Run(prices, prepared.Signals.Signals, prepared.Universe.Symbols)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	cmp, err := e.analyzer.Compare(sim.History, prepared.Inputs.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	return &Result{
		Prepared:          prepared,
		StartDate:         prices.Dates[0],
		EndDate:           prices.Dates[prices.Len()-1],
		Simulation:        sim,
		Comparison:        cmp,
		Trades:            audit.AnalyzeTrades(audit.RoundTrips(sim.Fills)),
		Risk:              audit.AssessRisk(sim.History.Values(), prepared.Inputs.Benchmark.Values, audit.DefaultConfidenceLevels),
		StrategyDrawdown:  audit.DrawdownSeries(sim.History.Values()),
		BenchmarkDrawdown: audit.DrawdownSeries(prepared.Inputs.Benchmark.Values),
	}, nil
}
