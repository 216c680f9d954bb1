package backtest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wonny/zreversion/internal/contracts"
)

// TelemetryFile is the Prometheus textfile written next to the other outputs
const TelemetryFile = "run_metrics.prom"

// Telemetry holds per-run Prometheus metrics.
// Each run gets its own registry; the textfile is picked up by node_exporter.
type Telemetry struct {
	registry *prometheus.Registry

	StageDuration *prometheus.GaugeVec
	Performance   *prometheus.GaugeVec
	Fills         *prometheus.CounterVec
	Signals       *prometheus.GaugeVec
	UniverseSize  prometheus.Gauge
	TradingDays   prometheus.Gauge
	LastRun       prometheus.Gauge
}

// NewTelemetry creates and registers the run metrics
func NewTelemetry() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),

		StageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zreversion_stage_duration_seconds",
				Help: "Wall time of each pipeline stage in the last run",
			},
			[]string{"stage"},
		),

		Performance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zreversion_performance",
				Help: "Performance metrics of the last run (NaN when undefined)",
			},
			[]string{"series", "metric"},
		),

		Fills: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zreversion_fills_total",
				Help: "Simulated fills by side",
			},
			[]string{"side"},
		),

		Signals: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "zreversion_signals",
				Help: "Classified (symbol, date) cells by signal",
			},
			[]string{"signal"},
		),

		UniverseSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zreversion_universe_size",
			Help: "Assets in the backtest universe",
		}),

		TradingDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zreversion_trading_days",
			Help: "Aligned trading days simulated",
		}),

		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zreversion_last_run_timestamp_seconds",
			Help: "Unix time the run finished",
		}),
	}

	t.registry.MustRegister(
		t.StageDuration,
		t.Performance,
		t.Fills,
		t.Signals,
		t.UniverseSize,
		t.TradingDays,
		t.LastRun,
	)
	return t
}

// ObserveStage records the duration since start for a stage. Nil-safe.
func (t *Telemetry) ObserveStage(stage string, start time.Time) {
	if t == nil {
		return
	}
	t.StageDuration.WithLabelValues(stage).Set(time.Since(start).Seconds())
}

// RecordResult copies the run outcome into the gauges and counters
func (t *Telemetry) RecordResult(r *Result) {
	if t == nil || r == nil {
		return
	}

	setPerformance(t.Performance, "strategy", r.Comparison.Strategy)
	setPerformance(t.Performance, "benchmark", r.Comparison.Benchmark)

	for _, f := range r.Simulation.Fills {
		t.Fills.WithLabelValues(string(f.Side)).Inc()
	}
	for _, sig := range []contracts.Signal{contracts.SignalBuy, contracts.SignalSell} {
		t.Signals.WithLabelValues(sig.String()).Set(float64(r.Signals.Signals.Count(sig)))
	}

	t.UniverseSize.Set(float64(r.Universe.Count()))
	t.TradingDays.Set(float64(r.Simulation.History.Len()))
	t.LastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry (tests, custom gatherers)
func (t *Telemetry) Registry() *prometheus.Registry {
	return t.registry
}

// WriteTextfile writes the metrics in Prometheus text format (atomic rename)
func (t *Telemetry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, t.registry)
}

func setPerformance(g *prometheus.GaugeVec, series string, m contracts.PerformanceMetrics) {
	g.WithLabelValues(series, "total_return").Set(m.TotalReturn)
	g.WithLabelValues(series, "annualized_return").Set(m.AnnualizedReturn)
	g.WithLabelValues(series, "volatility").Set(m.Volatility)
	g.WithLabelValues(series, "sharpe_ratio").Set(m.SharpeRatio)
	g.WithLabelValues(series, "max_drawdown").Set(m.MaxDrawdown)
}
