package backtest

import (
	"fmt"

	"github.com/wonny/zreversion/internal/audit"
	"github.com/wonny/zreversion/internal/s0_data"
	"github.com/wonny/zreversion/internal/strategyconfig"
)

// Artifact names not configurable through the output section
const (
	RunSnapshotFile = "run_snapshot.json"
	RiskReportFile  = "risk_report.json"
	EquityChartFile = "equity_curve.png"
)

// SaveSignals writes the S2 outputs (z-score table and trade log)
func SaveSignals(prepared *Prepared, w *s0_data.Writer, out strategyconfig.Output) ([]string, error) {
	if err := w.WriteFrame(out.ZScoresFile, prepared.Signals.ZScores); err != nil {
		return nil, fmt.Errorf("write z-scores: %w", err)
	}
	if err := w.WriteTradeSignals(out.TradeSignalsFile, prepared.Signals.TradeLog); err != nil {
		return nil, fmt.Errorf("write trade signals: %w", err)
	}
	return []string{w.Path(out.ZScoresFile), w.Path(out.TradeSignalsFile)}, nil
}

// SaveArtifacts writes every output of a completed run.
// Called only after the whole pipeline succeeded.
func SaveArtifacts(result *Result, w *s0_data.Writer, out strategyconfig.Output, snapshot *strategyconfig.RunSnapshot) ([]string, error) {
	// 차트 렌더링 실패 시 아무것도 쓰지 않도록 먼저 렌더링
	var chart []byte
	if out.Charts {
		png, err := audit.RenderEquityCurve(result.Simulation.History, result.Inputs.Benchmark)
		if err != nil {
			return nil, err
		}
		chart = png
	}

	written, err := SaveSignals(result.Prepared, w, out)
	if err != nil {
		return written, err
	}

	if err := w.WriteEquityCurve(out.EquityCurveFile, result.Simulation.History, result.Inputs.Benchmark); err != nil {
		return written, fmt.Errorf("write equity curve: %w", err)
	}
	written = append(written, w.Path(out.EquityCurveFile))

	if err := w.WriteFills(out.FillsFile, result.Simulation.Fills); err != nil {
		return written, fmt.Errorf("write fills: %w", err)
	}
	written = append(written, w.Path(out.FillsFile))

	if err := w.WriteMetrics(out.MetricsFile, result.Comparison); err != nil {
		return written, fmt.Errorf("write metrics: %w", err)
	}
	written = append(written, w.Path(out.MetricsFile))

	if err := w.WriteJSON(RiskReportFile, result.Risk); err != nil {
		return written, fmt.Errorf("write risk report: %w", err)
	}
	written = append(written, w.Path(RiskReportFile))

	if snapshot != nil {
		if err := w.WriteJSON(RunSnapshotFile, snapshot); err != nil {
			return written, fmt.Errorf("write run snapshot: %w", err)
		}
		written = append(written, w.Path(RunSnapshotFile))
	}

	if result.Telemetry != nil {
		if err := result.Telemetry.WriteTextfile(w.Path(TelemetryFile)); err != nil {
			return written, fmt.Errorf("write telemetry: %w", err)
		}
		written = append(written, w.Path(TelemetryFile))
	}

	if chart != nil {
		if err := w.WriteBytes(EquityChartFile, chart); err != nil {
			return written, fmt.Errorf("write chart: %w", err)
		}
		written = append(written, w.Path(EquityChartFile))
	}

	return written, nil
}
