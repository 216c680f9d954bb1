package s0_data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/zreversion/internal/contracts"
)

// Writer writes run artifacts into one output directory.
// Every file is written to a temp name and renamed, so a failed write leaves no partial file.
type Writer struct {
	dir string
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the full path of an artifact
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteFrame writes a date-indexed table (z-scores). NaN cells are written empty.
func (w *Writer) WriteFrame(name string, frame *contracts.Frame) error {
	rows := make([][]string, 0, frame.Len()+1)
	rows = append(rows, append([]string{"Date"}, frame.Symbols...))
	for i, d := range frame.Dates {
		rec := make([]string, 0, len(frame.Symbols)+1)
		rec = append(rec, d.Format(contracts.DateLayout))
		for _, s := range frame.Symbols {
			rec = append(rec, formatFloat(frame.At(s, i)))
		}
		rows = append(rows, rec)
	}
	return w.WriteCSV(name, rows)
}

// WriteTradeSignals writes the trade-signal log in the order given
func (w *Writer) WriteTradeSignals(name string, signals []contracts.TradeSignal) error {
	rows := make([][]string, 0, len(signals)+1)
	rows = append(rows, []string{"Date", "Ticker", "ZScore", "Signal", "Price"})
	for _, ts := range signals {
		rows = append(rows, []string{
			ts.Date.Format(contracts.DateLayout),
			ts.Symbol,
			formatFloat(ts.ZScore),
			ts.Signal.String(),
			formatFloat(ts.Price),
		})
	}
	return w.WriteCSV(name, rows)
}

// WriteEquityCurve writes portfolio value and base-100 series for strategy and benchmark
func (w *Writer) WriteEquityCurve(name string, history *contracts.PortfolioHistory, bench *contracts.Benchmark) error {
	benchBase := make(map[time.Time]float64, bench.Len())
	if bench.Len() > 0 && bench.Values[0] != 0 {
		for i, d := range bench.Dates {
			benchBase[d] = bench.Values[i] / bench.Values[0] * 100
		}
	}

	base100 := history.Base100()
	rows := make([][]string, 0, history.Len()+1)
	rows = append(rows, []string{"Date", "PortfolioValue", "Cash", "Positions", "PortfolioBase100", "BenchmarkBase100"})
	for i, p := range history.Points {
		b, ok := benchBase[p.Date]
		if !ok {
			b = math.NaN()
		}
		rows = append(rows, []string{
			p.Date.Format(contracts.DateLayout),
			formatFloat(p.Value),
			formatFloat(p.Cash),
			strconv.Itoa(p.Positions),
			formatFloat(base100[i]),
			formatFloat(b),
		})
	}
	return w.WriteCSV(name, rows)
}

// WriteFills writes the executed orders
func (w *Writer) WriteFills(name string, fills []contracts.Fill) error {
	rows := make([][]string, 0, len(fills)+1)
	rows = append(rows, []string{"Date", "Ticker", "Side", "Qty", "Price", "Value", "CashAfter", "PnL"})
	for _, f := range fills {
		rows = append(rows, []string{
			f.Date.Format(contracts.DateLayout),
			f.Symbol,
			string(f.Side),
			formatFloat(f.Qty),
			formatFloat(f.Price),
			formatFloat(f.Value),
			formatFloat(f.CashAfter),
			formatFloat(f.PnL),
		})
	}
	return w.WriteCSV(name, rows)
}

// WriteMetrics writes the comparison as CSV (one row per series) and as JSON
// next to it. Undefined metrics are empty in CSV and null in JSON.
func (w *Writer) WriteMetrics(name string, cmp *contracts.Comparison) error {
	rows := [][]string{
		{"Series", "StartDate", "EndDate", "Observations", "TotalReturn", "AnnualizedReturn", "Volatility", "SharpeRatio", "MaxDrawdown"},
	}
	for _, m := range []contracts.PerformanceMetrics{cmp.Strategy, cmp.Benchmark} {
		rows = append(rows, []string{
			m.Name,
			formatDate(m.StartDate),
			formatDate(m.EndDate),
			strconv.Itoa(m.Observations),
			formatFloat(m.TotalReturn),
			formatFloat(m.AnnualizedReturn),
			formatFloat(m.Volatility),
			formatFloat(m.SharpeRatio),
			formatFloat(m.MaxDrawdown),
		})
	}
	if err := w.WriteCSV(name, rows); err != nil {
		return err
	}

	jsonName := name[:len(name)-len(filepath.Ext(name))] + ".json"
	return w.WriteJSON(jsonName, map[string]interface{}{
		"strategy":      metricsJSON(cmp.Strategy),
		"benchmark":     metricsJSON(cmp.Benchmark),
		"excess_return": nullable(cmp.ExcessReturn()),
	})
}

// WriteJSON writes v as indented JSON
func (w *Writer) WriteJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return w.writeFile(name, data)
}

// WriteCSV writes rows to name
func (w *Writer) WriteCSV(name string, rows [][]string) error {
	return w.commit(name, func(f *os.File) error {
		writer := csv.NewWriter(f)
		for _, row := range rows {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		writer.Flush()
		return writer.Error()
	})
}

// WriteBytes writes raw bytes (rendered charts)
func (w *Writer) WriteBytes(name string, data []byte) error {
	return w.writeFile(name, data)
}

func (w *Writer) writeFile(name string, data []byte) error {
	return w.commit(name, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// commit writes through a temp file in the same directory and renames it into place
func (w *Writer) commit(name string, fill func(*os.File) error) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}

	path := w.Path(name)
	tmp, err := os.CreateTemp(w.dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if err := fill(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}

	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(contracts.DateLayout)
}

// nullable maps undefined values to JSON null
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func metricsJSON(m contracts.PerformanceMetrics) map[string]interface{} {
	return map[string]interface{}{
		"name":              m.Name,
		"start_date":        formatDate(m.StartDate),
		"end_date":          formatDate(m.EndDate),
		"observations":      m.Observations,
		"total_return":      nullable(m.TotalReturn),
		"annualized_return": nullable(m.AnnualizedReturn),
		"volatility":        nullable(m.Volatility),
		"sharpe_ratio":      nullable(m.SharpeRatio),
		"max_drawdown":      nullable(m.MaxDrawdown),
	}
}
